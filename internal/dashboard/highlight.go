package dashboard

import (
	"strings"
	"unicode/utf8"
)

// SegmentKind tags a piece of highlighted text.
type SegmentKind string

const (
	SegmentPlain   SegmentKind = "plain"
	SegmentMatched SegmentKind = "matched"
)

// Segment is a contiguous run of the source text.
type Segment struct {
	Kind SegmentKind `json:"kind"`
	Text string      `json:"text"`
}

// Highlight splits text around every case-insensitive occurrence of query.
// Occurrences are found left to right without overlap and matched segments
// keep the casing of text. The query is compared literally; no character in it
// has a special meaning. Joining the segments always yields text.
func Highlight(text, query string) []Segment {
	if query == "" {
		return []Segment{{Kind: SegmentPlain, Text: text}}
	}

	segments := make([]Segment, 0, 3)
	start := 0
	for i := 0; i < len(text); {
		if end, ok := matchFoldAt(text, i, query); ok {
			if i > start {
				segments = append(segments, Segment{Kind: SegmentPlain, Text: text[start:i]})
			}
			segments = append(segments, Segment{Kind: SegmentMatched, Text: text[i:end]})
			i = end
			start = end
			continue
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		i += size
	}
	if start < len(text) {
		segments = append(segments, Segment{Kind: SegmentPlain, Text: text[start:]})
	}
	return segments
}

// Join concatenates segment texts.
func Join(segments []Segment) string {
	var builder strings.Builder
	for _, segment := range segments {
		builder.WriteString(segment.Text)
	}
	return builder.String()
}

// titleSegments highlights a row title. Segments that do not reassemble the
// title are discarded in favour of the plain title.
func titleSegments(title, query string) []Segment {
	if query == "" {
		return []Segment{{Kind: SegmentPlain, Text: title}}
	}
	segments := Highlight(title, query)
	if Join(segments) != title {
		return []Segment{{Kind: SegmentPlain, Text: title}}
	}
	return segments
}
