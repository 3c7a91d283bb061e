package dashboard

import (
	"unicode"
	"unicode/utf8"
)

// ContainsFold reports whether query occurs in text under Unicode simple case
// folding. An empty query is contained in every text.
func ContainsFold(text, query string) bool {
	if query == "" {
		return true
	}
	for i := 0; i < len(text); {
		if _, ok := matchFoldAt(text, i, query); ok {
			return true
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		i += size
	}
	return false
}

// matchFoldAt compares query against text starting at byte offset i and
// returns the byte offset just past the match in text. Offsets always fall on
// the source text's own rune boundaries, so slicing text[i:end] keeps its casing.
// Invalid UTF-8 bytes only match the identical byte.
func matchFoldAt(text string, i int, query string) (int, bool) {
	pos := i
	for q := 0; q < len(query); {
		if pos >= len(text) {
			return 0, false
		}
		want, wantSize := utf8.DecodeRuneInString(query[q:])
		got, gotSize := utf8.DecodeRuneInString(text[pos:])
		if invalidByte(want, wantSize) || invalidByte(got, gotSize) {
			if wantSize != gotSize || query[q] != text[pos] {
				return 0, false
			}
		} else if !foldEqual(got, want) {
			return 0, false
		}
		q += wantSize
		pos += gotSize
	}
	return pos, true
}

func invalidByte(r rune, size int) bool {
	return r == utf8.RuneError && size == 1
}

func foldEqual(a, b rune) bool {
	if a == b {
		return true
	}
	for r := unicode.SimpleFold(a); r != a; r = unicode.SimpleFold(r) {
		if r == b {
			return true
		}
	}
	return false
}
