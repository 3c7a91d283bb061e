// Package dashboard derives the document list presentation: search filtering,
// title highlighting and the list view states.
package dashboard

import (
	"strings"
	"time"
)

// Document is one entry of a user's document snapshot.
type Document struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
}

// FilterDocuments returns the documents whose title contains query, ignoring
// case. A query that is blank after trimming returns docs unchanged. The input
// slice is never modified and the relative order of documents is kept.
func FilterDocuments(docs []Document, query string) []Document {
	if strings.TrimSpace(query) == "" {
		return docs
	}
	filtered := make([]Document, 0, len(docs))
	for _, doc := range docs {
		if ContainsFold(doc.Title, query) {
			filtered = append(filtered, doc)
		}
	}
	return filtered
}
