// Package search finds documents by title among those a user can open.
package search

import "context"

// Result is a single search hit returned to the caller.
type Result struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	// Highlight is the title with matches wrapped in <mark> tags.
	Highlight string `json:"highlight"`
}

// Query describes a search request. Email restricts hits to documents the
// user collaborates on and is required.
type Query struct {
	Text   string
	Email  string
	Limit  int
	Offset int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(ctx context.Context, q Query) ([]Result, int, error)
	Healthy() bool
}

// DocumentRecord is the data we index for a document.
type DocumentRecord struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Collaborators []string `json:"collaborators"`
	CreatedAt     int64    `json:"createdAt"`
}

func (q Query) normalized() Query {
	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = 20
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return q
}
