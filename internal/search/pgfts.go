package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PgFTS implements Searcher on the generated documents.fts column.
type PgFTS struct {
	db *sql.DB
}

func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy is always true; without Postgres nothing else works either.
func (p *PgFTS) Healthy() bool {
	return true
}

const pgftsWhere = `
	FROM documents d
	JOIN document_accesses da ON da.document_id = d.id
	WHERE da.email = $2 AND d.fts @@ plainto_tsquery('simple', $1)`

func (p *PgFTS) Search(ctx context.Context, q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}
	q = q.normalized()
	args := []any{q.Text, strings.ToLower(strings.TrimSpace(q.Email))}

	var total int
	if err := p.db.QueryRowContext(ctx, `SELECT count(*)`+pgftsWhere, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, `
		SELECT d.id, d.title,
			ts_headline('simple', d.title, plainto_tsquery('simple', $1), 'StartSel=<mark>,StopSel=</mark>,HighlightAll=true')
		`+pgftsWhere+`
		ORDER BY ts_rank(d.fts, plainto_tsquery('simple', $1)) DESC, d.created_at DESC
		LIMIT $3 OFFSET $4`, append(args, q.Limit, q.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.ID, &r.Title, &r.Highlight); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		results = append(results, r)
	}
	return results, total, rows.Err()
}

// LoadAllRecords returns every document with its collaborators for a full reindex.
func (p *PgFTS) LoadAllRecords(ctx context.Context) ([]DocumentRecord, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT d.id, d.title, extract(epoch FROM d.created_at)::bigint,
			COALESCE(array_to_string(array_agg(da.email ORDER BY da.email), ','), '')
		FROM documents d
		LEFT JOIN document_accesses da ON da.document_id = d.id
		GROUP BY d.id, d.title, d.created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}
	defer rows.Close()

	documents := make([]DocumentRecord, 0)
	for rows.Next() {
		var d DocumentRecord
		var emails string
		if err := rows.Scan(&d.ID, &d.Title, &d.CreatedAt, &emails); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		d.Collaborators = splitEmails(emails)
		documents = append(documents, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return documents, nil
}

func splitEmails(joined string) []string {
	if joined == "" {
		return []string{}
	}
	return strings.Split(joined, ",")
}
