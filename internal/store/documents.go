package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ListDocumentsForUser returns the documents the email can open, newest first.
func (s *PostgresStore) ListDocumentsForUser(ctx context.Context, email string) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.id, d.title, d.owner_id, d.created_at, d.updated_at
		FROM documents d
		JOIN document_accesses da ON da.document_id = d.id
		WHERE da.email = $1
		ORDER BY d.created_at DESC, d.id
	`, normalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	items := make([]Document, 0)
	for rows.Next() {
		var item Document
		if err := rows.Scan(&item.ID, &item.Title, &item.OwnerID, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetDocument(ctx context.Context, documentID string) (Document, error) {
	var item Document
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, owner_id, created_at, updated_at
		FROM documents
		WHERE id=$1
	`, documentID).Scan(&item.ID, &item.Title, &item.OwnerID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return Document{}, err
	}
	return item, nil
}

// CreateDocument inserts the document and grants its owner creator access.
func (s *PostgresStore) CreateDocument(ctx context.Context, item Document, ownerEmail string) (Document, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Document{}, fmt.Errorf("begin create document: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO documents (id, title, owner_id)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at
	`, item.ID, item.Title, item.OwnerID).Scan(&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return Document{}, fmt.Errorf("insert document: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO document_accesses (document_id, email, access, granted_by)
		VALUES ($1, $2, $3, $4)
	`, item.ID, normalizeEmail(ownerEmail), AccessCreator, item.OwnerID); err != nil {
		return Document{}, fmt.Errorf("insert creator access: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Document{}, fmt.Errorf("commit create document: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) RenameDocument(ctx context.Context, documentID, title string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE documents SET title=$2, updated_at=NOW() WHERE id=$1`, documentID, title)
	if err != nil {
		return fmt.Errorf("rename document: %w", err)
	}
	return requireAffected(result)
}

// DeleteDocument removes the document and returns the emails that had access to it.
func (s *PostgresStore) DeleteDocument(ctx context.Context, documentID string) ([]string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin delete document: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, `SELECT email FROM document_accesses WHERE document_id=$1`, documentID)
	if err != nil {
		return nil, fmt.Errorf("list document accesses: %w", err)
	}
	emails := make([]string, 0)
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan access email: %w", err)
		}
		emails = append(emails, email)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accesses: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id=$1`, documentID)
	if err != nil {
		return nil, fmt.Errorf("delete document: %w", err)
	}
	if err := requireAffected(result); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit delete document: %w", err)
	}
	return emails, nil
}

// GetDocumentAccess returns the access level of email on the document, or
// sql.ErrNoRows when it has none.
func (s *PostgresStore) GetDocumentAccess(ctx context.Context, documentID, email string) (string, error) {
	var access string
	err := s.db.QueryRowContext(ctx, `
		SELECT access FROM document_accesses WHERE document_id=$1 AND email=$2
	`, documentID, normalizeEmail(email)).Scan(&access)
	if err != nil {
		return "", err
	}
	return access, nil
}

// UpsertDocumentAccess grants access. The creator's access is never downgraded.
func (s *PostgresStore) UpsertDocumentAccess(ctx context.Context, access DocumentAccess) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO document_accesses (document_id, email, access, granted_by)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (document_id, email) DO UPDATE
		SET access=EXCLUDED.access, granted_by=EXCLUDED.granted_by
		WHERE document_accesses.access <> 'creator'
	`, access.DocumentID, normalizeEmail(access.Email), access.Access, access.GrantedBy)
	if err != nil {
		return fmt.Errorf("upsert document access: %w", err)
	}
	return nil
}

func (s *PostgresStore) RemoveDocumentAccess(ctx context.Context, documentID, email string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM document_accesses
		WHERE document_id=$1 AND email=$2 AND access <> 'creator'
	`, documentID, normalizeEmail(email))
	if err != nil {
		return fmt.Errorf("remove document access: %w", err)
	}
	return requireAffected(result)
}

func (s *PostgresStore) ListCollaborators(ctx context.Context, documentID string) ([]Collaborator, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT da.email, da.access, COALESCE(u.display_name, ''), COALESCE(u.avatar_url, '')
		FROM document_accesses da
		LEFT JOIN users u ON u.email = da.email
		WHERE da.document_id = $1
		ORDER BY CASE da.access WHEN 'creator' THEN 0 WHEN 'editor' THEN 1 ELSE 2 END, da.email
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("list collaborators: %w", err)
	}
	defer rows.Close()

	items := make([]Collaborator, 0)
	for rows.Next() {
		var item Collaborator
		if err := rows.Scan(&item.Email, &item.Access, &item.Name, &item.AvatarURL); err != nil {
			return nil, fmt.Errorf("scan collaborator: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate collaborators: %w", err)
	}
	return items, nil
}

// DocumentCollaboratorEmails is used to build search index records.
func (s *PostgresStore) DocumentCollaboratorEmails(ctx context.Context, documentID string) ([]string, error) {
	collaborators, err := s.ListCollaborators(ctx, documentID)
	if err != nil {
		return nil, err
	}
	emails := make([]string, 0, len(collaborators))
	for _, collaborator := range collaborators {
		emails = append(emails, collaborator.Email)
	}
	return emails, nil
}

// IsNotFound reports whether err means the row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
