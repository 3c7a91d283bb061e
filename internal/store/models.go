package store

import "time"

type User struct {
	ID                    string
	DisplayName           string
	Email                 string
	AvatarURL             string
	PasswordHash          string
	IsEmailVerified       bool
	VerificationToken     string
	VerificationExpiresAt *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Access levels on a document room.
const (
	AccessCreator = "creator"
	AccessEditor  = "editor"
	AccessViewer  = "viewer"
)

type Document struct {
	ID        string
	Title     string
	OwnerID   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type DocumentAccess struct {
	DocumentID string
	Email      string
	Access     string
	GrantedBy  string
	CreatedAt  time.Time
}

// Collaborator is a document access joined with the matching user, when one exists.
type Collaborator struct {
	Email     string
	Access    string
	Name      string
	AvatarURL string
}
