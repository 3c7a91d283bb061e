package util

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// NewID returns a random hex token with an optional prefix.
func NewID(prefix string) string {
	bytes := make([]byte, 16)
	_, _ = rand.Read(bytes)
	if prefix == "" {
		return hex.EncodeToString(bytes)
	}
	return prefix + "_" + hex.EncodeToString(bytes)
}

// NewDocumentID returns the room id of a new document.
func NewDocumentID() string {
	return uuid.NewString()
}

// NewNotificationID returns a lexically time ordered id.
func NewNotificationID(now time.Time) string {
	return "in_" + ulid.MustNew(ulid.Timestamp(now), rand.Reader).String()
}
