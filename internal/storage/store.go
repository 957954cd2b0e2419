// Package storage persists event bundles keyed by event id. Several backends
// exist; TieredStore chains a remote key-value store in front of a disk one.
package storage

import (
	"context"
	"errors"
	"regexp"

	"santa/internal/models"
)

// Mode tells clients where a save landed. ModeLocal means the server copy may
// not survive and the client should keep its own.
type Mode string

const (
	ModeServer Mode = "server"
	ModeLocal  Mode = "local"
)

var (
	ErrNotFound  = errors.New("event not found")
	ErrInvalidID = errors.New("invalid event id")
	ErrCorrupt   = errors.New("stored event is corrupt")
)

// Backend is a single storage tier.
type Backend interface {
	Save(ctx context.Context, id string, bundle *models.EventBundle) error
	Get(ctx context.Context, id string) (*models.EventBundle, error)
	Kind() string
}

var unsafeIDChars = regexp.MustCompile(`[^a-zA-Z0-9-]`)

// SanitizeID strips everything but ASCII letters, digits and dashes.
func SanitizeID(id string) (string, error) {
	safe := unsafeIDChars.ReplaceAllString(id, "")
	if safe == "" {
		return "", ErrInvalidID
	}
	return safe, nil
}
