package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/logger"

	"santa/internal/models"
)

// TieredStore writes to the remote tier when one is configured and falls back
// to disk. When the disk is ephemeral (serverless /tmp) saves report ModeLocal.
type TieredStore struct {
	remote    Backend
	disk      Backend
	ephemeral bool
	now       func() time.Time
}

// NewTieredStore chains remote (may be nil) in front of disk.
func NewTieredStore(remote, disk Backend, ephemeral bool) *TieredStore {
	return &TieredStore{
		remote:    remote,
		disk:      disk,
		ephemeral: ephemeral,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Kind names the tier that is authoritative for health reporting.
func (s *TieredStore) Kind() string {
	switch {
	case s.remote != nil:
		return s.remote.Kind()
	case s.ephemeral:
		return "ephemeral-tmp"
	default:
		return s.disk.Kind()
	}
}

// Save stamps bundle.UpdatedAt and persists bundle under its sanitized
// details id.
func (s *TieredStore) Save(ctx context.Context, bundle *models.EventBundle) (Mode, error) {
	if bundle == nil {
		return "", ErrInvalidID
	}
	id, err := SanitizeID(bundle.Details.ID)
	if err != nil {
		return "", err
	}
	bundle.UpdatedAt = s.now()

	if s.remote != nil {
		err := s.remote.Save(ctx, id, bundle)
		if err == nil {
			return ModeServer, nil
		}
		logger.Warningf("Remote save of event %s failed, falling back to %s: %v", id, s.disk.Kind(), err)
	}
	if err := s.disk.Save(ctx, id, bundle); err != nil {
		return "", fmt.Errorf("save event %s: %w", id, err)
	}
	if s.ephemeral {
		return ModeLocal, nil
	}
	return ModeServer, nil
}

// Get returns the most recently saved copy of the event. With a remote tier,
// the disk still holds whatever was written while the remote was failing, so
// both are read and the newer one wins.
func (s *TieredStore) Get(ctx context.Context, id string) (*models.EventBundle, error) {
	safe, err := SanitizeID(id)
	if err != nil {
		return nil, err
	}
	if s.remote == nil {
		return s.disk.Get(ctx, safe)
	}

	remote, err := s.remote.Get(ctx, safe)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logger.Warningf("Remote get of event %s failed, trying %s: %v", safe, s.disk.Kind(), err)
		}
		return s.disk.Get(ctx, safe)
	}

	local, err := s.disk.Get(ctx, safe)
	switch {
	case errors.Is(err, ErrNotFound):
		return remote, nil
	case err != nil:
		logger.Warningf("Disk get of event %s failed, using remote copy: %v", safe, err)
		return remote, nil
	case local.UpdatedAt.After(remote.UpdatedAt):
		return local, nil
	default:
		return remote, nil
	}
}
