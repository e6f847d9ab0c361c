// Package store provides persisted collection stores for archived items,
// message templates and submitted candidates.
package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rcliao/openats/internal/kv"
)

var (
	// ErrNotFound is returned when a record addressed by identity does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a new record reuses an existing identity.
	ErrDuplicate = errors.New("record already exists")
	// ErrInvalidRecord wraps validation failures raised before a write.
	ErrInvalidRecord = errors.New("invalid record")
	// ErrMalformed describes a stored value that is not a JSON array of records.
	ErrMalformed = errors.New("malformed stored value")
	// ErrIdentityChanged is returned when an update rewrites a record's identity.
	ErrIdentityChanged = errors.New("update changed record identity")
)

// Storage keys, one per collection. They must stay stable across releases.
const (
	ArchiveKey    = "openats_archive"
	TemplatesKey  = "openats_templates"
	CandidatesKey = "openats_candidates"
)

// Config holds what every domain store is constructed with.
type Config struct {
	Logger  zerolog.Logger
	Metrics *Metrics
	// Now defaults to time.Now.
	Now func() time.Time
}

func (c Config) now() func() time.Time {
	if c.Now != nil {
		return c.Now
	}
	return time.Now
}

// Stores bundles the three domain stores sharing one storage.
type Stores struct {
	Archive    *ArchiveStore
	Templates  *TemplateStore
	Candidates *CandidateStore

	storage kv.Storage
}

// Open builds all domain stores over storage.
func Open(storage kv.Storage, cfg Config) (*Stores, error) {
	if storage == nil {
		storage = kv.Unavailable()
	}
	archive, err := NewArchiveStore(storage, cfg)
	if err != nil {
		return nil, fmt.Errorf("archive store: %w", err)
	}
	templates, err := NewTemplateStore(storage, cfg)
	if err != nil {
		return nil, fmt.Errorf("template store: %w", err)
	}
	candidates, err := NewCandidateStore(storage, cfg)
	if err != nil {
		return nil, fmt.Errorf("candidate store: %w", err)
	}
	return &Stores{
		Archive:    archive,
		Templates:  templates,
		Candidates: candidates,
		storage:    storage,
	}, nil
}

// Storage returns the underlying key-value storage.
func (s *Stores) Storage() kv.Storage { return s.storage }

// Close closes the underlying storage.
func (s *Stores) Close() error {
	return s.storage.Close()
}
