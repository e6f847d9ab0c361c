package store

import (
	"context"
	"time"

	"github.com/rcliao/openats/internal/kv"
	"github.com/rcliao/openats/internal/model"
)

// isoMillis matches the timestamps browsers produce for archived items.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// ArchiveInput is an archive entry before it is stamped.
type ArchiveInput struct {
	ID     string
	Type   model.ArchiveType
	Name   string
	Detail string
}

// ArchiveStore keeps archived jobs, candidates and offers.
type ArchiveStore struct {
	c   *Collection[model.ArchiveEntry, model.ArchiveKey]
	now func() time.Time
}

// NewArchiveStore returns the archive store over storage.
func NewArchiveStore(storage kv.Storage, cfg Config) (*ArchiveStore, error) {
	c, err := New(storage, Options[model.ArchiveEntry, model.ArchiveKey]{
		Key:  ArchiveKey,
		IDOf: model.ArchiveEntry.Key,
		SetID: func(e *model.ArchiveEntry, k model.ArchiveKey) {
			e.ID, e.Type = k.ID, k.Type
		},
		Validate: func(e model.ArchiveEntry) error { return model.Validate(e) },
		Logger:   cfg.Logger,
		Metrics:  cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}
	return &ArchiveStore{c: c, now: cfg.now()}, nil
}

// Load returns every archived entry.
func (s *ArchiveStore) Load(ctx context.Context) []model.ArchiveEntry {
	return s.c.Load(ctx)
}

// LoadResult returns every archived entry with the load outcome.
func (s *ArchiveStore) LoadResult(ctx context.Context) LoadResult[model.ArchiveEntry] {
	return s.c.LoadResult(ctx)
}

// Archive stores in stamped with the current time. Archiving an (id, type)
// pair that is already present does nothing and returns the stored entry
// with added=false.
func (s *ArchiveStore) Archive(ctx context.Context, in ArchiveInput) (model.ArchiveEntry, bool, error) {
	entry := model.ArchiveEntry{
		ID:         in.ID,
		Type:       in.Type,
		Name:       in.Name,
		Detail:     in.Detail,
		ArchivedAt: s.now().UTC().Format(isoMillis),
	}
	return s.c.Insert(ctx, entry)
}

// Archived returns the entries of type typ in stored order, or all entries
// when typ is empty.
func (s *ArchiveStore) Archived(ctx context.Context, typ model.ArchiveType) []model.ArchiveEntry {
	if typ == "" {
		return s.c.Load(ctx)
	}
	return s.c.Filter(ctx, func(e model.ArchiveEntry) bool { return e.Type == typ })
}

// PermanentlyDelete removes the entry identified by (id, typ).
func (s *ArchiveStore) PermanentlyDelete(ctx context.Context, id string, typ model.ArchiveType) error {
	_, err := s.c.Remove(ctx, model.ArchiveKey{ID: id, Type: typ})
	return err
}
