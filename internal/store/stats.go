package store

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/rcliao/openats/internal/kv"
)

// Stats holds storage statistics.
type Stats struct {
	Collections []KeyStats `json:"collections"`
	OtherKeys   []string   `json:"other_keys,omitempty"`
}

// KeyStats describes one collection's stored value. Records counts stored
// records only, so a fallback in use reports zero.
type KeyStats struct {
	Key       string     `json:"key"`
	Present   bool       `json:"present"`
	Bytes     int        `json:"bytes"`
	Records   int        `json:"records"`
	Status    LoadStatus `json:"status"`
	Reason    string     `json:"reason,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Stats returns per-collection statistics plus any unrelated keys found in
// the storage.
func (s *Stores) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{
		Collections: []KeyStats{
			keyStats(ctx, s.Archive.c),
			keyStats(ctx, s.Templates.c),
			keyStats(ctx, s.Candidates.c),
		},
	}

	keys, err := s.storage.Keys(ctx)
	if err != nil {
		return st, fmt.Errorf("list keys: %w", err)
	}
	known := []string{ArchiveKey, TemplatesKey, CandidatesKey}
	for _, k := range keys {
		if !slices.Contains(known, k) {
			st.OtherKeys = append(st.OtherKeys, k)
		}
	}
	return st, nil
}

func keyStats[T any, K comparable](ctx context.Context, c *Collection[T, K]) KeyStats {
	raw, ok, err := c.storage.Get(ctx, c.key)
	res := c.resolve(raw, ok, err)
	ks := KeyStats{
		Key:     c.key,
		Present: err == nil && ok,
		Status:  res.Status,
	}
	if ks.Present {
		ks.Bytes = len(raw)
	}
	if res.Status == StatusLoaded {
		ks.Records = len(res.Items)
	}
	if res.Reason != nil {
		ks.Reason = res.Reason.Error()
	}
	if ts, isTimed := c.storage.(kv.Timestamped); isTimed && ks.Present {
		if at, found, err := ts.UpdatedAt(ctx, c.key); err == nil && found {
			ks.UpdatedAt = &at
		}
	}
	return ks
}
