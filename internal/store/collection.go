package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/rcliao/openats/internal/kv"
)

// LoadStatus tells how a collection's value was obtained.
type LoadStatus string

const (
	StatusLoaded      LoadStatus = "loaded"
	StatusMissing     LoadStatus = "missing"
	StatusCorrupt     LoadStatus = "corrupt"
	StatusUnavailable LoadStatus = "unavailable"
)

// LoadResult is the outcome of reading a collection. Items is never nil.
// Reason is set for every status except loaded and missing.
type LoadResult[T any] struct {
	Items  []T
	Status LoadStatus
	Reason error
}

// Recovered reports whether Items is the fallback rather than stored data.
func (r LoadResult[T]) Recovered() bool {
	return r.Status != StatusLoaded
}

// Options configures a Collection.
type Options[T any, K comparable] struct {
	// Key is the fixed storage key holding the JSON array.
	Key string
	// IDOf extracts a record's identity.
	IDOf func(T) K
	// SetID restores a record's identity after an update. Optional.
	SetID func(*T, K)
	// Fallback returns the collection used when nothing valid is stored.
	// It must return a fresh slice on every call. Defaults to empty.
	Fallback func() []T
	// Validate runs on every record before it is persisted. Optional.
	Validate func(T) error
	Logger   zerolog.Logger
	Metrics  *Metrics
}

// Collection persists a homogeneous slice of records as one JSON array under
// a single storage key. Every mutation is one full read followed by one full
// write. Mutations within a process are serialized; writers in other
// processes are not coordinated and the last write wins.
type Collection[T any, K comparable] struct {
	storage  kv.Storage
	key      string
	idOf     func(T) K
	setID    func(*T, K)
	fallback func() []T
	validate func(T) error
	log      zerolog.Logger
	metrics  *Metrics

	mu sync.Mutex
}

// New returns a collection over storage. A nil storage behaves as unavailable.
func New[T any, K comparable](storage kv.Storage, opts Options[T, K]) (*Collection[T, K], error) {
	if opts.Key == "" {
		return nil, errors.New("collection key is required")
	}
	if opts.IDOf == nil {
		return nil, errors.New("collection identity function is required")
	}
	if storage == nil {
		storage = kv.Unavailable()
	}
	fallback := opts.Fallback
	if fallback == nil {
		fallback = func() []T { return []T{} }
	}
	return &Collection[T, K]{
		storage:  storage,
		key:      opts.Key,
		idOf:     opts.IDOf,
		setID:    opts.SetID,
		fallback: fallback,
		validate: opts.Validate,
		log:      opts.Logger.With().Str("key", opts.Key).Logger(),
		metrics:  opts.Metrics,
	}, nil
}

// Key returns the storage key.
func (c *Collection[T, K]) Key() string { return c.key }

// Load returns the stored records, or the fallback when storage is
// unavailable or the stored value is missing or malformed. It never fails.
func (c *Collection[T, K]) Load(ctx context.Context) []T {
	return c.LoadResult(ctx).Items
}

// LoadResult is Load with the reason for any recovery attached.
func (c *Collection[T, K]) LoadResult(ctx context.Context) LoadResult[T] {
	res := c.load(ctx)
	c.metrics.observeLoad(c.key, res.Status)
	switch res.Status {
	case StatusCorrupt:
		c.log.Warn().Err(res.Reason).Str("status", string(res.Status)).Msg("stored value is malformed, using fallback")
	case StatusUnavailable:
		c.log.Debug().Err(res.Reason).Str("status", string(res.Status)).Msg("storage unavailable, using fallback")
	case StatusMissing:
		c.log.Debug().Str("status", string(res.Status)).Msg("nothing stored yet, using fallback")
	}
	return res
}

func (c *Collection[T, K]) load(ctx context.Context) LoadResult[T] {
	raw, ok, err := c.storage.Get(ctx, c.key)
	return c.resolve(raw, ok, err)
}

// resolve turns the outcome of one storage read into a LoadResult.
func (c *Collection[T, K]) resolve(raw string, ok bool, err error) LoadResult[T] {
	if err != nil {
		return LoadResult[T]{Items: c.fallback(), Status: StatusUnavailable, Reason: err}
	}
	if !ok {
		return LoadResult[T]{Items: c.fallback(), Status: StatusMissing}
	}

	items, err := decode[T](raw)
	if err != nil {
		return LoadResult[T]{Items: c.fallback(), Status: StatusCorrupt, Reason: err}
	}
	return LoadResult[T]{Items: items, Status: StatusLoaded}
}

func decode[T any](raw string) ([]T, error) {
	b := bytes.TrimSpace([]byte(raw))
	if len(b) == 0 || b[0] != '[' {
		return nil, fmt.Errorf("%w: value is not a JSON array", ErrMalformed)
	}
	var items []T
	if err := json.Unmarshal(b, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// Persist replaces the stored collection with all. Every record is validated
// and identities must be unique.
func (c *Collection[T, K]) Persist(ctx context.Context, all []T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.persist(ctx, all, nil)
}

// persist writes all. Records equal to one in prior, the collection as it
// was read, are taken as already accepted: they skip validation and may keep
// an identity they already shared.
func (c *Collection[T, K]) persist(ctx context.Context, all []T, prior []T) error {
	if err := c.check(all, prior); err != nil {
		c.metrics.observePersist(c.key, resultInvalid)
		return err
	}
	if all == nil {
		all = []T{}
	}
	b, err := json.Marshal(all)
	if err != nil {
		c.metrics.observePersist(c.key, resultError)
		return fmt.Errorf("marshal %s: %w", c.key, err)
	}
	if err := c.storage.Set(ctx, c.key, string(b)); err != nil {
		c.metrics.observePersist(c.key, resultError)
		c.log.Error().Err(err).Msg("persist failed, previous value kept")
		return fmt.Errorf("persist %s: %w", c.key, err)
	}
	c.metrics.observePersist(c.key, resultOK)
	return nil
}

func (c *Collection[T, K]) check(all []T, prior []T) error {
	stored := make(map[K][]T, len(prior))
	for _, rec := range prior {
		id := c.idOf(rec)
		stored[id] = append(stored[id], rec)
	}

	seen := make(map[K]int, len(all))
	for i, rec := range all {
		id := c.idOf(rec)
		seen[id]++
		if seen[id] > 1 && seen[id] > len(stored[id]) {
			return fmt.Errorf("%w: %s[%d]: identity %v appears more than once", ErrDuplicate, c.key, i, id)
		}
		if c.validate == nil || containsEqual(stored[id], rec) {
			continue
		}
		if err := c.validate(rec); err != nil {
			return fmt.Errorf("%w: %s[%d]: %v", ErrInvalidRecord, c.key, i, err)
		}
	}
	return nil
}

func containsEqual[T any](recs []T, rec T) bool {
	for _, r := range recs {
		if reflect.DeepEqual(r, rec) {
			return true
		}
	}
	return false
}

// Mutate runs one read-modify-write cycle. fn receives the current records
// and returns the next collection; when write is false nothing is persisted.
func (c *Collection[T, K]) Mutate(ctx context.Context, fn func(all []T) (next []T, write bool, err error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur := c.LoadResult(ctx)
	switch cur.Status {
	case StatusUnavailable:
		// Writing the fallback back would replace records that could not be read.
		return fmt.Errorf("load %s: %w", c.key, cur.Reason)
	case StatusCorrupt:
		c.log.Warn().Msg("overwriting malformed value")
	}
	var prior []T
	if cur.Status == StatusLoaded {
		prior = slices.Clone(cur.Items)
	}
	next, write, err := fn(cur.Items)
	if err != nil || !write {
		return err
	}
	return c.persist(ctx, next, prior)
}

// Insert appends rec unless a record with the same identity exists, in which
// case the existing record is returned with inserted=false.
func (c *Collection[T, K]) Insert(ctx context.Context, rec T) (T, bool, error) {
	id := c.idOf(rec)
	var existing T
	found := false
	err := c.Mutate(ctx, func(all []T) ([]T, bool, error) {
		if i := c.index(all, id); i >= 0 {
			existing, found = all[i], true
			return nil, false, nil
		}
		return append(all, rec), true, nil
	})
	if err != nil {
		return rec, false, err
	}
	if found {
		return existing, false, nil
	}
	return rec, true, nil
}

// Append adds rec at the end. The caller supplies a fresh identity; a
// duplicate is rejected when the collection is written.
func (c *Collection[T, K]) Append(ctx context.Context, rec T) (T, error) {
	err := c.Mutate(ctx, func(all []T) ([]T, bool, error) {
		return append(all, rec), true, nil
	})
	return rec, err
}

// Prepend adds rec at the front, with the same identity rule as Append.
func (c *Collection[T, K]) Prepend(ctx context.Context, rec T) (T, error) {
	err := c.Mutate(ctx, func(all []T) ([]T, bool, error) {
		return append([]T{rec}, all...), true, nil
	})
	return rec, err
}

// Update applies fn to the first record with identity id and persists the
// collection. The record's identity is restored after fn when SetID is
// configured; otherwise changing it is an error. ok is false when no record
// matched, in which case the collection is written back unchanged.
func (c *Collection[T, K]) Update(ctx context.Context, id K, fn func(*T)) (T, bool, error) {
	var updated T
	found := false
	err := c.Mutate(ctx, func(all []T) ([]T, bool, error) {
		i := c.index(all, id)
		if i < 0 {
			return all, true, nil
		}
		rec := all[i]
		fn(&rec)
		if c.setID != nil {
			c.setID(&rec, id)
		} else if c.idOf(rec) != id {
			return nil, false, fmt.Errorf("%w: %v", ErrIdentityChanged, id)
		}
		all[i] = rec
		updated, found = rec, true
		return all, true, nil
	})
	return updated, found, err
}

// Replace overwrites the record with identity id by rec, keeping id.
func (c *Collection[T, K]) Replace(ctx context.Context, id K, rec T) (T, bool, error) {
	return c.Update(ctx, id, func(cur *T) { *cur = rec })
}

// Remove drops every record with identity id and returns how many went.
// Removing an absent identity is a no-op that still rewrites the value.
func (c *Collection[T, K]) Remove(ctx context.Context, id K) (int, error) {
	return c.RemoveFunc(ctx, func(rec T) bool { return c.idOf(rec) == id })
}

// RemoveFunc drops every record for which pred is true.
func (c *Collection[T, K]) RemoveFunc(ctx context.Context, pred func(T) bool) (int, error) {
	removed := 0
	err := c.Mutate(ctx, func(all []T) ([]T, bool, error) {
		kept := make([]T, 0, len(all))
		for _, rec := range all {
			if pred(rec) {
				removed++
				continue
			}
			kept = append(kept, rec)
		}
		return kept, true, nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// Find returns the first record with identity id.
func (c *Collection[T, K]) Find(ctx context.Context, id K) (T, bool) {
	all := c.Load(ctx)
	if i := c.index(all, id); i >= 0 {
		return all[i], true
	}
	var zero T
	return zero, false
}

// Filter returns the records for which pred is true, in stored order.
func (c *Collection[T, K]) Filter(ctx context.Context, pred func(T) bool) []T {
	out := []T{}
	for _, rec := range c.Load(ctx) {
		if pred(rec) {
			out = append(out, rec)
		}
	}
	return out
}

func (c *Collection[T, K]) index(all []T, id K) int {
	for i, rec := range all {
		if c.idOf(rec) == id {
			return i
		}
	}
	return -1
}
