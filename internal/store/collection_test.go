package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/openats/internal/kv"
)

type note struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

const notesKey = "notes"

func newNotes(t *testing.T, storage kv.Storage, opts ...func(*Options[note, int])) *Collection[note, int] {
	t.Helper()
	o := Options[note, int]{
		Key:   notesKey,
		IDOf:  func(n note) int { return n.ID },
		SetID: func(n *note, id int) { n.ID = id },
	}
	for _, fn := range opts {
		fn(&o)
	}
	c, err := New(storage, o)
	require.NoError(t, err)
	return c
}

// failingStorage fails every Set with err while reads go through.
type failingStorage struct {
	kv.Storage
	err error
}

func (f *failingStorage) Set(context.Context, string, string) error { return f.err }

func TestNew_RequiresKeyAndIdentity(t *testing.T) {
	_, err := New(kv.NewMemoryStorage(), Options[note, int]{IDOf: func(n note) int { return n.ID }})
	assert.Error(t, err)
	_, err = New(kv.NewMemoryStorage(), Options[note, int]{Key: notesKey})
	assert.Error(t, err)
}

func TestPersistLoad_RoundTripPreservesOrder(t *testing.T) {
	ctx := context.Background()
	c := newNotes(t, kv.NewMemoryStorage())

	want := []note{{ID: 3, Text: "c"}, {ID: 1, Text: "a"}, {ID: 2, Text: "b"}}
	require.NoError(t, c.Persist(ctx, want))

	res := c.LoadResult(ctx)
	assert.Equal(t, StatusLoaded, res.Status)
	assert.False(t, res.Recovered())
	assert.Equal(t, want, res.Items)
}

func TestPersist_EmptyIsArrayNotNull(t *testing.T) {
	ctx := context.Background()
	storage := kv.NewMemoryStorage()
	c := newNotes(t, storage)

	require.NoError(t, c.Persist(ctx, nil))
	raw, ok, _ := storage.Get(ctx, notesKey)
	require.True(t, ok)
	assert.Equal(t, "[]", raw)

	res := c.LoadResult(ctx)
	assert.Equal(t, StatusLoaded, res.Status)
	assert.NotNil(t, res.Items)
	assert.Empty(t, res.Items)
}

func TestLoad_MissingUsesFallback(t *testing.T) {
	c := newNotes(t, kv.NewMemoryStorage(), func(o *Options[note, int]) {
		o.Fallback = func() []note { return []note{{ID: 1, Text: "seed"}} }
	})
	res := c.LoadResult(context.Background())
	assert.Equal(t, StatusMissing, res.Status)
	assert.True(t, res.Recovered())
	assert.NoError(t, res.Reason)
	assert.Equal(t, []note{{ID: 1, Text: "seed"}}, res.Items)
}

func TestLoad_CorruptValuesRecoverToFallback(t *testing.T) {
	ctx := context.Background()
	cases := []string{"not json", `{"id":1}`, "null", `"text"`, `[{"id":"x"}]`, "", "[1,"}

	for _, raw := range cases {
		t.Run(fmt.Sprintf("%q", raw), func(t *testing.T) {
			storage := kv.NewMemoryStorage()
			require.NoError(t, storage.Set(ctx, notesKey, raw))
			c := newNotes(t, storage)

			res := c.LoadResult(ctx)
			assert.Equal(t, StatusCorrupt, res.Status)
			assert.ErrorIs(t, res.Reason, ErrMalformed)
			assert.NotNil(t, res.Items)
			assert.Empty(t, res.Items)
			assert.Empty(t, c.Load(ctx))
		})
	}
}

func TestLoad_CorruptIsLoggedAsWarning(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	storage := kv.NewMemoryStorage()
	require.NoError(t, storage.Set(ctx, notesKey, "not json"))

	c := newNotes(t, storage, func(o *Options[note, int]) {
		o.Logger = zerolog.New(&buf).Level(zerolog.DebugLevel)
	})
	c.Load(ctx)

	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), `"key":"notes"`)
	assert.Contains(t, buf.String(), `"status":"corrupt"`)
}

func TestLoad_UnavailableStorage(t *testing.T) {
	ctx := context.Background()
	c := newNotes(t, nil)

	res := c.LoadResult(ctx)
	assert.Equal(t, StatusUnavailable, res.Status)
	assert.ErrorIs(t, res.Reason, kv.ErrUnavailable)
	assert.Empty(t, res.Items)

	_, err := c.Append(ctx, note{ID: 1})
	assert.ErrorIs(t, err, kv.ErrUnavailable)
}

func TestPersist_FailureKeepsPreviousValue(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemoryStorage()
	require.NoError(t, newNotes(t, mem).Persist(ctx, []note{{ID: 1, Text: "kept"}}))

	boom := errors.New("quota exceeded")
	c := newNotes(t, &failingStorage{Storage: mem, err: boom})

	_, err := c.Append(ctx, note{ID: 2, Text: "lost"})
	require.ErrorIs(t, err, boom)

	assert.Equal(t, []note{{ID: 1, Text: "kept"}}, c.Load(ctx))
}

func TestPersist_ValidationRejectsWholeWrite(t *testing.T) {
	ctx := context.Background()
	c := newNotes(t, kv.NewMemoryStorage(), func(o *Options[note, int]) {
		o.Validate = func(n note) error {
			if n.Text == "" {
				return errors.New("text required")
			}
			return nil
		}
	})
	require.NoError(t, c.Persist(ctx, []note{{ID: 1, Text: "ok"}}))

	err := c.Persist(ctx, []note{{ID: 1, Text: "ok"}, {ID: 2}})
	assert.ErrorIs(t, err, ErrInvalidRecord)
	assert.Equal(t, []note{{ID: 1, Text: "ok"}}, c.Load(ctx))
}

func TestInsert_DuplicateIdentityIsNoop(t *testing.T) {
	ctx := context.Background()
	c := newNotes(t, kv.NewMemoryStorage())

	got, added, err := c.Insert(ctx, note{ID: 1, Text: "first"})
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, "first", got.Text)

	got, added, err = c.Insert(ctx, note{ID: 1, Text: "second"})
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, "first", got.Text)

	assert.Equal(t, []note{{ID: 1, Text: "first"}}, c.Load(ctx))
}

func TestAppendPrepend(t *testing.T) {
	ctx := context.Background()
	c := newNotes(t, kv.NewMemoryStorage())

	_, err := c.Append(ctx, note{ID: 1})
	require.NoError(t, err)
	_, err = c.Append(ctx, note{ID: 2})
	require.NoError(t, err)
	_, err = c.Prepend(ctx, note{ID: 0})
	require.NoError(t, err)

	assert.Equal(t, []note{{ID: 0}, {ID: 1}, {ID: 2}}, c.Load(ctx))
}

func TestUpdate_PreservesIdentity(t *testing.T) {
	ctx := context.Background()
	c := newNotes(t, kv.NewMemoryStorage())
	require.NoError(t, c.Persist(ctx, []note{{ID: 1, Text: "a"}, {ID: 2, Text: "b"}}))

	got, ok, err := c.Replace(ctx, 2, note{ID: 99, Text: "B"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, note{ID: 2, Text: "B"}, got)
	assert.Equal(t, []note{{ID: 1, Text: "a"}, {ID: 2, Text: "B"}}, c.Load(ctx))

	_, ok, err = c.Update(ctx, 42, func(n *note) { n.Text = "x" })
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []note{{ID: 1, Text: "a"}, {ID: 2, Text: "B"}}, c.Load(ctx))
}

func TestUpdate_WithoutSetIDRejectsIdentityChange(t *testing.T) {
	ctx := context.Background()
	c := newNotes(t, kv.NewMemoryStorage(), func(o *Options[note, int]) { o.SetID = nil })
	require.NoError(t, c.Persist(ctx, []note{{ID: 1, Text: "a"}}))

	_, _, err := c.Update(ctx, 1, func(n *note) { n.ID = 7 })
	assert.ErrorIs(t, err, ErrIdentityChanged)
	assert.Equal(t, []note{{ID: 1, Text: "a"}}, c.Load(ctx))
}

func TestRemove_Idempotent(t *testing.T) {
	ctx := context.Background()
	c := newNotes(t, kv.NewMemoryStorage())
	require.NoError(t, c.Persist(ctx, []note{{ID: 1}, {ID: 2}}))

	n, err := c.Remove(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	for i := 0; i < 2; i++ {
		n, err = c.Remove(ctx, 1)
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Equal(t, []note{{ID: 2}}, c.Load(ctx))
	}
}

func TestFindFilter(t *testing.T) {
	ctx := context.Background()
	c := newNotes(t, kv.NewMemoryStorage())
	require.NoError(t, c.Persist(ctx, []note{{ID: 1, Text: "x"}, {ID: 2, Text: "y"}, {ID: 3, Text: "x"}}))

	got, ok := c.Find(ctx, 2)
	assert.True(t, ok)
	assert.Equal(t, "y", got.Text)
	_, ok = c.Find(ctx, 9)
	assert.False(t, ok)

	xs := c.Filter(ctx, func(n note) bool { return n.Text == "x" })
	assert.Equal(t, []note{{ID: 1, Text: "x"}, {ID: 3, Text: "x"}}, xs)
	assert.NotNil(t, c.Filter(ctx, func(note) bool { return false }))
}

func TestMutate_CorruptValueIsOverwritten(t *testing.T) {
	ctx := context.Background()
	storage := kv.NewMemoryStorage()
	require.NoError(t, storage.Set(ctx, notesKey, "not json"))
	c := newNotes(t, storage)

	_, err := c.Append(ctx, note{ID: 1})
	require.NoError(t, err)

	res := c.LoadResult(ctx)
	assert.Equal(t, StatusLoaded, res.Status)
	assert.Equal(t, []note{{ID: 1}}, res.Items)
}

func TestMutate_SerializesWritersInProcess(t *testing.T) {
	ctx := context.Background()
	c := newNotes(t, kv.NewMemoryStorage())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			_, _ = c.Append(ctx, note{ID: id})
		}(i)
	}
	wg.Wait()

	assert.Len(t, c.Load(ctx), 50)
}

func TestLastWriterWinsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	storage := kv.NewMemoryStorage()
	tabA := newNotes(t, storage)
	tabB := newNotes(t, storage)

	snapshotA := tabA.Load(ctx)
	_, err := tabB.Append(ctx, note{ID: 1, Text: "from b"})
	require.NoError(t, err)

	// A writes the state it read before B's change.
	require.NoError(t, tabA.Persist(ctx, append(snapshotA, note{ID: 2, Text: "from a"})))

	assert.Equal(t, []note{{ID: 2, Text: "from a"}}, tabB.Load(ctx))
}

func TestMetrics(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	storage := kv.NewMemoryStorage()
	c := newNotes(t, storage, func(o *Options[note, int]) { o.Metrics = m })

	c.Load(ctx)
	_, err := c.Append(ctx, note{ID: 1})
	require.NoError(t, err)
	c.Load(ctx)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.loads.WithLabelValues(notesKey, string(StatusMissing))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.loads.WithLabelValues(notesKey, string(StatusLoaded))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.persists.WithLabelValues(notesKey, resultOK)))

	var nilMetrics *Metrics
	assert.NotPanics(t, func() { nilMetrics.observeLoad("k", StatusLoaded) })
}

// flakyStorage fails the next `failures` reads with err.
type flakyStorage struct {
	kv.Storage
	failures int
	err      error
}

func (f *flakyStorage) Get(ctx context.Context, key string) (string, bool, error) {
	if f.failures > 0 {
		f.failures--
		return "", false, f.err
	}
	return f.Storage.Get(ctx, key)
}

func TestMutate_ReadErrorAbortsWithoutWriting(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("database is locked")
	storage := &flakyStorage{Storage: kv.NewMemoryStorage(), err: boom}
	c := newNotes(t, storage)
	want := []note{{ID: 1}, {ID: 2}, {ID: 3}}
	require.NoError(t, c.Persist(ctx, want))

	storage.failures = 1
	_, err := c.Remove(ctx, 99)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, want, c.Load(ctx))

	storage.failures = 1
	_, err = c.Append(ctx, note{ID: 4})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, want, c.Load(ctx))

	storage.failures = 1
	res := c.LoadResult(ctx)
	assert.Equal(t, StatusUnavailable, res.Status)
	assert.Empty(t, res.Items)
}

func TestMutate_StoredInvalidRecordDoesNotBlockOtherWrites(t *testing.T) {
	ctx := context.Background()
	storage := kv.NewMemoryStorage()
	require.NoError(t, storage.Set(ctx, notesKey, `[{"id":1,"text":""}]`))
	c := newNotes(t, storage, func(o *Options[note, int]) {
		o.Validate = func(n note) error {
			if n.Text == "" {
				return errors.New("text required")
			}
			return nil
		}
	})

	_, err := c.Append(ctx, note{ID: 2, Text: "fine"})
	require.NoError(t, err)
	assert.Equal(t, []note{{ID: 1}, {ID: 2, Text: "fine"}}, c.Load(ctx))

	// A record the operation changes is validated again.
	_, _, err = c.Replace(ctx, 2, note{Text: ""})
	assert.ErrorIs(t, err, ErrInvalidRecord)
	_, err = c.Append(ctx, note{ID: 3})
	assert.ErrorIs(t, err, ErrInvalidRecord)
	assert.Len(t, c.Load(ctx), 2)

	// A full replace validates everything it is given.
	assert.ErrorIs(t, c.Persist(ctx, c.Load(ctx)), ErrInvalidRecord)
}

func TestPersist_RejectsDuplicateIdentity(t *testing.T) {
	ctx := context.Background()
	c := newNotes(t, kv.NewMemoryStorage())
	require.NoError(t, c.Persist(ctx, []note{{ID: 1, Text: "a"}}))

	err := c.Persist(ctx, []note{{ID: 2}, {ID: 2}})
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = c.Append(ctx, note{ID: 1, Text: "again"})
	assert.ErrorIs(t, err, ErrDuplicate)
	_, err = c.Prepend(ctx, note{ID: 1, Text: "again"})
	assert.ErrorIs(t, err, ErrDuplicate)

	assert.Equal(t, []note{{ID: 1, Text: "a"}}, c.Load(ctx))
}

func TestMutate_ToleratesDuplicatesAlreadyStored(t *testing.T) {
	ctx := context.Background()
	storage := kv.NewMemoryStorage()
	require.NoError(t, storage.Set(ctx, notesKey, `[{"id":1,"text":"a"},{"id":1,"text":"b"}]`))
	c := newNotes(t, storage)

	_, err := c.Append(ctx, note{ID: 2})
	require.NoError(t, err)
	assert.Len(t, c.Load(ctx), 3)

	n, err := c.Remove(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []note{{ID: 2}}, c.Load(ctx))
}
