package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/openats/internal/kv"
	"github.com/rcliao/openats/internal/model"
)

func TestArchive_FreshLoadIsEmpty(t *testing.T) {
	s := newTestStores(t)
	res := s.Archive.LoadResult(context.Background())
	assert.Equal(t, StatusMissing, res.Status)
	assert.Empty(t, res.Items)
}

func TestArchive_AddStampsTimeAndIgnoresDuplicates(t *testing.T) {
	ctx := context.Background()
	s := newTestStores(t)

	entry, added, err := s.Archive.Archive(ctx, ArchiveInput{ID: "job1", Type: model.ArchiveJob, Name: "Designer", Detail: "Design"})
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, "2026-03-14T09:26:53.589Z", entry.ArchivedAt)

	got := s.Archive.Load(ctx)
	require.Len(t, got, 1)
	assert.Equal(t, entry, got[0])

	again, added, err := s.Archive.Archive(ctx, ArchiveInput{ID: "job1", Type: model.ArchiveJob, Name: "Other"})
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, "Designer", again.Name)
	assert.Len(t, s.Archive.Load(ctx), 1)
}

func TestArchive_IdentityIsIDAndType(t *testing.T) {
	ctx := context.Background()
	s := newTestStores(t)

	for _, typ := range []model.ArchiveType{model.ArchiveJob, model.ArchiveCandidate, model.ArchiveOffer} {
		_, added, err := s.Archive.Archive(ctx, ArchiveInput{ID: "42", Type: typ, Name: string(typ)})
		require.NoError(t, err)
		assert.True(t, added)
	}
	assert.Len(t, s.Archive.Load(ctx), 3)

	cands := s.Archive.Archived(ctx, model.ArchiveCandidate)
	require.Len(t, cands, 1)
	assert.Equal(t, "candidate", cands[0].Name)
	assert.Empty(t, s.Archive.Archived(ctx, "unknown"))
	assert.Len(t, s.Archive.Archived(ctx, ""), 3)

	require.NoError(t, s.Archive.PermanentlyDelete(ctx, "42", model.ArchiveJob))
	require.NoError(t, s.Archive.PermanentlyDelete(ctx, "42", model.ArchiveJob))
	got := s.Archive.Load(ctx)
	require.Len(t, got, 2)
	assert.Equal(t, model.ArchiveCandidate, got[0].Type)
	assert.Equal(t, model.ArchiveOffer, got[1].Type)
}

func TestArchive_RejectsUnknownType(t *testing.T) {
	ctx := context.Background()
	s := newTestStores(t)

	_, _, err := s.Archive.Archive(ctx, ArchiveInput{ID: "1", Type: "invoice", Name: "x"})
	assert.ErrorIs(t, err, ErrInvalidRecord)
	assert.Empty(t, s.Archive.Load(ctx))
}

func TestArchive_CorruptValueFallsBackToEmpty(t *testing.T) {
	ctx := context.Background()
	s, storage := newMemoryStores(t)
	require.NoError(t, storage.Set(ctx, ArchiveKey, `{"id":"1"}`))

	res := s.Archive.LoadResult(ctx)
	assert.Equal(t, StatusCorrupt, res.Status)
	assert.Empty(t, res.Items)
}

func TestArchive_ReadFailureKeepsEntries(t *testing.T) {
	ctx := context.Background()
	storage := &flakyStorage{Storage: kv.NewMemoryStorage(), err: errors.New("database is locked")}
	s, err := Open(storage, Config{Now: fixedClock})
	require.NoError(t, err)

	for _, id := range []string{"a", "b", "c"} {
		_, _, err := s.Archive.Archive(ctx, ArchiveInput{ID: id, Type: model.ArchiveJob, Name: id})
		require.NoError(t, err)
	}

	storage.failures = 1
	assert.Error(t, s.Archive.PermanentlyDelete(ctx, "zzz", model.ArchiveJob))
	assert.Len(t, s.Archive.Load(ctx), 3)
}
