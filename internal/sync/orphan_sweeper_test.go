package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backcheck-service/internal/profile"
	"backcheck-service/internal/store"
	"backcheck-service/pkg/models"
)

type fakeDeleter struct {
	deleted []string
	err     error
}

func (f *fakeDeleter) DeletePrincipal(_ context.Context, uid string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, uid)
	return nil
}

var sweepNow = time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)

func queueOrphan(t *testing.T, s store.DocumentStore, uid string) {
	t.Helper()
	rec := models.OrphanRecord{UID: uid, Email: uid + "@example.com", Reason: "test", CreatedAt: sweepNow}
	require.NoError(t, s.Put(context.Background(), store.Orphans, uid, rec.Document()))
}

func newSweeper(mem *store.Memory, deleter *fakeDeleter) *OrphanSweeper {
	s := NewOrphanSweeper(mem, deleter, profile.NewRepository(mem, nil), time.Minute)
	s.now = func() time.Time { return sweepNow }
	return s
}

func TestSweepDeletesOrphans(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	queueOrphan(t, mem, "u1")
	queueOrphan(t, mem, "u2")
	deleter := &fakeDeleter{}

	resolved, err := newSweeper(mem, deleter).SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, resolved)
	assert.ElementsMatch(t, []string{"u1", "u2"}, deleter.deleted)

	left, err := mem.Query(ctx, store.Query{Collection: store.Orphans})
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestSweepKeepsPrincipalWithProfile(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	queueOrphan(t, mem, "u1")
	require.NoError(t, mem.Put(ctx, store.Users, "u1", store.Document{
		"uid": "u1", "role": "employer", "email": "u1@example.com",
	}))
	deleter := &fakeDeleter{}

	resolved, err := newSweeper(mem, deleter).SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, resolved)
	assert.Empty(t, deleter.deleted)
}

func TestSweepCountsFailedAttempts(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	queueOrphan(t, mem, "u1")
	sweeper := newSweeper(mem, &fakeDeleter{err: errors.New("unavailable")})

	for i := 0; i < 2; i++ {
		resolved, err := sweeper.SweepOnce(ctx)
		require.NoError(t, err)
		assert.Zero(t, resolved)
	}

	doc, err := mem.Get(ctx, store.Orphans, "u1")
	require.NoError(t, err)
	rec, err := models.DecodeOrphan(doc)
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Attempts)
}

func TestSweepRecordsLastRun(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	sweeper := newSweeper(mem, &fakeDeleter{})

	last, err := sweeper.LastSweep(ctx)
	require.NoError(t, err)
	assert.True(t, last.IsZero())

	_, err = sweeper.SweepOnce(ctx)
	require.NoError(t, err)

	last, err = sweeper.LastSweep(ctx)
	require.NoError(t, err)
	assert.True(t, last.Equal(sweepNow))
}
