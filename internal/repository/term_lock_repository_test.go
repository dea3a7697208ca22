package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTermLockRepositoryLocalExclusive(t *testing.T) {
	repo := NewTermLockRepository(nil, nil)
	ctx := context.Background()

	lease, ok, err := repo.Acquire(ctx, "term-1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = repo.Acquire(ctx, "term-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second acquire must fail while held")

	_, ok, err = repo.Acquire(ctx, "term-2", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "locks are per term")

	require.NoError(t, lease.Release(ctx))
	_, ok, err = repo.Acquire(ctx, "term-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTermLockRepositoryLocalExpiry(t *testing.T) {
	repo := NewTermLockRepository(nil, nil)
	now := time.Date(2026, 1, 5, 7, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }
	ctx := context.Background()

	stale, ok, err := repo.Acquire(ctx, "term-1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok, err = repo.Acquire(ctx, "term-1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok, "expired lock can be taken over")

	require.NoError(t, stale.Release(ctx))
	_, ok, err = repo.Acquire(ctx, "term-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "stale release must not drop the new holder")
}

func TestTermLockRepositoryLocalExtend(t *testing.T) {
	repo := NewTermLockRepository(nil, nil)
	now := time.Date(2026, 1, 5, 7, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }
	ctx := context.Background()

	lease, ok, err := repo.Acquire(ctx, "term-1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	now = now.Add(50 * time.Second)
	extended, err := lease.Extend(ctx, time.Minute)
	require.NoError(t, err)
	assert.True(t, extended)

	now = now.Add(50 * time.Second)
	_, ok, err = repo.Acquire(ctx, "term-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "extended lease is still held past the original ttl")
}

func TestTermLockRepositoryLocalExtendAfterTakeover(t *testing.T) {
	repo := NewTermLockRepository(nil, nil)
	now := time.Date(2026, 1, 5, 7, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }
	ctx := context.Background()

	stale, ok, err := repo.Acquire(ctx, "term-1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	now = now.Add(2 * time.Minute)
	extended, err := stale.Extend(ctx, time.Minute)
	require.NoError(t, err)
	assert.False(t, extended, "expired lease cannot be revived")

	_, ok, err = repo.Acquire(ctx, "term-1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	extended, err = stale.Extend(ctx, time.Minute)
	require.NoError(t, err)
	assert.False(t, extended, "lease lost to a new holder")
}
