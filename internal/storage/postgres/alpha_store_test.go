package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alphaminer/internal/domain"
	"alphaminer/internal/storage"
)

func TestAlphaStore_InsertAndAll(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAlphaStore(pool)
	ctx := context.Background()

	second := &domain.MinedAlpha{
		Fingerprint: "fp2",
		Expression:  "rank(volume)",
		Decision:    "HOPEFUL",
		Result: domain.AlphaResult{
			AlphaID: "A2", Sharpe: 1.1, Fitness: 0.95, Turnover: 0.2, Returns: 0.08,
		},
		Iteration: 7,
		FoundAt:   2000,
	}
	first := &domain.MinedAlpha{
		Fingerprint: "fp1",
		Expression:  "rank(ts_delta(close, 21))",
		Hypothesis:  "monthly momentum persists",
		Decision:    "ACCEPT",
		Result: domain.AlphaResult{
			AlphaID: "A1", Sharpe: 1.3, Fitness: 1.05, Turnover: 0.35, Returns: 0.12,
			LongCount: 420, ShortCount: 390,
		},
		Iteration: 3,
		FoundAt:   1000,
	}

	require.NoError(t, store.Insert(ctx, second))
	require.NoError(t, store.Insert(ctx, first))

	all, err := store.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	assert.Equal(t, "fp1", all[0].Fingerprint)
	assert.Equal(t, "A1", all[0].Result.AlphaID)
	assert.Equal(t, 1.3, all[0].Result.Sharpe)
	assert.Equal(t, 420, all[0].Result.LongCount)
	assert.Equal(t, "monthly momentum persists", all[0].Hypothesis)
	assert.Equal(t, "fp2", all[1].Fingerprint)
}

func TestAlphaStore_DuplicateFingerprint(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAlphaStore(pool)
	ctx := context.Background()

	a := &domain.MinedAlpha{
		Fingerprint: "fp1",
		Expression:  "rank(close)",
		Decision:    "ACCEPT",
		FoundAt:     1000,
	}
	require.NoError(t, store.Insert(ctx, a))

	err := store.Insert(ctx, a)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestAlphaStore_InsertInvalidInput(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAlphaStore(pool)
	err := store.Insert(context.Background(), &domain.MinedAlpha{})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}
