package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"alphaminer/internal/domain"
	"alphaminer/internal/storage"
)

func TestHistoryStore_RecordAndGet(t *testing.T) {
	store := NewHistoryStore()
	ctx := context.Background()

	rec := &domain.ExpressionRecord{
		Fingerprint: "fp1",
		ShortID:     "abc",
		Expression:  "rank(close)",
		FirstSeen:   1704067200000,
		LastSeen:    1704067200000,
		BestSharpe:  1.1,
		BestFitness: 0.9,
		Status:      domain.StatusHopeful,
	}

	if err := store.Record(ctx, rec); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	got, err := store.Get(ctx, "fp1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if got.Expression != rec.Expression {
		t.Errorf("Expression mismatch: got %s, want %s", got.Expression, rec.Expression)
	}
	if got.TestCount != 1 {
		t.Errorf("TestCount should default to 1 on first record, got %d", got.TestCount)
	}
}

func TestHistoryStore_RepeatRecordUpdates(t *testing.T) {
	store := NewHistoryStore()
	ctx := context.Background()

	first := &domain.ExpressionRecord{
		Fingerprint: "fp1",
		Expression:  "rank(close)",
		FirstSeen:   1000,
		LastSeen:    1000,
		BestSharpe:  0.8,
		BestFitness: 0.5,
		Status:      domain.StatusRejected,
	}
	if err := store.Record(ctx, first); err != nil {
		t.Fatalf("first Record failed: %v", err)
	}

	second := &domain.ExpressionRecord{
		Fingerprint: "fp1",
		Expression:  "RANK( close )", // same fingerprint, different text
		FirstSeen:   2000,
		LastSeen:    2000,
		BestSharpe:  1.4,
		BestFitness: 0.4, // worse than first, must not replace best
		Status:      domain.StatusHopeful,
	}
	if err := store.Record(ctx, second); err != nil {
		t.Fatalf("second Record failed: %v", err)
	}

	got, err := store.Get(ctx, "fp1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if got.TestCount != 2 {
		t.Errorf("TestCount: got %d, want 2", got.TestCount)
	}
	if got.FirstSeen != 1000 {
		t.Errorf("FirstSeen must be preserved: got %d, want 1000", got.FirstSeen)
	}
	if got.LastSeen != 2000 {
		t.Errorf("LastSeen: got %d, want 2000", got.LastSeen)
	}
	if got.Expression != "rank(close)" {
		t.Errorf("original expression must be preserved: got %s", got.Expression)
	}
	if got.BestSharpe != 1.4 {
		t.Errorf("BestSharpe: got %f, want 1.4", got.BestSharpe)
	}
	if got.BestFitness != 0.5 {
		t.Errorf("BestFitness must keep maximum: got %f, want 0.5", got.BestFitness)
	}
	if got.Status != domain.StatusHopeful {
		t.Errorf("Status: got %s, want %s", got.Status, domain.StatusHopeful)
	}
}

func TestHistoryStore_GetNotFound(t *testing.T) {
	store := NewHistoryStore()

	_, err := store.Get(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestHistoryStore_Exists(t *testing.T) {
	store := NewHistoryStore()
	ctx := context.Background()

	ok, err := store.Exists(ctx, "fp1")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if ok {
		t.Error("Exists should be false before Record")
	}

	if err := store.Record(ctx, &domain.ExpressionRecord{Fingerprint: "fp1", Expression: "x"}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	ok, err = store.Exists(ctx, "fp1")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !ok {
		t.Error("Exists should be true after Record")
	}
}

func TestHistoryStore_AllOrderedByFirstSeen(t *testing.T) {
	store := NewHistoryStore()
	ctx := context.Background()

	for _, rec := range []*domain.ExpressionRecord{
		{Fingerprint: "fp3", Expression: "c", FirstSeen: 3000},
		{Fingerprint: "fp1", Expression: "a", FirstSeen: 1000},
		{Fingerprint: "fp2", Expression: "b", FirstSeen: 2000},
	} {
		if err := store.Record(ctx, rec); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	all, err := store.All(ctx)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 records, got %d", len(all))
	}
	for i, want := range []string{"fp1", "fp2", "fp3"} {
		if all[i].Fingerprint != want {
			t.Errorf("position %d: got %s, want %s", i, all[i].Fingerprint, want)
		}
	}
}

func TestHistoryStore_InvalidInput(t *testing.T) {
	store := NewHistoryStore()

	err := store.Record(context.Background(), &domain.ExpressionRecord{})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestHistoryStore_ConcurrentRecord(t *testing.T) {
	store := NewHistoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Record(ctx, &domain.ExpressionRecord{
				Fingerprint: "fp1",
				Expression:  "rank(close)",
				LastSeen:    1,
			})
		}()
	}
	wg.Wait()

	got, err := store.Get(ctx, "fp1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.TestCount != 50 {
		t.Errorf("TestCount: got %d, want 50", got.TestCount)
	}
}
