package storage

import (
	"context"
	"testing"
	"time"

	"lifeevo/internal/model"
)

func newInitializedMemoryStore(t *testing.T) *MemoryStore {
	t.Helper()
	store := NewMemoryStore()
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	return store
}

func TestMemoryStoreRunRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newInitializedMemoryStore(t)

	run := model.RunRecord{
		VersionedRecord: CurrentVersion(),
		ID:              "run-1",
		CreatedAt:       time.Unix(100, 0).UTC(),
		BestGenome:      "4:0f",
		BestFitness:     12,
	}
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("save run: %v", err)
	}
	loaded, ok, err := store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if !ok || loaded.BestGenome != "4:0f" || loaded.BestFitness != 12 {
		t.Fatalf("unexpected run: ok=%t run=%+v", ok, loaded)
	}
	if _, ok, _ := store.GetRun(ctx, "missing"); ok {
		t.Fatal("expected missing run")
	}
}

func TestMemoryStoreListsNewestRunsFirst(t *testing.T) {
	ctx := context.Background()
	store := newInitializedMemoryStore(t)
	for i, id := range []string{"a", "b", "c"} {
		if err := store.SaveRun(ctx, model.RunRecord{ID: id, CreatedAt: time.Unix(int64(i), 0)}); err != nil {
			t.Fatalf("save run %s: %v", id, err)
		}
	}

	runs, err := store.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "c" || runs[1].ID != "b" {
		t.Fatalf("unexpected runs: %+v", runs)
	}
	all, err := store.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected all runs, got %d", len(all))
	}
}

func TestMemoryStoreGenerationsReplaceByIndex(t *testing.T) {
	ctx := context.Background()
	store := newInitializedMemoryStore(t)
	for _, record := range []model.GenerationRecord{
		{RunID: "run-1", Generation: 1, BestFitness: 1},
		{RunID: "run-1", Generation: 2, BestFitness: 2},
		{RunID: "run-1", Generation: 2, BestFitness: 3},
		{RunID: "run-2", Generation: 1, BestFitness: 9},
	} {
		if err := store.AppendGeneration(ctx, record); err != nil {
			t.Fatalf("append generation: %v", err)
		}
	}

	records, ok, err := store.GetGenerations(ctx, "run-1")
	if err != nil {
		t.Fatalf("get generations: %v", err)
	}
	if !ok || len(records) != 2 || records[1].BestFitness != 3 {
		t.Fatalf("unexpected generations: %+v", records)
	}
	records[0].BestFitness = 999
	again, _, _ := store.GetGenerations(ctx, "run-1")
	if again[0].BestFitness == 999 {
		t.Fatal("expected generations to be copied on read")
	}
}

func TestMemoryStoreRequiresInit(t *testing.T) {
	store := NewMemoryStore()
	if err := store.SaveRun(context.Background(), model.RunRecord{ID: "x"}); err == nil {
		t.Fatal("expected uninitialized store error")
	}
}
