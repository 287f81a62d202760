package memstore

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/amaumene/datarepo/pkg/errors"
	"github.com/amaumene/datarepo/pkg/models"
	"github.com/amaumene/datarepo/pkg/query"
)

func setupTaskStore(t *testing.T) *Store[*models.Task] {
	t.Helper()
	store := New[*models.Task]("tasks")
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

func seedTasks(t *testing.T, store *Store[*models.Task], tasks ...*models.Task) {
	t.Helper()
	ctx := context.Background()
	for _, task := range tasks {
		if err := store.Insert(ctx, task); err != nil {
			t.Fatalf("seeding task %q: %v", task.Title, err)
		}
	}
}

func TestStore_Insert(t *testing.T) {
	store := setupTaskStore(t)
	ctx := context.Background()

	first := &models.Task{Title: "write report"}
	if err := store.Insert(ctx, first); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if first.ID == "" {
		t.Error("Insert() did not assign an ID")
	}
	if first.CreatedAt.IsZero() || first.UpdatedAt.IsZero() {
		t.Error("Insert() did not stamp timestamps")
	}

	tests := []struct {
		name    string
		task    *models.Task
		wantErr error
	}{
		{
			name: "explicit ID",
			task: &models.Task{Meta: models.Meta{ID: "task-1"}, Title: "review"},
		},
		{
			name:    "duplicate ID",
			task:    &models.Task{Meta: models.Meta{ID: "task-1"}, Title: "review again"},
			wantErr: errors.ErrDuplicateKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.Insert(ctx, tt.task)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Insert() error = %v", err)
				}
				return
			}
			if !errors.IsDuplicateKey(err) {
				t.Errorf("Insert() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestStore_GetReturnsCopy(t *testing.T) {
	store := setupTaskStore(t)
	ctx := context.Background()
	seedTasks(t, store, &models.Task{Meta: models.Meta{ID: "task-1"}, Title: "original"})

	got, err := store.Get(ctx, "task-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	// Mutating the returned object must not touch stored state.
	got.Title = "mutated"

	again, err := store.Get(ctx, "task-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if again.Title != "original" {
		t.Errorf("stored object was aliased: got title %q", again.Title)
	}
}

func TestStore_GetNotFound(t *testing.T) {
	store := setupTaskStore(t)

	_, err := store.Get(context.Background(), "missing")
	if !errors.IsNotFound(err) {
		t.Errorf("Get() error = %v, want not found", err)
	}
}

func TestStore_Update(t *testing.T) {
	store := setupTaskStore(t)
	ctx := context.Background()
	seedTasks(t, store, &models.Task{Meta: models.Meta{ID: "task-1"}, Title: "draft"})

	current, err := store.Get(ctx, "task-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	stale, err := store.Get(ctx, "task-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	current.Title = "final"
	if err := store.Update(ctx, current); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	// The losing writer still holds the old timestamp.
	stale.Title = "stale edit"
	if err := store.Update(ctx, stale); !errors.IsConflict(err) {
		t.Errorf("Update() with stale timestamp error = %v, want conflict", err)
	}

	got, err := store.Get(ctx, "task-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Title != "final" {
		t.Errorf("Update() stored title = %q, want %q", got.Title, "final")
	}
	if !got.UpdatedAt.After(got.CreatedAt) {
		t.Error("Update() did not advance UpdatedAt")
	}
}

func TestStore_UpdateNotFound(t *testing.T) {
	store := setupTaskStore(t)

	err := store.Update(context.Background(), &models.Task{Meta: models.Meta{ID: "missing"}, Title: "x"})
	if !errors.IsNotFound(err) {
		t.Errorf("Update() error = %v, want not found", err)
	}
}

func TestStore_Upsert(t *testing.T) {
	store := setupTaskStore(t)
	ctx := context.Background()

	task := &models.Task{Meta: models.Meta{ID: "task-1"}, Title: "first"}
	if err := store.Upsert(ctx, task); err != nil {
		t.Fatalf("Upsert() insert error = %v", err)
	}

	// Upsert overwrites without the stale check.
	replacement := &models.Task{Meta: models.Meta{ID: "task-1"}, Title: "second"}
	if err := store.Upsert(ctx, replacement); err != nil {
		t.Fatalf("Upsert() overwrite error = %v", err)
	}

	got, err := store.Get(ctx, "task-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Title != "second" {
		t.Errorf("Upsert() stored title = %q, want %q", got.Title, "second")
	}

	count, err := store.Count(ctx, nil)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 1 {
		t.Errorf("Count() = %d, want 1", count)
	}
}

func TestStore_Delete(t *testing.T) {
	store := setupTaskStore(t)
	ctx := context.Background()
	seedTasks(t, store, &models.Task{Meta: models.Meta{ID: "task-1"}, Title: "x"})

	if err := store.Delete(ctx, "task-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := store.Delete(ctx, "task-1"); !errors.IsNotFound(err) {
		t.Errorf("Delete() twice error = %v, want not found", err)
	}
}

func TestStore_Find(t *testing.T) {
	store := setupTaskStore(t)
	ctx := context.Background()
	seedTasks(t, store,
		&models.Task{Meta: models.Meta{ID: "a"}, Title: "buy milk", Project: "home", Priority: 1},
		&models.Task{Meta: models.Meta{ID: "b"}, Title: "fix roof", Project: "home", Priority: 3},
		&models.Task{Meta: models.Meta{ID: "c"}, Title: "ship release", Project: "work", Priority: 2, Done: true},
		&models.Task{Meta: models.Meta{ID: "d"}, Title: "write docs", Project: "work", Priority: 2},
	)

	tests := []struct {
		name    string
		query   *query.Query
		wantIDs []string
	}{
		{
			name:    "all with nil query",
			query:   nil,
			wantIDs: []string{"a", "b", "c", "d"},
		},
		{
			name:    "filter by project",
			query:   query.Where("Project").Eq("home"),
			wantIDs: []string{"a", "b"},
		},
		{
			name:    "filter and condition",
			query:   query.Where("Project").Eq("work").And("Done").Eq(false),
			wantIDs: []string{"d"},
		},
		{
			name:    "or branch",
			query:   query.Where("Priority").Ge(int64(3)).Or(query.Where("Done").Eq(true)),
			wantIDs: []string{"b", "c"},
		},
		{
			name:    "contains",
			query:   query.Where("Title").Contains("r"),
			wantIDs: []string{"b", "c", "d"},
		},
		{
			name:    "sorted by priority descending",
			query:   query.New().SortBy("Priority").Reverse(),
			wantIDs: []string{"b", "c", "d", "a"},
		},
		{
			name:    "sorted and paged",
			query:   query.New().SortBy("Title").Skip(1).Take(2),
			wantIDs: []string{"fix roof", "ship release"},
		},
		{
			name:    "skip beyond end",
			query:   query.New().Skip(10),
			wantIDs: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Find(ctx, tt.query)
			if err != nil {
				t.Fatalf("Find() error = %v", err)
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("Find() returned %d objects, want %d", len(got), len(tt.wantIDs))
			}
			for i, want := range tt.wantIDs {
				if got[i].ID != want && got[i].Title != want {
					t.Errorf("Find()[%d] = %s (%q), want %s", i, got[i].ID, got[i].Title, want)
				}
			}
		})
	}
}

func TestStore_FindUnknownField(t *testing.T) {
	store := setupTaskStore(t)
	seedTasks(t, store, &models.Task{Title: "x"})

	_, err := store.Find(context.Background(), query.Where("Bogus").Eq(1))
	if err == nil {
		t.Fatal("Find() with unknown field expected error")
	}
}

func TestStore_DeleteMatching(t *testing.T) {
	store := setupTaskStore(t)
	ctx := context.Background()
	seedTasks(t, store,
		&models.Task{Meta: models.Meta{ID: "a"}, Title: "one", Done: true},
		&models.Task{Meta: models.Meta{ID: "b"}, Title: "two", Done: false},
		&models.Task{Meta: models.Meta{ID: "c"}, Title: "three", Done: true},
	)

	removed, err := store.DeleteMatching(ctx, query.Where("Done").Eq(true))
	if err != nil {
		t.Fatalf("DeleteMatching() error = %v", err)
	}
	if removed != 2 {
		t.Errorf("DeleteMatching() removed = %d, want 2", removed)
	}

	remaining, err := store.Find(ctx, nil)
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != "b" {
		t.Errorf("DeleteMatching() left %v, want only b", remaining)
	}
}

func TestStore_DeleteMatchingErrorLeavesStoreIntact(t *testing.T) {
	store := setupTaskStore(t)
	ctx := context.Background()
	// The first title parses as a timestamp and matches, the second does
	// not compare against a time at all. The error must not leave the
	// store half-compacted.
	seedTasks(t, store,
		&models.Task{Meta: models.Meta{ID: "a"}, Title: "2020-01-01T00:00:00Z"},
		&models.Task{Meta: models.Meta{ID: "b"}, Title: "plain title"},
		&models.Task{Meta: models.Meta{ID: "c"}, Title: "2030-01-01T00:00:00Z"},
	)

	cutoff := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	removed, err := store.DeleteMatching(ctx, query.Where("Title").Lt(cutoff))
	if err == nil {
		t.Fatal("DeleteMatching() expected comparison error")
	}
	if removed != 0 {
		t.Errorf("DeleteMatching() removed = %d, want 0", removed)
	}

	remaining, err := store.Find(ctx, query.New().SortBy("ID"))
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if len(remaining) != 3 {
		t.Fatalf("store holds %d objects after failed delete, want 3", len(remaining))
	}
	for i, id := range []string{"a", "b", "c"} {
		if remaining[i].ID != id {
			t.Errorf("object %d = %s, want %s", i, remaining[i].ID, id)
		}
	}
}

func TestStore_UpdateMatching(t *testing.T) {
	store := setupTaskStore(t)
	ctx := context.Background()
	seedTasks(t, store,
		&models.Task{Meta: models.Meta{ID: "a"}, Title: "one", Project: "home"},
		&models.Task{Meta: models.Meta{ID: "b"}, Title: "two", Project: "work"},
	)

	updated, err := store.UpdateMatching(ctx, query.Where("Project").Eq("home"), func(task *models.Task) error {
		task.MarkDone()
		return nil
	})
	if err != nil {
		t.Fatalf("UpdateMatching() error = %v", err)
	}
	if updated != 1 {
		t.Errorf("UpdateMatching() updated = %d, want 1", updated)
	}

	got, err := store.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !got.Done {
		t.Error("UpdateMatching() did not persist the mutation")
	}
}

func TestStore_UpdateMatchingMutatorFailure(t *testing.T) {
	store := setupTaskStore(t)
	ctx := context.Background()
	seedTasks(t, store, &models.Task{Meta: models.Meta{ID: "a"}, Title: "keep me"})

	_, err := store.UpdateMatching(ctx, nil, func(task *models.Task) error {
		task.Title = "clobbered"
		return fmt.Errorf("mutator refused")
	})
	if err == nil {
		t.Fatal("UpdateMatching() expected mutator error")
	}

	got, err := store.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Title != "keep me" {
		t.Errorf("failed mutation leaked into store: title = %q", got.Title)
	}
}

func TestStore_UpdateMatchingRejectsIDChange(t *testing.T) {
	store := setupTaskStore(t)
	ctx := context.Background()
	seedTasks(t, store,
		&models.Task{Meta: models.Meta{ID: "a"}, Title: "one"},
		&models.Task{Meta: models.Meta{ID: "b"}, Title: "two"},
	)

	// Rewriting the ID could collide with another stored object.
	_, err := store.UpdateMatching(ctx, query.Where("ID").Eq("a"), func(task *models.Task) error {
		task.ID = "b"
		return nil
	})
	if !errors.IsInvalidInput(err) {
		t.Fatalf("UpdateMatching() error = %v, want invalid input", err)
	}

	got, err := store.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Title != "one" {
		t.Errorf("object a title = %q, want %q", got.Title, "one")
	}
	count, err := store.Count(ctx, nil)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 2 {
		t.Errorf("store holds %d objects, want 2", count)
	}
}

func TestStore_NilObjects(t *testing.T) {
	store := setupTaskStore(t)
	ctx := context.Background()
	var nilTask *models.Task

	if err := store.Insert(ctx, nilTask); !errors.IsInvalidInput(err) {
		t.Errorf("Insert(nil) error = %v, want invalid input", err)
	}
	if err := store.Update(ctx, nilTask); !errors.IsInvalidInput(err) {
		t.Errorf("Update(nil) error = %v, want invalid input", err)
	}
	if err := store.Upsert(ctx, nilTask); !errors.IsInvalidInput(err) {
		t.Errorf("Upsert(nil) error = %v, want invalid input", err)
	}
}

func TestStore_SaveBatchNilObject(t *testing.T) {
	store := setupTaskStore(t)
	ctx := context.Background()

	// A nil element must fail the batch before anything is written.
	batch := []*models.Task{
		{Meta: models.Meta{ID: "a"}, Title: "ok"},
		nil,
	}
	if err := store.SaveBatch(ctx, batch); !errors.IsInvalidInput(err) {
		t.Fatalf("SaveBatch() error = %v, want invalid input", err)
	}

	count, err := store.Count(ctx, nil)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 0 {
		t.Errorf("store holds %d objects after failed batch, want 0", count)
	}
}

func TestStore_SaveBatchAndProcessBatches(t *testing.T) {
	store := setupTaskStore(t)
	ctx := context.Background()

	var batch []*models.Task
	for i := 0; i < 25; i++ {
		batch = append(batch, &models.Task{
			Meta:  models.Meta{ID: fmt.Sprintf("task-%02d", i)},
			Title: fmt.Sprintf("task %d", i),
		})
	}
	if err := store.SaveBatch(ctx, batch); err != nil {
		t.Fatalf("SaveBatch() error = %v", err)
	}

	var pages []int
	seen := make(map[string]bool)
	err := store.ProcessBatches(ctx, 10, func(page []*models.Task) error {
		pages = append(pages, len(page))
		for _, task := range page {
			if seen[task.ID] {
				return fmt.Errorf("object %s visited twice", task.ID)
			}
			seen[task.ID] = true
		}
		return nil
	})
	if err != nil {
		t.Fatalf("ProcessBatches() error = %v", err)
	}

	if len(seen) != 25 {
		t.Errorf("ProcessBatches() visited %d objects, want 25", len(seen))
	}
	wantPages := []int{10, 10, 5}
	if len(pages) != len(wantPages) {
		t.Fatalf("ProcessBatches() pages = %v, want %v", pages, wantPages)
	}
	for i, want := range wantPages {
		if pages[i] != want {
			t.Errorf("ProcessBatches() page %d size = %d, want %d", i, pages[i], want)
		}
	}
}

func TestStore_ProcessBatchesInvalidSize(t *testing.T) {
	store := setupTaskStore(t)

	err := store.ProcessBatches(context.Background(), 0, func([]*models.Task) error { return nil })
	if !errors.IsInvalidInput(err) {
		t.Errorf("ProcessBatches(0) error = %v, want invalid input", err)
	}
}

func TestStore_Closed(t *testing.T) {
	store := New[*models.Task]("tasks")
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	ctx := context.Background()
	if err := store.Insert(ctx, &models.Task{Title: "x"}); err != errors.ErrStoreClosed {
		t.Errorf("Insert() after close error = %v, want %v", err, errors.ErrStoreClosed)
	}
	if _, err := store.Find(ctx, nil); err != errors.ErrStoreClosed {
		t.Errorf("Find() after close error = %v, want %v", err, errors.ErrStoreClosed)
	}
}

func TestStore_ContextCancelled(t *testing.T) {
	store := setupTaskStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := store.Insert(ctx, &models.Task{Title: "x"}); err != context.Canceled {
		t.Errorf("Insert() with cancelled context error = %v, want %v", err, context.Canceled)
	}
}

func TestStore_ConcurrentWriters(t *testing.T) {
	store := setupTaskStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				task := &models.Task{
					Meta:  models.Meta{ID: fmt.Sprintf("w%d-t%d", n, j)},
					Title: "concurrent",
				}
				if err := store.Insert(ctx, task); err != nil {
					t.Errorf("concurrent Insert() error = %v", err)
					return
				}
				if _, err := store.Find(ctx, query.Where("Title").Eq("concurrent").Take(5)); err != nil {
					t.Errorf("concurrent Find() error = %v", err)
					return
				}
			}
		}(i)
	}
	wg.Wait()

	count, err := store.Count(ctx, nil)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 200 {
		t.Errorf("Count() after concurrent inserts = %d, want 200", count)
	}
}

func TestStore_InsertKeepsExistingTimestamps(t *testing.T) {
	store := setupTaskStore(t)
	ctx := context.Background()

	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	task := &models.Task{Meta: models.Meta{ID: "old", CreatedAt: created}, Title: "imported"}
	if err := store.Insert(ctx, task); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	got, err := store.Get(ctx, "old")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("Insert() overwrote CreatedAt: got %v, want %v", got.CreatedAt, created)
	}
	if !got.UpdatedAt.After(created) {
		t.Errorf("Insert() did not stamp UpdatedAt past CreatedAt")
	}
}
