package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/amaumene/datarepo/pkg/memstore"
	"github.com/amaumene/datarepo/pkg/models"
)

func TestPruneService_Prune(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	store := memstore.New[*models.Task]("tasks")
	t.Cleanup(func() { store.Close() })

	// Three stale tasks written two hours ago, two fresh ones just now.
	store.WithClock(func() time.Time { return now.Add(-2 * time.Hour) })
	for i := 0; i < 3; i++ {
		task := &models.Task{Title: fmt.Sprintf("stale %d", i)}
		if err := store.Insert(ctx, task); err != nil {
			t.Fatalf("seeding stale task: %v", err)
		}
	}
	store.WithClock(func() time.Time { return now })
	for i := 0; i < 2; i++ {
		task := &models.Task{Title: fmt.Sprintf("fresh %d", i)}
		if err := store.Insert(ctx, task); err != nil {
			t.Fatalf("seeding fresh task: %v", err)
		}
	}

	removed, err := NewPruneService[*models.Task](store, time.Hour).Prune(ctx, now)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if removed != 3 {
		t.Errorf("Prune() removed = %d, want 3", removed)
	}

	count, err := store.Count(ctx, nil)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 2 {
		t.Errorf("store holds %d tasks after prune, want 2", count)
	}
}

func TestPruneService_DisabledTTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	store := memstore.New[*models.Task]("tasks")
	t.Cleanup(func() { store.Close() })

	store.WithClock(func() time.Time { return now.Add(-24 * time.Hour) })
	if err := store.Insert(ctx, &models.Task{Title: "ancient"}); err != nil {
		t.Fatalf("seeding task: %v", err)
	}

	for _, ttl := range []time.Duration{0, -time.Hour} {
		removed, err := NewPruneService[*models.Task](store, ttl).Prune(ctx, now)
		if err != nil {
			t.Fatalf("Prune() with ttl %v error = %v", ttl, err)
		}
		if removed != 0 {
			t.Errorf("Prune() with ttl %v removed = %d, want 0", ttl, removed)
		}
	}

	count, err := store.Count(ctx, nil)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 1 {
		t.Errorf("store holds %d tasks, want 1", count)
	}
}

func TestPruneService_ExactCutoffSurvives(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	ttl := time.Hour

	store := memstore.New[*models.Task]("tasks")
	t.Cleanup(func() { store.Close() })

	// UpdatedAt exactly at the cutoff is not strictly older than it.
	store.WithClock(func() time.Time { return now.Add(-ttl) })
	if err := store.Insert(ctx, &models.Task{Title: "boundary"}); err != nil {
		t.Fatalf("seeding task: %v", err)
	}

	removed, err := NewPruneService[*models.Task](store, ttl).Prune(ctx, now)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if removed != 0 {
		t.Errorf("Prune() removed = %d, want 0", removed)
	}
}

func TestPruneService_Run(t *testing.T) {
	store := memstore.New[*models.Task]("tasks")
	t.Cleanup(func() { store.Close() })

	store.WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) })
	if err := store.Insert(context.Background(), &models.Task{Title: "stale"}); err != nil {
		t.Fatalf("seeding task: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewPruneService[*models.Task](store, time.Hour).Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for {
		count, err := store.Count(context.Background(), nil)
		if err != nil {
			t.Fatalf("Count() error = %v", err)
		}
		if count == 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("stale object was never pruned")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancellation")
	}
}

func TestPruneService_ClosedStore(t *testing.T) {
	store := memstore.New[*models.Task]("tasks")
	store.Close()

	if _, err := NewPruneService[*models.Task](store, time.Hour).Prune(context.Background(), time.Now()); err == nil {
		t.Error("Prune() on closed store expected error")
	}
}
