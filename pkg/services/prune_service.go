package services

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/amaumene/datarepo/pkg/models"
	"github.com/amaumene/datarepo/pkg/query"
	"github.com/amaumene/datarepo/pkg/repository"
)

// PruneService removes objects that have not been written within a TTL.
type PruneService[T models.Object] struct {
	store repository.Store[T]
	ttl   time.Duration
}

func NewPruneService[T models.Object](store repository.Store[T], ttl time.Duration) *PruneService[T] {
	return &PruneService[T]{store: store, ttl: ttl}
}

// Prune deletes every object whose UpdatedAt is older than now minus the
// TTL and returns how many were removed.
func (s *PruneService[T]) Prune(ctx context.Context, now time.Time) (int, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	cutoff := now.Add(-s.ttl)

	removed, err := s.store.DeleteMatching(ctx, query.Where("UpdatedAt").Lt(cutoff))
	if err != nil {
		return 0, fmt.Errorf("pruning stale objects: %w", err)
	}

	if removed > 0 {
		log.WithFields(log.Fields{
			"removed": removed,
			"cutoff":  cutoff.Format(time.RFC3339),
		}).Info("Pruned stale objects")
	}
	return removed, nil
}

// Run prunes on a ticker until the context is cancelled. Prune errors are
// logged and the loop keeps going.
func (s *PruneService[T]) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Prune(ctx, time.Now()); err != nil {
				log.WithError(err).Error("Failed to prune stale objects")
			}
		}
	}
}
