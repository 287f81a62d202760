package services

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/amaumene/datarepo/pkg/models"
	"github.com/amaumene/datarepo/pkg/repository"
)

const defaultSyncBatchSize = 100

// SyncService mirrors objects from a source store into a destination
// store. Both backends satisfy the same interface, so it works in any
// direction: memory to remote, remote to memory, or memory to memory.
type SyncService[T models.Object] struct {
	source    repository.Store[T]
	dest      repository.Store[T]
	batchSize int
}

func NewSyncService[T models.Object](source, dest repository.Store[T], batchSize int) *SyncService[T] {
	if batchSize <= 0 {
		batchSize = defaultSyncBatchSize
	}
	return &SyncService[T]{
		source:    source,
		dest:      dest,
		batchSize: batchSize,
	}
}

// SyncResult reports what a sync run did.
type SyncResult struct {
	Copied  int `json:"copied"`
	Batches int `json:"batches"`
}

// Sync copies every source object into the destination, page by page.
// Destination objects with matching IDs are overwritten.
func (s *SyncService[T]) Sync(ctx context.Context) (*SyncResult, error) {
	result := &SyncResult{}

	err := s.source.ProcessBatches(ctx, s.batchSize, func(batch []T) error {
		if err := s.dest.SaveBatch(ctx, batch); err != nil {
			return err
		}
		result.Copied += len(batch)
		result.Batches++
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("syncing stores: %w", err)
	}

	log.WithFields(log.Fields{
		"copied":  result.Copied,
		"batches": result.Batches,
	}).Info("Sync completed")
	return result, nil
}
