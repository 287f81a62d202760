package repository

import (
	"context"

	"github.com/amaumene/datarepo/pkg/models"
	"github.com/amaumene/datarepo/pkg/query"
)

// Store defines the interface for CRUD access to data objects. T must be
// a pointer to a struct embedding models.Meta. Both backends implement it:
// memstore over an in-memory list, reststore over a remote HTTP API.
type Store[T models.Object] interface {
	// Insert stores a new object. An empty ID gets one assigned; the
	// object is stamped in place. Inserting an existing ID fails with
	// errors.ErrDuplicateKey.
	Insert(ctx context.Context, obj T) error

	// Get returns the object with the given ID, or errors.ErrNotFound.
	Get(ctx context.Context, id string) (T, error)

	// Update replaces a stored object. The caller's UpdatedAt must match
	// the stored one, otherwise the write is stale and fails with
	// errors.ErrConflict. The object is re-stamped in place on success.
	Update(ctx context.Context, obj T) error

	// Upsert inserts the object, or updates it without the stale check
	// when the ID already exists.
	Upsert(ctx context.Context, obj T) error

	// Delete removes the object with the given ID, or errors.ErrNotFound.
	Delete(ctx context.Context, id string) error

	// Find returns objects matching q, filtered, sorted, and paged.
	// A nil query returns everything.
	Find(ctx context.Context, q *query.Query) ([]T, error)

	// Count returns the number of objects matching q, ignoring paging.
	Count(ctx context.Context, q *query.Query) (int, error)

	// DeleteMatching removes all objects matching q and returns how many.
	DeleteMatching(ctx context.Context, q *query.Query) (int, error)

	// UpdateMatching applies mutate to every object matching q and stores
	// the results, returning how many were updated.
	UpdateMatching(ctx context.Context, q *query.Query, mutate func(T) error) (int, error)

	// SaveBatch upserts multiple objects.
	SaveBatch(ctx context.Context, objs []T) error

	// ProcessBatches pages through all objects batchSize at a time and
	// hands each page to processor.
	ProcessBatches(ctx context.Context, batchSize int, processor func([]T) error) error

	// Close releases the store. Further operations fail with
	// errors.ErrStoreClosed.
	Close() error
}
