package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/amaumene/datarepo/pkg/errors"
	"github.com/amaumene/datarepo/pkg/models"
	"github.com/amaumene/datarepo/pkg/query"
)

// Store keeps objects in a flat list guarded by a single mutex. Every
// lookup is a linear scan; there is no indexing. Reads and writes deep-copy
// objects so callers never alias stored state.
type Store[T models.Object] struct {
	name string
	now  func() time.Time

	mu     sync.Mutex
	items  []T
	closed bool
}

// New creates an empty in-memory store. The name only shows up in errors
// and logs.
func New[T models.Object](name string) *Store[T] {
	return &Store[T]{name: name, now: time.Now}
}

// WithClock overrides the time source used for stamping, mainly for tests.
func (s *Store[T]) WithClock(now func() time.Time) *Store[T] {
	s.now = now
	return s
}

// Name returns the store name.
func (s *Store[T]) Name() string {
	return s.name
}

func (s *Store[T]) Insert(ctx context.Context, obj T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if isNil(obj) {
		return fmt.Errorf("inserting object: %w: nil object", errors.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.ErrStoreClosed
	}

	if obj.ObjectID() == "" {
		obj.SetObjectID(uuid.NewString())
	}
	if s.indexOf(obj.ObjectID()) >= 0 {
		return fmt.Errorf("inserting object %s: %w", obj.ObjectID(), errors.ErrDuplicateKey)
	}

	obj.Stamp(s.now())
	stored, err := clone(obj)
	if err != nil {
		return fmt.Errorf("inserting object %s: %w", obj.ObjectID(), err)
	}
	s.items = append(s.items, stored)
	return nil
}

func (s *Store[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return zero, errors.ErrStoreClosed
	}

	idx := s.indexOf(id)
	if idx < 0 {
		return zero, fmt.Errorf("getting object %s: %w", id, errors.ErrNotFound)
	}

	out, err := clone(s.items[idx])
	if err != nil {
		return zero, fmt.Errorf("getting object %s: %w", id, err)
	}
	return out, nil
}

func (s *Store[T]) Update(ctx context.Context, obj T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if isNil(obj) {
		return fmt.Errorf("updating object: %w: nil object", errors.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.ErrStoreClosed
	}

	idx := s.indexOf(obj.ObjectID())
	if idx < 0 {
		return fmt.Errorf("updating object %s: %w", obj.ObjectID(), errors.ErrNotFound)
	}

	// Optimistic concurrency: the caller must present the timestamp it
	// read, otherwise someone else wrote in between.
	if !s.items[idx].UpdatedTime().Equal(obj.UpdatedTime()) {
		return fmt.Errorf("updating object %s: %w", obj.ObjectID(), errors.ErrConflict)
	}

	obj.Stamp(s.now())
	stored, err := clone(obj)
	if err != nil {
		return fmt.Errorf("updating object %s: %w", obj.ObjectID(), err)
	}
	s.items[idx] = stored
	return nil
}

func (s *Store[T]) Upsert(ctx context.Context, obj T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.ErrStoreClosed
	}
	return s.upsertLocked(obj)
}

func (s *Store[T]) upsertLocked(obj T) error {
	if isNil(obj) {
		return fmt.Errorf("saving object: %w: nil object", errors.ErrInvalidInput)
	}
	if obj.ObjectID() == "" {
		obj.SetObjectID(uuid.NewString())
	}

	obj.Stamp(s.now())
	stored, err := clone(obj)
	if err != nil {
		return fmt.Errorf("saving object %s: %w", obj.ObjectID(), err)
	}

	if idx := s.indexOf(obj.ObjectID()); idx >= 0 {
		s.items[idx] = stored
		return nil
	}
	s.items = append(s.items, stored)
	return nil
}

func (s *Store[T]) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.ErrStoreClosed
	}

	idx := s.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("deleting object %s: %w", id, errors.ErrNotFound)
	}
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	return nil
}

func (s *Store[T]) Find(ctx context.Context, q *query.Query) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errors.ErrStoreClosed
	}

	matched, err := query.Slice(s.items, q)
	if err != nil {
		return nil, fmt.Errorf("finding objects: %w", err)
	}

	out := make([]T, 0, len(matched))
	for _, item := range matched {
		copied, err := clone(item)
		if err != nil {
			return nil, fmt.Errorf("finding objects: %w", err)
		}
		out = append(out, copied)
	}
	return out, nil
}

func (s *Store[T]) Count(ctx context.Context, q *query.Query) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, errors.ErrStoreClosed
	}

	count := 0
	for _, item := range s.items {
		ok, err := q.Match(item)
		if err != nil {
			return 0, fmt.Errorf("counting objects: %w", err)
		}
		if ok {
			count++
		}
	}
	return count, nil
}

func (s *Store[T]) DeleteMatching(ctx context.Context, q *query.Query) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, errors.ErrStoreClosed
	}

	// Build the kept list aside so a match error partway leaves the
	// store untouched.
	kept := make([]T, 0, len(s.items))
	removed := 0
	for _, item := range s.items {
		ok, err := q.Match(item)
		if err != nil {
			return 0, fmt.Errorf("deleting matching objects: %w", err)
		}
		if ok {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	s.items = kept
	return removed, nil
}

func (s *Store[T]) UpdateMatching(ctx context.Context, q *query.Query, mutate func(T) error) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, errors.ErrStoreClosed
	}

	updated := 0
	for idx, item := range s.items {
		ok, err := q.Match(item)
		if err != nil {
			return updated, fmt.Errorf("updating matching objects: %w", err)
		}
		if !ok {
			continue
		}

		// Mutate a copy so a failing mutator leaves the store untouched.
		working, err := clone(item)
		if err != nil {
			return updated, fmt.Errorf("updating object %s: %w", item.ObjectID(), err)
		}
		if err := mutate(working); err != nil {
			return updated, fmt.Errorf("updating object %s: %w", item.ObjectID(), err)
		}
		// An ID change could collide with another stored object.
		if working.ObjectID() != item.ObjectID() {
			return updated, fmt.Errorf("updating object %s: %w: mutator changed the ID", item.ObjectID(), errors.ErrInvalidInput)
		}
		working.Stamp(s.now())
		s.items[idx] = working
		updated++
	}
	return updated, nil
}

func (s *Store[T]) SaveBatch(ctx context.Context, objs []T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(objs) == 0 {
		return nil
	}
	// Validate the whole batch before touching the store, so a bad
	// element does not leave a partial save behind.
	for _, obj := range objs {
		if isNil(obj) {
			return fmt.Errorf("saving batch: %w: nil object", errors.ErrInvalidInput)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.ErrStoreClosed
	}

	for _, obj := range objs {
		if err := s.upsertLocked(obj); err != nil {
			return fmt.Errorf("saving batch: %w", err)
		}
	}
	return nil
}

// ProcessBatches pages through the store in ID order so that writes to
// other objects between pages do not shuffle the traversal.
func (s *Store[T]) ProcessBatches(ctx context.Context, batchSize int, processor func([]T) error) error {
	if batchSize <= 0 {
		return fmt.Errorf("processing batches: %w: batch size %d", errors.ErrInvalidInput, batchSize)
	}

	offset := 0
	for {
		batch, err := s.Find(ctx, query.New().SortBy("ID").Skip(offset).Take(batchSize))
		if err != nil {
			return fmt.Errorf("finding batch at offset %d: %w", offset, err)
		}
		if len(batch) == 0 {
			break
		}

		if err := processor(batch); err != nil {
			return fmt.Errorf("processing batch at offset %d: %w", offset, err)
		}

		offset += batchSize
		if len(batch) < batchSize {
			break
		}
	}
	return nil
}

func (s *Store[T]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.items = nil
	return nil
}

// indexOf must be called with the lock held.
func (s *Store[T]) indexOf(id string) int {
	for i, item := range s.items {
		if item.ObjectID() == id {
			return i
		}
	}
	return -1
}

// isNil reports whether a typed object pointer is nil, which a decoded
// JSON array with null elements can produce.
func isNil[T models.Object](obj T) bool {
	v := reflect.ValueOf(obj)
	return !v.IsValid() || (v.Kind() == reflect.Pointer && v.IsNil())
}

// clone deep-copies an object through a JSON round-trip, so stored state
// and caller state never share memory. Objects must survive JSON encoding.
func clone[T models.Object](obj T) (T, error) {
	var zero T

	data, err := json.Marshal(obj)
	if err != nil {
		return zero, fmt.Errorf("copying object: %w", err)
	}

	out, err := models.NewObject[T]()
	if err != nil {
		return zero, fmt.Errorf("%w: %v", errors.ErrInvalidInput, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return zero, fmt.Errorf("copying object: %w", err)
	}
	return out, nil
}
