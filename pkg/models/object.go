package models

import (
	"fmt"
	"reflect"
	"time"
)

// Object is the contract every stored data object satisfies. Concrete
// models get it for free by embedding Meta.
type Object interface {
	// ObjectID returns the object identifier, empty if not assigned yet.
	ObjectID() string
	// SetObjectID assigns the object identifier.
	SetObjectID(id string)
	// CreatedTime returns when the object was first stored.
	CreatedTime() time.Time
	// UpdatedTime returns when the object was last written. Stores compare
	// it on update to detect stale writes.
	UpdatedTime() time.Time
	// Stamp records a write at the given time, setting the creation time
	// on first call.
	Stamp(now time.Time)
}

// Meta holds the identity and bookkeeping fields shared by all data objects.
type Meta struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (m *Meta) ObjectID() string {
	return m.ID
}

func (m *Meta) SetObjectID(id string) {
	m.ID = id
}

func (m *Meta) CreatedTime() time.Time {
	return m.CreatedAt
}

func (m *Meta) UpdatedTime() time.Time {
	return m.UpdatedAt
}

func (m *Meta) Stamp(now time.Time) {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
}

// NewObject allocates a fresh instance of a data object type. T must be a
// pointer to a struct, which every Meta-embedding model is.
func NewObject[T Object]() (T, error) {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil || t.Kind() != reflect.Ptr || t.Elem().Kind() != reflect.Struct {
		return zero, fmt.Errorf("data objects must be pointers to structs, got %v", t)
	}
	return reflect.New(t.Elem()).Interface().(T), nil
}
