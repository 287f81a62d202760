// Package models defines the core data structures used throughout the datarepo library.
//
// It includes:
//   - Object: The contract every stored data object satisfies
//   - Meta: Embeddable identity and timestamp bookkeeping
//   - Task, Note: Example data objects used by the demo server and tests
//
// All models include appropriate serialization tags for store round-trips
// and JSON API responses.
package models
