// Package repository defines the data access abstraction for the datarepo library.
//
// It declares the generic Store interface implemented by both backends:
//   - memstore: an in-memory list-based store for prototyping and tests
//   - reststore: an HTTP client over a remote API following the REST
//     convention served by pkg/handlers
//
// All operations are context-aware for graceful cancellation. Stores are
// intended for prototyping and example use, not production-scale storage.
package repository
