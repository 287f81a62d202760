// Package services provides operations that work across stores.
//
// It includes:
//   - SyncService: Mirroring objects between any two store backends
//   - PruneService: Removing objects not written within a TTL
//
// Services only depend on the repository.Store interface, so they run
// unchanged against the in-memory and the REST backend. All services
// support context-based cancellation for graceful shutdown.
package services
