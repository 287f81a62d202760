// Package reststore implements the repository.Store interface as an HTTP
// client over a remote API.
//
// It speaks the REST convention served by pkg/handlers: JSON collections
// under /api/{resource}, with where/sort/skip/take list parameters and
// count, batch, and delete-matching endpoints. Remote status codes map
// back to the pkg/errors sentinels, so code written against the store
// interface behaves the same against either backend.
//
// The client is deliberately thin: one request per operation, no retries,
// no circuit breaking, no response caching.
package reststore
