// Package handlers provides HTTP request handlers serving stores over REST.
//
// A Resource exposes any repository.Store as a JSON collection under
// /api/{name}, following the convention the reststore client speaks:
// list with where/sort/skip/take parameters, item fetch/update/delete by
// ID, plus count, batch save, and delete-matching endpoints.
//
// The package also includes:
//   - Request logging middleware
//   - Bearer / X-API-Key authentication middleware
//   - A health check handler
//
// All handlers include request validation and JSON error envelopes, and
// map store errors to HTTP status codes (404 not found, 409 conflict,
// 400 invalid input).
package handlers
