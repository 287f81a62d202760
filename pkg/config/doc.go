// Package config provides configuration management for the datarepo demo server.
//
// Configuration is loaded from defaults, then an optional YAML file, then
// environment variables (DATAREPO_* prefix), each layer overriding the
// previous. The package covers:
//   - HTTP server settings and API key
//   - Logging level
//   - List paging limits and request timeouts
//   - Background prune TTL and interval
//
// All configuration values are validated during startup.
package config
