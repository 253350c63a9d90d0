// Package engine implements the Larder operation surface: a model
// registry, uniform CRUD operations, and the append-only versioning
// and current-version resolution that sits between the query planner
// and the storage backend.
package engine
