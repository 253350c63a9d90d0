package sqlite

import (
	"fmt"

	"github.com/mesh-intelligence/larder/pkg/types"
)

// Every model shares the same physical layout; declared fields live
// inside the data JSON column. Timestamps are stored as RFC 3339 TEXT.
const tableColumnsDDL = `(
    row_id TEXT PRIMARY KEY,
    id TEXT NOT NULL,
    workspace_id TEXT NOT NULL DEFAULT '',
    name TEXT NOT NULL,
    data TEXT NOT NULL DEFAULT '{}',
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    deleted_at TEXT
)`

// recordColumns is the column list used by every select, insert, and
// returning clause, in scanRecord order.
const recordColumns = "row_id, id, workspace_id, name, data, created_at, updated_at, deleted_at"

// timeLayout is the stored timestamp format. The fixed-width fraction
// keeps lexicographic TEXT comparison aligned with chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// createTableDDL builds the standard-shape table for a model.
func createTableDDL(model types.Model) string {
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s %s", model.Name, tableColumnsDDL)
}

// createIndexDDL builds the entity-resolution index. Versioned lookups
// always filter by (workspace_id, id).
func createIndexDDL(model types.Model) string {
	return fmt.Sprintf(
		"CREATE INDEX IF NOT EXISTS idx_%s_entity ON %s (workspace_id, id)",
		model.Name, model.Name)
}
