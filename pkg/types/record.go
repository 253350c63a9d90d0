package types

import "time"

// Record is the uniform storage shape shared by every registered model.
// RowID identifies one physical row; ID is the logical entity identity,
// stable across all appended versions of a versioned model. For single-row
// models RowID equals ID.
type Record struct {
	RowID       string         `json:"row_id"`
	ID          string         `json:"id"`
	WorkspaceID string         `json:"workspace_id,omitempty"`
	Name        string         `json:"name"`
	Data        map[string]any `json:"data"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   *time.Time     `json:"deleted_at,omitempty"`
}

// Deleted reports whether the record carries a soft-delete mark.
func (r *Record) Deleted() bool {
	return r.DeletedAt != nil
}

// Clone returns a deep copy of the record. The Data document is copied
// one level deep; nested values are shared.
func (r *Record) Clone() *Record {
	out := *r
	out.Data = make(map[string]any, len(r.Data))
	for k, v := range r.Data {
		out.Data[k] = v
	}
	if r.DeletedAt != nil {
		del := *r.DeletedAt
		out.DeletedAt = &del
	}
	return &out
}

// Payload carries caller-supplied values for create and update operations.
// On update, an empty Name means "keep the current name" and Data keys are
// shallow-merged over the current version's document.
type Payload struct {
	WorkspaceID string         `json:"workspace_id,omitempty"`
	Name        string         `json:"name,omitempty"`
	Data        map[string]any `json:"data,omitempty"`
}
