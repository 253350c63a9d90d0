package types

// Lifecycle policies for registered models.
const (
	// LifecycleSingle keeps one physical row per entity and updates it
	// in place. Soft delete marks the row; no version history exists.
	LifecycleSingle = "single"

	// LifecycleVersioned appends a new physical row on every write.
	// The current state of an entity is the non-deleted row with the
	// latest update time for its (workspace, id) pair.
	LifecycleVersioned = "versioned"
)

// Field value kinds for declared data fields.
const (
	KindString  = "string"
	KindNumber  = "number"
	KindBoolean = "boolean"
	KindTime    = "time"
	KindJSON    = "json"
)

// Field declares one model-specific attribute stored in the Data document.
type Field struct {
	Name     string `json:"name" mapstructure:"name" validate:"required"`
	Kind     string `json:"kind" mapstructure:"kind" validate:"required,oneof=string number boolean time json"`
	Nullable bool   `json:"nullable,omitempty" mapstructure:"nullable"`
}

// Model describes one registered table: its name, lifecycle policy, and
// the declared data fields. The descriptor is built once at registration
// and treated as read-only afterwards.
type Model struct {
	Name      string  `json:"name" mapstructure:"name" validate:"required"`
	Lifecycle string  `json:"lifecycle" mapstructure:"lifecycle" validate:"required,oneof=single versioned"`
	Fields    []Field `json:"fields,omitempty" mapstructure:"fields" validate:"dive"`
}

// Fixed record column names shared by every model.
const (
	FieldRowID       = "row_id"
	FieldID          = "id"
	FieldWorkspaceID = "workspace_id"
	FieldName        = "name"
	FieldData        = "data"
	FieldCreatedAt   = "created_at"
	FieldUpdatedAt   = "updated_at"
	FieldDeletedAt   = "deleted_at"
)

// baseColumns maps the fixed record columns to their value kinds.
var baseColumns = map[string]string{
	FieldRowID:       KindString,
	FieldID:          KindString,
	FieldWorkspaceID: KindString,
	FieldName:        KindString,
	FieldCreatedAt:   KindTime,
	FieldUpdatedAt:   KindTime,
	FieldDeletedAt:   KindTime,
}

// Column describes how a logical field is addressed by a backend.
// Base columns live directly on the row; declared fields live inside
// the Data document.
type Column struct {
	Name string
	Kind string
	Base bool
}

// Column resolves a logical field name against the model descriptor.
// The boolean result is false for names the model does not declare;
// callers are expected to ignore such fields rather than fail.
func (m Model) Column(name string) (Column, bool) {
	if kind, ok := baseColumns[name]; ok {
		return Column{Name: name, Kind: kind, Base: true}, true
	}
	for _, f := range m.Fields {
		if f.Name == name {
			return Column{Name: f.Name, Kind: f.Kind}, true
		}
	}
	return Column{}, false
}

// Versioned reports whether the model uses the append-only lifecycle.
func (m Model) Versioned() bool {
	return m.Lifecycle == LifecycleVersioned
}
