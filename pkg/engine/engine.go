package engine

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/larder/pkg/query"
	"github.com/mesh-intelligence/larder/pkg/types"
)

// Engine is the public operation surface. It holds no mutable state
// beyond the model registry, which is populated during a startup phase
// and read-mostly afterwards; all data operations delegate to the
// backend and may run concurrently across unrelated requests.
type Engine struct {
	mu       sync.RWMutex
	backend  Backend
	models   map[string]types.Model
	validate *validator.Validate
	log      zerolog.Logger
}

// New creates an engine on top of an attached backend.
func New(backend Backend, opts ...Option) *Engine {
	e := &Engine{
		backend:  backend,
		models:   make(map[string]types.Model),
		validate: validator.New(),
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// identPattern restricts model and field names to safe identifiers.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Register adds a model to the registry and prepares its table.
// Registration is meant for the startup phase; it must not race with
// in-flight operations on the same engine.
func (e *Engine) Register(model types.Model) error {
	if err := e.validate.Struct(model); err != nil {
		return fmt.Errorf("%w: %v", types.ErrModelInvalid, err)
	}
	if !identPattern.MatchString(model.Name) {
		return fmt.Errorf("%w: model name %q", types.ErrModelInvalid, model.Name)
	}
	seen := make(map[string]bool, len(model.Fields))
	for _, f := range model.Fields {
		if !identPattern.MatchString(f.Name) {
			return fmt.Errorf("%w: field name %q", types.ErrModelInvalid, f.Name)
		}
		if seen[f.Name] {
			return fmt.Errorf("%w: duplicate field %q", types.ErrModelInvalid, f.Name)
		}
		if col, ok := model.Column(f.Name); ok && col.Base {
			return fmt.Errorf("%w: field %q shadows a base column", types.ErrModelInvalid, f.Name)
		}
		seen[f.Name] = true
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.models[model.Name]; exists {
		return fmt.Errorf("%w: %s", types.ErrModelExists, model.Name)
	}
	if err := e.backend.EnsureTable(model); err != nil {
		return fmt.Errorf("ensure table %s: %w", model.Name, err)
	}
	e.models[model.Name] = model
	return nil
}

// Model returns the registered descriptor for name.
// Returns types.ErrModelNotFound for unknown names, before any I/O.
func (e *Engine) Model(name string) (types.Model, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	m, ok := e.models[name]
	if !ok {
		return types.Model{}, fmt.Errorf("%w: %s", types.ErrModelNotFound, name)
	}
	return m, nil
}

// Models returns the registered model names.
func (e *Engine) Models() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := make([]string, 0, len(e.models))
	for name := range e.models {
		names = append(names, name)
	}
	return names
}

// Create inserts a new entity and returns the stored record. The
// entity gets a fresh logical ID, a fresh physical ID, and matching
// creation and update timestamps.
func (e *Engine) Create(ctx context.Context, model string, payload types.Payload) (*types.Record, error) {
	m, err := e.Model(model)
	if err != nil {
		return nil, err
	}
	rec, err := newRecord(m, payload)
	if err != nil {
		return nil, err
	}
	out, err := e.backend.Insert(ctx, m, []*types.Record{rec})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", model, err)
	}
	return out[0], nil
}

// BulkCreate inserts the payloads as one batch. Each item gets an
// independent fresh identity; the whole batch fails together if the
// backend rejects it. Partial success is not supported.
func (e *Engine) BulkCreate(ctx context.Context, model string, payloads []types.Payload) ([]*types.Record, error) {
	m, err := e.Model(model)
	if err != nil {
		return nil, err
	}
	records := make([]*types.Record, 0, len(payloads))
	for _, p := range payloads {
		rec, err := newRecord(m, p)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	out, err := e.backend.Insert(ctx, m, records)
	if err != nil {
		return nil, fmt.Errorf("bulk create %s: %w", model, err)
	}
	return out, nil
}

// Get returns the current version of the entity with the given logical
// ID, scoped to workspaceID for versioned models. Returns
// types.ErrNotFound when no active row resolves; backend faults
// propagate.
func (e *Engine) Get(ctx context.Context, model, workspaceID, id string) (*types.Record, error) {
	m, err := e.Model(model)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, types.ErrInvalidID
	}
	return e.resolveCurrent(ctx, m, workspaceID, id)
}

// List returns the page of records matching the request parameters
// together with the total record count for the same predicate set.
// Backend faults degrade to an empty result tagged Degraded rather
// than propagating.
func (e *Engine) List(ctx context.Context, model string, params map[string]any) (ListResult, error) {
	m, err := e.Model(model)
	if err != nil {
		return ListResult{}, err
	}
	plan := query.Build(m, params)
	if m.Versioned() {
		return e.listVersioned(ctx, m, plan), nil
	}
	return e.listSingle(ctx, m, plan), nil
}

// Count returns the number of records matching the request parameters,
// with the same degradation policy as List.
func (e *Engine) Count(ctx context.Context, model string, params map[string]any) (CountResult, error) {
	m, err := e.Model(model)
	if err != nil {
		return CountResult{}, err
	}
	plan := query.Build(m, params)
	if m.Versioned() {
		reduced, err := e.currentVersions(ctx, m, plan)
		if err != nil {
			e.log.Warn().Err(err).Str("model", m.Name).Msg("count degraded to zero")
			return CountResult{Degraded: true}, nil
		}
		return CountResult{Count: len(reduced)}, nil
	}
	n, err := e.backend.Count(ctx, m, plan.Predicates)
	if err != nil {
		e.log.Warn().Err(err).Str("model", m.Name).Msg("count degraded to zero")
		return CountResult{Degraded: true}, nil
	}
	return CountResult{Count: n}, nil
}

// Update advances the entity. Versioned models append a new physical
// row that copy-forwards the prior version's name and data, shallow-
// merging the patch over them; the logical ID and original creation
// time are preserved. Single-row models mutate the row in place.
// Returns types.ErrNotFound when no active version resolves; nothing
// is written in that case.
func (e *Engine) Update(ctx context.Context, model, workspaceID, id string, patch types.Payload) (*types.Record, error) {
	m, err := e.Model(model)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, types.ErrInvalidID
	}
	current, err := e.resolveCurrent(ctx, m, workspaceID, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if m.Versioned() {
		next := current.Clone()
		next.RowID = newUUID()
		next.UpdatedAt = now
		if patch.Name != "" {
			next.Name = patch.Name
		}
		next.Data = mergeData(current.Data, patch.Data)
		out, err := e.backend.Insert(ctx, m, []*types.Record{next})
		if err != nil {
			return nil, fmt.Errorf("update %s/%s: %w", model, id, err)
		}
		return out[0], nil
	}

	set := map[string]any{
		types.FieldUpdatedAt: now,
		types.FieldData:      mergeData(current.Data, patch.Data),
	}
	if patch.Name != "" {
		set[types.FieldName] = patch.Name
	}
	rows, err := e.backend.Update(ctx, m, set, currentRowPredicates(current))
	if err != nil {
		return nil, fmt.Errorf("update %s/%s: %w", model, id, err)
	}
	if len(rows) == 0 {
		return nil, types.ErrNotFound
	}
	return rows[0], nil
}

// Delete soft-deletes the entity by marking its current physical row.
// It never appends a version and never removes rows. Deleting an
// already-deleted or unknown entity returns types.ErrNotFound; a
// second delete never produces a second deleted row.
func (e *Engine) Delete(ctx context.Context, model, workspaceID, id string) error {
	m, err := e.Model(model)
	if err != nil {
		return err
	}
	if id == "" {
		return types.ErrInvalidID
	}
	current, err := e.resolveCurrent(ctx, m, workspaceID, id)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	set := map[string]any{
		types.FieldDeletedAt: now,
		types.FieldUpdatedAt: now,
	}
	rows, err := e.backend.Update(ctx, m, set, currentRowPredicates(current))
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", model, id, err)
	}
	if len(rows) == 0 {
		return types.ErrNotFound
	}
	return nil
}

// newRecord builds a fresh record from a create payload.
func newRecord(m types.Model, payload types.Payload) (*types.Record, error) {
	if payload.Name == "" {
		return nil, types.ErrInvalidName
	}
	now := time.Now().UTC()
	rec := &types.Record{
		RowID:       newUUID(),
		ID:          newUUID(),
		WorkspaceID: payload.WorkspaceID,
		Name:        payload.Name,
		Data:        mergeData(nil, payload.Data),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if !m.Versioned() {
		rec.RowID = rec.ID
	}
	return rec, nil
}

// mergeData shallow-merges patch over base: patch keys override, other
// keys are retained. Neither input is mutated.
func mergeData(base, patch map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(patch))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range patch {
		merged[k] = v
	}
	return merged
}

// newUUID generates a UUID v7, falling back to v4 if v7 fails.
func newUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
