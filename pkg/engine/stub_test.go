// In-memory backend used by the engine unit tests.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/mesh-intelligence/larder/pkg/query"
	"github.com/mesh-intelligence/larder/pkg/types"
)

// stubBackend keeps rows per model in memory and supports the equality
// predicates the engine issues. Error fields inject backend faults.
type stubBackend struct {
	mu   sync.Mutex
	rows map[string][]*types.Record

	ensured []string

	insertErr error
	selectErr error
	updateErr error
	countErr  error

	insertCalls int
	countCalls  int
}

func newStubBackend() *stubBackend {
	return &stubBackend{rows: make(map[string][]*types.Record)}
}

func (b *stubBackend) Attach(config types.Config) error { return nil }
func (b *stubBackend) Detach() error                    { return nil }

func (b *stubBackend) EnsureTable(model types.Model) error {
	b.ensured = append(b.ensured, model.Name)
	return nil
}

func (b *stubBackend) seed(model string, recs ...*types.Record) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rows[model] = append(b.rows[model], recs...)
}

func (b *stubBackend) Insert(ctx context.Context, model types.Model, records []*types.Record) ([]*types.Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.insertCalls++
	if b.insertErr != nil {
		return nil, b.insertErr
	}
	for _, r := range records {
		b.rows[model.Name] = append(b.rows[model.Name], r.Clone())
	}
	return records, nil
}

func (b *stubBackend) Update(ctx context.Context, model types.Model, set map[string]any, preds []query.Predicate) ([]*types.Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.updateErr != nil {
		return nil, b.updateErr
	}
	var updated []*types.Record
	for _, r := range b.rows[model.Name] {
		if !matchAll(r, preds) {
			continue
		}
		applySet(r, set)
		updated = append(updated, r.Clone())
	}
	return updated, nil
}

func (b *stubBackend) Count(ctx context.Context, model types.Model, preds []query.Predicate) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.countCalls++
	if b.countErr != nil {
		return 0, b.countErr
	}
	n := 0
	for _, r := range b.rows[model.Name] {
		if matchAll(r, preds) {
			n++
		}
	}
	return n, nil
}

func (b *stubBackend) Select(model types.Model) Selection {
	return &stubSelection{backend: b, model: model, limit: -1}
}

type stubSelection struct {
	backend *stubBackend
	model   types.Model
	preds   []query.Predicate
	orders  []query.Order
	limit   int
	offset  int
}

func (s *stubSelection) Where(preds []query.Predicate) Selection {
	s.preds = preds
	return s
}

func (s *stubSelection) OrderBy(orders []query.Order) Selection {
	s.orders = orders
	return s
}

func (s *stubSelection) Limit(n int) Selection {
	s.limit = n
	return s
}

func (s *stubSelection) Offset(n int) Selection {
	s.offset = n
	return s
}

func (s *stubSelection) Rows(ctx context.Context) ([]*types.Record, error) {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	if s.backend.selectErr != nil {
		return nil, s.backend.selectErr
	}
	var out []*types.Record
	for _, r := range s.backend.rows[s.model.Name] {
		if matchAll(r, s.preds) {
			out = append(out, r.Clone())
		}
	}
	sortRecords(out, s.orders)
	if s.offset > 0 {
		if s.offset >= len(out) {
			out = nil
		} else {
			out = out[s.offset:]
		}
	}
	if s.limit >= 0 && s.limit < len(out) {
		out = out[:s.limit]
	}
	return out, nil
}

// matchAll supports the equality predicates the engine issues for
// version resolution and targeted writes.
func matchAll(r *types.Record, preds []query.Predicate) bool {
	for _, p := range preds {
		if p.Op != query.OpEq {
			continue
		}
		v := fieldValue(r, p.Field)
		if p.Value == nil {
			if v != nil {
				return false
			}
			continue
		}
		if compareValues(v, p.Value) != 0 {
			return false
		}
	}
	return true
}

func applySet(r *types.Record, set map[string]any) {
	for field, value := range set {
		switch field {
		case types.FieldName:
			r.Name = value.(string)
		case types.FieldData:
			r.Data = value.(map[string]any)
		case types.FieldUpdatedAt:
			r.UpdatedAt = value.(time.Time)
		case types.FieldDeletedAt:
			t := value.(time.Time)
			r.DeletedAt = &t
		}
	}
}
