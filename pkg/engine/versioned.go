package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/mesh-intelligence/larder/pkg/query"
	"github.com/mesh-intelligence/larder/pkg/types"
)

// currentVersionOrder is the total order used to pick the current
// version of an entity: latest update time wins, ties broken by
// creation time, then by physical ID so the choice is deterministic.
func currentVersionOrder() []query.Order {
	return []query.Order{
		{Field: types.FieldUpdatedAt, Desc: true},
		{Field: types.FieldCreatedAt, Desc: true},
		{Field: types.FieldRowID, Desc: true},
	}
}

// resolveCurrent finds the current version of one logical entity: the
// row for (workspace, id) that wins the current-version order. The
// winner is picked over all versions, deleted ones included, so that a
// soft-deleted entity resolves to its deletion mark and reads it as
// gone rather than falling back to an older active version. Workspace
// scoping applies only to versioned models; cross-workspace visibility
// is never permitted.
func (e *Engine) resolveCurrent(ctx context.Context, m types.Model, workspaceID, id string) (*types.Record, error) {
	preds := []query.Predicate{
		{Field: types.FieldID, Op: query.OpEq, Value: id},
	}
	if m.Versioned() {
		preds = append(preds, query.Predicate{
			Field: types.FieldWorkspaceID, Op: query.OpEq, Value: workspaceID,
		})
	}
	rows, err := e.backend.Select(m).
		Where(preds).
		OrderBy(currentVersionOrder()).
		Limit(1).
		Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve %s/%s: %w", m.Name, id, err)
	}
	if len(rows) == 0 || rows[0].Deleted() {
		return nil, types.ErrNotFound
	}
	return rows[0], nil
}

// currentRowPredicates targets the resolved current physical row for a
// write, guarded so a row deleted in between is not touched again.
func currentRowPredicates(current *types.Record) []query.Predicate {
	return []query.Predicate{
		{Field: types.FieldRowID, Op: query.OpEq, Value: current.RowID},
		{Field: types.FieldDeletedAt, Op: query.OpEq, Value: nil},
	}
}

// listSingle serves list for single-row models: the page query and the
// count query run as one concurrent pair over the same predicate set.
func (e *Engine) listSingle(ctx context.Context, m types.Model, plan query.Plan) ListResult {
	countCh := make(chan int, 1)
	errCh := make(chan error, 1)
	go func() {
		n, err := e.backend.Count(ctx, m, plan.Predicates)
		countCh <- n
		errCh <- err
	}()

	rows, err := e.backend.Select(m).
		Where(plan.Predicates).
		OrderBy(plan.Order).
		Limit(plan.Limit).
		Offset(plan.Offset).
		Rows(ctx)
	total, countErr := <-countCh, <-errCh

	if err != nil || countErr != nil {
		if err == nil {
			err = countErr
		}
		e.log.Warn().Err(err).Str("model", m.Name).Msg("list degraded to empty result")
		return ListResult{Records: []*types.Record{}, Degraded: true}
	}
	return ListResult{
		Records:     applyProjection(rows, plan.Projection),
		RecordCount: total,
	}
}

// listVersioned serves list for append-only models. Version history
// must collapse before filters apply: a stale version that matches a
// predicate must not surface its entity, and an entity whose current
// version is the deletion mark must stay hidden even when older active
// rows exist. So the backend fetch carries only the version-invariant
// predicates; reduction to the current version per logical ID, the
// remaining predicates, ordering, and pagination all run in-engine.
// The record count and the page therefore always agree for one filter
// set.
func (e *Engine) listVersioned(ctx context.Context, m types.Model, plan query.Plan) ListResult {
	reduced, err := e.currentVersions(ctx, m, plan)
	if err != nil {
		e.log.Warn().Err(err).Str("model", m.Name).Msg("list degraded to empty result")
		return ListResult{Records: []*types.Record{}, Degraded: true}
	}
	sortRecords(reduced, plan.Order)

	total := len(reduced)
	page := paginate(reduced, plan.Offset, plan.Limit)
	return ListResult{
		Records:     applyProjection(page, plan.Projection),
		RecordCount: total,
	}
}

// currentVersions fetches every version visible to the plan's
// invariant predicates, reduces to the current version per entity, and
// applies the remaining predicates to those current versions.
func (e *Engine) currentVersions(ctx context.Context, m types.Model, plan query.Plan) ([]*types.Record, error) {
	pushdown, resident := splitPredicates(plan.Predicates)
	rows, err := e.backend.Select(m).Where(pushdown).Rows(ctx)
	if err != nil {
		return nil, err
	}

	reduced := reduceLatest(rows)
	out := reduced[:0]
	for _, r := range reduced {
		if matchPredicates(r, resident) {
			out = append(out, r)
		}
	}
	return out, nil
}

// splitPredicates separates the predicates that hold for every version
// of an entity, safe to evaluate in the backend before version
// reduction, from those that must be checked against the current
// version only.
func splitPredicates(preds []query.Predicate) (pushdown, resident []query.Predicate) {
	for _, p := range preds {
		if p.Op == query.OpEq && (p.Field == types.FieldID || p.Field == types.FieldWorkspaceID) {
			pushdown = append(pushdown, p)
			continue
		}
		resident = append(resident, p)
	}
	return pushdown, resident
}

// matchPredicates evaluates predicates against one record in-engine,
// mirroring the backend's comparison semantics: nil-aware equality,
// ordered comparisons through compareValues, and ASCII
// case-insensitive text matching.
func matchPredicates(r *types.Record, preds []query.Predicate) bool {
	for _, p := range preds {
		if !matchPredicate(r, p) {
			return false
		}
	}
	return true
}

func matchPredicate(r *types.Record, p query.Predicate) bool {
	v := fieldValue(r, p.Field)
	switch p.Op {
	case query.OpEq:
		if p.Value == nil {
			return v == nil
		}
		return v != nil && compareValues(v, p.Value) == 0
	case query.OpNe:
		if p.Value == nil {
			return v != nil
		}
		return v == nil || compareValues(v, p.Value) != 0
	case query.OpLt:
		return v != nil && compareValues(v, p.Value) < 0
	case query.OpLte:
		return v != nil && compareValues(v, p.Value) <= 0
	case query.OpGt:
		return v != nil && compareValues(v, p.Value) > 0
	case query.OpGte:
		return v != nil && compareValues(v, p.Value) >= 0
	case query.OpIn:
		items, ok := p.Value.([]any)
		if !ok {
			items = []any{p.Value}
		}
		for _, item := range items {
			if v != nil && compareValues(v, item) == 0 {
				return true
			}
		}
		return false
	case query.OpPrefix:
		return strings.HasPrefix(foldValue(v), foldValue(p.Value))
	case query.OpSuffix:
		return strings.HasSuffix(foldValue(v), foldValue(p.Value))
	case query.OpSubstr:
		return strings.Contains(foldValue(v), foldValue(p.Value))
	default:
		return false
	}
}

func foldValue(v any) string {
	return strings.ToLower(cast.ToString(v))
}

// reduceLatest keeps exactly one row per logical ID: the winner of the
// current-version order.
func reduceLatest(rows []*types.Record) []*types.Record {
	best := make(map[string]*types.Record, len(rows))
	var ids []string
	for _, r := range rows {
		cur, ok := best[r.ID]
		if !ok {
			best[r.ID] = r
			ids = append(ids, r.ID)
			continue
		}
		if newerVersion(r, cur) {
			best[r.ID] = r
		}
	}
	out := make([]*types.Record, 0, len(ids))
	for _, id := range ids {
		out = append(out, best[id])
	}
	return out
}

// newerVersion reports whether a beats b in the current-version order.
func newerVersion(a, b *types.Record) bool {
	if !a.UpdatedAt.Equal(b.UpdatedAt) {
		return a.UpdatedAt.After(b.UpdatedAt)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.RowID > b.RowID
}

// paginate slices records to the [offset, offset+limit) window.
func paginate(records []*types.Record, offset, limit int) []*types.Record {
	if offset >= len(records) {
		return []*types.Record{}
	}
	end := offset + limit
	if end > len(records) {
		end = len(records)
	}
	return records[offset:end]
}

// sortRecords orders records in place by the plan's ordering list.
func sortRecords(records []*types.Record, orders []query.Order) {
	if len(orders) == 0 {
		return
	}
	sort.SliceStable(records, func(i, j int) bool {
		for _, o := range orders {
			c := compareValues(fieldValue(records[i], o.Field), fieldValue(records[j], o.Field))
			if c == 0 {
				continue
			}
			if o.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

// fieldValue reads a logical field from a record: base columns from
// the struct, everything else from the Data document.
func fieldValue(r *types.Record, field string) any {
	switch field {
	case types.FieldRowID:
		return r.RowID
	case types.FieldID:
		return r.ID
	case types.FieldWorkspaceID:
		return r.WorkspaceID
	case types.FieldName:
		return r.Name
	case types.FieldCreatedAt:
		return r.CreatedAt
	case types.FieldUpdatedAt:
		return r.UpdatedAt
	case types.FieldDeletedAt:
		if r.DeletedAt == nil {
			return nil
		}
		return *r.DeletedAt
	default:
		return r.Data[field]
	}
}

// compareValues orders two field values. Nils sort first; times and
// numbers compare natively; everything else compares as strings.
func compareValues(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	if at, ok := a.(time.Time); ok {
		if bt, ok := b.(time.Time); ok {
			switch {
			case at.Before(bt):
				return -1
			case at.After(bt):
				return 1
			default:
				return 0
			}
		}
	}
	af, aerr := cast.ToFloat64E(a)
	bf, berr := cast.ToFloat64E(b)
	if aerr == nil && berr == nil {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	as, bs := cast.ToString(a), cast.ToString(b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	default:
		return 0
	}
}

// applyProjection restricts each record's Data document to the
// projected fields. Base columns are fixed on the record and always
// present; an empty projection returns records unchanged.
func applyProjection(records []*types.Record, projection []string) []*types.Record {
	if len(projection) == 0 {
		if records == nil {
			return []*types.Record{}
		}
		return records
	}
	keep := make(map[string]bool, len(projection))
	for _, f := range projection {
		keep[f] = true
	}
	out := make([]*types.Record, 0, len(records))
	for _, r := range records {
		trimmed := r.Clone()
		for k := range trimmed.Data {
			if !keep[k] {
				delete(trimmed.Data, k)
			}
		}
		out = append(out, trimmed)
	}
	return out
}
