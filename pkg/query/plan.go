package query

import (
	"strings"

	"github.com/spf13/cast"

	"github.com/mesh-intelligence/larder/pkg/types"
)

// Pagination bounds. The clamps apply regardless of caller input;
// a missing limit defaults to the maximum page size.
const (
	MinLimit = 1
	MaxLimit = 100
)

// sortDescPrefix marks a sort field as descending.
const sortDescPrefix = "desc_"

// Order is one ordering term of a plan.
type Order struct {
	Field string
	Desc  bool
}

// Plan is a backend-neutral query: the predicate list shared by the
// data and count queries, the ordering list, the projection list, and
// clamped pagination. Build produces it; backends consume it.
type Plan struct {
	Predicates     []Predicate
	Order          []Order
	Projection     []string
	Page           int
	Limit          int
	Offset         int
	IncludeDeleted bool
}

// defaultOrder is descending by creation time, used when no sort
// expression is given or none of its fields resolve.
func defaultOrder() []Order {
	return []Order{{Field: types.FieldCreatedAt, Desc: true}}
}

// Build compiles request parameters into a Plan for the given model.
// Predicate, sort, and projection fields that the model does not
// declare are dropped silently. Unless deleted=true is supplied, a
// not-deleted predicate is prepended so that every query sees only
// active rows.
func Build(model types.Model, params map[string]any) Plan {
	plan := Plan{
		IncludeDeleted: cast.ToBool(params[KeyDeleted]),
	}

	if !plan.IncludeDeleted {
		plan.Predicates = append(plan.Predicates, Predicate{
			Field: types.FieldDeletedAt,
			Op:    OpEq,
			Value: nil,
		})
	}
	for _, p := range Parse(params) {
		col, ok := model.Column(p.Field)
		if !ok {
			continue
		}
		p.Value = coerceValue(col.Kind, p.Value)
		plan.Predicates = append(plan.Predicates, p)
	}

	plan.Order = parseSort(model, params[KeySort])
	plan.Projection = parseSelect(model, params[KeySelect])

	plan.Page = cast.ToInt(params[KeyPage])
	if plan.Page < 1 {
		plan.Page = 1
	}

	plan.Limit = MaxLimit
	if raw, ok := params[KeyLimit]; ok {
		plan.Limit = clampLimit(cast.ToInt(raw))
	}
	plan.Offset = (plan.Page - 1) * plan.Limit

	return plan
}

// coerceValue converts a predicate value to the field's declared kind,
// so every backend compares typed values instead of raw request
// strings. Membership lists coerce element-wise. A value that does not
// convert passes through unchanged and simply fails to match.
func coerceValue(kind string, value any) any {
	if value == nil {
		return nil
	}
	if list, ok := value.([]any); ok {
		out := make([]any, len(list))
		for i, item := range list {
			out[i] = coerceScalar(kind, item)
		}
		return out
	}
	return coerceScalar(kind, value)
}

func coerceScalar(kind string, value any) any {
	switch kind {
	case types.KindNumber:
		if f, err := cast.ToFloat64E(value); err == nil {
			return f
		}
	case types.KindBoolean:
		if b, err := cast.ToBoolE(value); err == nil {
			return b
		}
	case types.KindTime:
		if t, err := cast.ToTimeE(value); err == nil {
			return t
		}
	}
	return value
}

// clampLimit forces a caller-supplied limit into [MinLimit, MaxLimit].
func clampLimit(limit int) int {
	if limit < MinLimit {
		return MinLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// parseSort compiles a comma-separated sort expression. A "desc_"
// prefix sorts descending on the remainder of the name. Fields the
// model does not declare are dropped; an expression that resolves to
// nothing falls back to the default order, never to no order at all.
func parseSort(model types.Model, raw any) []Order {
	expr := cast.ToString(raw)
	if expr == "" {
		return defaultOrder()
	}

	var orders []Order
	for _, term := range strings.Split(expr, ",") {
		term = strings.TrimSpace(term)
		field, desc := strings.CutPrefix(term, sortDescPrefix)
		if field == "" {
			continue
		}
		if _, ok := model.Column(field); !ok {
			continue
		}
		orders = append(orders, Order{Field: field, Desc: desc})
	}
	if len(orders) == 0 {
		return defaultOrder()
	}
	return orders
}

// parseSelect compiles a comma-separated projection expression.
// Unresolvable names are dropped; an empty result means the full
// record is returned.
func parseSelect(model types.Model, raw any) []string {
	expr := cast.ToString(raw)
	if expr == "" {
		return nil
	}

	var fields []string
	for _, term := range strings.Split(expr, ",") {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		if _, ok := model.Column(term); !ok {
			continue
		}
		fields = append(fields, term)
	}
	return fields
}
