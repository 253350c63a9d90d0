// Tests for query plan construction.
package query

import (
	"testing"
	"time"

	"github.com/mesh-intelligence/larder/pkg/types"
)

func testModel() types.Model {
	return types.Model{
		Name:      "notes",
		Lifecycle: types.LifecycleVersioned,
		Fields: []types.Field{
			{Name: "body", Kind: types.KindString},
			{Name: "age", Kind: types.KindNumber},
			{Name: "pinned", Kind: types.KindBoolean},
		},
	}
}

func TestBuild_Defaults(t *testing.T) {
	plan := Build(testModel(), nil)

	if plan.Page != 1 {
		t.Errorf("default page = %d, want 1", plan.Page)
	}
	if plan.Limit != MaxLimit {
		t.Errorf("default limit = %d, want %d", plan.Limit, MaxLimit)
	}
	if plan.Offset != 0 {
		t.Errorf("default offset = %d, want 0", plan.Offset)
	}
	if len(plan.Order) != 1 || plan.Order[0].Field != types.FieldCreatedAt || !plan.Order[0].Desc {
		t.Errorf("default order = %+v, want created_at desc", plan.Order)
	}
	if plan.IncludeDeleted {
		t.Error("deleted rows must be excluded by default")
	}
	// The implicit not-deleted predicate comes first.
	if len(plan.Predicates) != 1 || plan.Predicates[0].Field != types.FieldDeletedAt {
		t.Errorf("predicates = %+v, want implicit deleted_at is-null", plan.Predicates)
	}
	if plan.Predicates[0].Op != OpEq || plan.Predicates[0].Value != nil {
		t.Errorf("implicit predicate = %+v, want eq nil", plan.Predicates[0])
	}
}

func TestBuild_IncludeDeleted(t *testing.T) {
	plan := Build(testModel(), map[string]any{"deleted": "true"})
	if !plan.IncludeDeleted {
		t.Error("deleted=true must include deleted rows")
	}
	if len(plan.Predicates) != 0 {
		t.Errorf("no implicit predicate expected, got %+v", plan.Predicates)
	}
}

func TestBuild_DropsUnknownFields(t *testing.T) {
	plan := Build(testModel(), map[string]any{
		"body":    "hello",
		"missing": "x",
		"nope_gt": 1,
		"age_gt":  30,
		"deleted": "true",
	})
	if len(plan.Predicates) != 2 {
		t.Fatalf("predicates = %+v, want only age and body", plan.Predicates)
	}
	if plan.Predicates[0].Field != "age" || plan.Predicates[1].Field != "body" {
		t.Errorf("unexpected predicates %+v", plan.Predicates)
	}
}

func TestBuild_ResolvesBaseFields(t *testing.T) {
	plan := Build(testModel(), map[string]any{
		"name_prefix": "draft",
		"deleted":     "true",
	})
	if len(plan.Predicates) != 1 || plan.Predicates[0].Field != types.FieldName {
		t.Errorf("base field name must resolve, got %+v", plan.Predicates)
	}
}

func TestBuild_Pagination(t *testing.T) {
	tests := []struct {
		name       string
		params     map[string]any
		wantPage   int
		wantLimit  int
		wantOffset int
	}{
		{"page and limit", map[string]any{"page": 3, "limit": 5}, 3, 5, 10},
		{"string values", map[string]any{"page": "2", "limit": "10"}, 2, 10, 10},
		{"zero page clamps to one", map[string]any{"page": 0}, 1, MaxLimit, 0},
		{"negative page clamps to one", map[string]any{"page": -4}, 1, MaxLimit, 0},
		{"zero limit clamps to min", map[string]any{"limit": 0}, 1, MinLimit, 0},
		{"oversize limit clamps to max", map[string]any{"limit": 5000}, 1, MaxLimit, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := Build(testModel(), tt.params)
			if plan.Page != tt.wantPage {
				t.Errorf("page = %d, want %d", plan.Page, tt.wantPage)
			}
			if plan.Limit != tt.wantLimit {
				t.Errorf("limit = %d, want %d", plan.Limit, tt.wantLimit)
			}
			if plan.Offset != tt.wantOffset {
				t.Errorf("offset = %d, want %d", plan.Offset, tt.wantOffset)
			}
		})
	}
}

func TestBuild_Sort(t *testing.T) {
	plan := Build(testModel(), map[string]any{"sort": "desc_updated_at, name"})
	if len(plan.Order) != 2 {
		t.Fatalf("order = %+v, want 2 terms", plan.Order)
	}
	if plan.Order[0].Field != types.FieldUpdatedAt || !plan.Order[0].Desc {
		t.Errorf("first term = %+v, want updated_at desc", plan.Order[0])
	}
	if plan.Order[1].Field != types.FieldName || plan.Order[1].Desc {
		t.Errorf("second term = %+v, want name asc", plan.Order[1])
	}
}

func TestBuild_SortFallback(t *testing.T) {
	// A sort expression where nothing resolves falls back to the
	// default order rather than leaving the plan unordered.
	plan := Build(testModel(), map[string]any{"sort": "bogus,desc_other"})
	if len(plan.Order) != 1 || plan.Order[0].Field != types.FieldCreatedAt || !plan.Order[0].Desc {
		t.Errorf("order = %+v, want created_at desc fallback", plan.Order)
	}
}

func TestBuild_Select(t *testing.T) {
	plan := Build(testModel(), map[string]any{"select": "body, pinned, bogus"})
	if len(plan.Projection) != 2 {
		t.Fatalf("projection = %+v, want body and pinned", plan.Projection)
	}
	if plan.Projection[0] != "body" || plan.Projection[1] != "pinned" {
		t.Errorf("projection = %+v", plan.Projection)
	}
}

func TestBuild_CoercesValuesByKind(t *testing.T) {
	plan := Build(testModel(), map[string]any{
		"age_gt":         "30",
		"pinned":         "true",
		"created_at_gte": "2026-08-01T10:00:00Z",
		"body":           "hello",
		"deleted":        "true",
	})
	if len(plan.Predicates) != 4 {
		t.Fatalf("predicates = %+v, want 4", plan.Predicates)
	}

	byField := map[string]Predicate{}
	for _, p := range plan.Predicates {
		byField[p.Field] = p
	}

	// Request strings become the declared kinds, so the SQL backend and
	// the in-engine evaluator compare typed values the same way.
	if v, ok := byField["age"].Value.(float64); !ok || v != 30 {
		t.Errorf("age value = %#v, want float64 30", byField["age"].Value)
	}
	if v, ok := byField["pinned"].Value.(bool); !ok || !v {
		t.Errorf("pinned value = %#v, want bool true", byField["pinned"].Value)
	}
	ts, ok := byField["created_at"].Value.(time.Time)
	if !ok || !ts.Equal(time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("created_at value = %#v, want parsed time", byField["created_at"].Value)
	}
	if byField["body"].Value != "hello" {
		t.Errorf("string field must pass through, got %#v", byField["body"].Value)
	}
}

func TestBuild_CoercesMembershipLists(t *testing.T) {
	plan := Build(testModel(), map[string]any{
		"age_in":  []any{"1", "2", 3},
		"deleted": "true",
	})
	if len(plan.Predicates) != 1 {
		t.Fatalf("predicates = %+v", plan.Predicates)
	}
	list, ok := plan.Predicates[0].Value.([]any)
	if !ok {
		t.Fatalf("value = %#v, want list", plan.Predicates[0].Value)
	}
	for i, item := range list {
		if _, ok := item.(float64); !ok {
			t.Errorf("item %d = %#v, want float64", i, item)
		}
	}
}

func TestBuild_UnconvertibleValuePassesThrough(t *testing.T) {
	plan := Build(testModel(), map[string]any{
		"age_gt":  "not-a-number",
		"deleted": "true",
	})
	if plan.Predicates[0].Value != "not-a-number" {
		t.Errorf("value = %#v, want the raw string", plan.Predicates[0].Value)
	}
}

func TestBuild_SharedPredicates(t *testing.T) {
	// The data and count queries must see the same predicate list so
	// a page and its total can never disagree on the filter.
	plan := Build(testModel(), map[string]any{
		"age_gt":      30,
		"name_substr": "ann",
	})
	if len(plan.Predicates) != 3 {
		t.Fatalf("predicates = %+v, want implicit not-deleted plus two filters", plan.Predicates)
	}
}
