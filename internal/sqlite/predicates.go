package sqlite

import (
	"fmt"
	"strings"
	"time"

	"github.com/mesh-intelligence/larder/pkg/query"
	"github.com/mesh-intelligence/larder/pkg/types"
)

// columnExpr resolves a logical field to a SQL expression: base fields
// map to their columns, declared data fields to a json_extract on the
// data document. Unresolvable names report false and are ignored by
// callers, matching the tolerant-by-default policy.
func columnExpr(model types.Model, field string) (string, bool) {
	col, ok := model.Column(field)
	if !ok {
		return "", false
	}
	if col.Base {
		return col.Name, true
	}
	return fmt.Sprintf("json_extract(data, '$.%s')", col.Name), true
}

// compilePredicates renders a WHERE clause joined with AND. Predicates
// whose field does not resolve against the model are dropped silently.
func compilePredicates(model types.Model, preds []query.Predicate) (string, []any) {
	var conditions []string
	var args []any
	for _, p := range preds {
		expr, ok := columnExpr(model, p.Field)
		if !ok {
			continue
		}
		cond, condArgs := compileCondition(expr, p)
		if cond == "" {
			continue
		}
		conditions = append(conditions, cond)
		args = append(args, condArgs...)
	}
	return strings.Join(conditions, " AND "), args
}

// compileCondition renders one predicate against a column expression.
func compileCondition(expr string, p query.Predicate) (string, []any) {
	switch p.Op {
	case query.OpEq:
		if p.Value == nil {
			return expr + " IS NULL", nil
		}
		return expr + " = ?", []any{predicateArg(p.Value)}
	case query.OpNe:
		if p.Value == nil {
			return expr + " IS NOT NULL", nil
		}
		return expr + " != ?", []any{predicateArg(p.Value)}
	case query.OpLt:
		return expr + " < ?", []any{predicateArg(p.Value)}
	case query.OpLte:
		return expr + " <= ?", []any{predicateArg(p.Value)}
	case query.OpGt:
		return expr + " > ?", []any{predicateArg(p.Value)}
	case query.OpGte:
		return expr + " >= ?", []any{predicateArg(p.Value)}
	case query.OpIn:
		return compileIn(expr, p.Value)
	case query.OpPrefix:
		return likeCondition(expr, escapeLike(p.Value)+"%")
	case query.OpSuffix:
		return likeCondition(expr, "%"+escapeLike(p.Value))
	case query.OpSubstr:
		return likeCondition(expr, "%"+escapeLike(p.Value)+"%")
	default:
		return "", nil
	}
}

// compileIn renders a membership test. An empty list matches nothing.
func compileIn(expr string, value any) (string, []any) {
	items, ok := value.([]any)
	if !ok {
		items = []any{value}
	}
	if len(items) == 0 {
		return "1 = 0", nil
	}
	placeholders := make([]string, len(items))
	args := make([]any, len(items))
	for i, item := range items {
		placeholders[i] = "?"
		args[i] = predicateArg(item)
	}
	return fmt.Sprintf("%s IN (%s)", expr, strings.Join(placeholders, ", ")), args
}

// likeCondition renders a case-insensitive pattern match. SQLite LIKE
// is case-insensitive for ASCII by default.
func likeCondition(expr, pattern string) (string, []any) {
	return expr + ` LIKE ? ESCAPE '\'`, []any{pattern}
}

// escapeLike neutralizes LIKE metacharacters in a user value.
func escapeLike(value any) string {
	s := fmt.Sprintf("%v", value)
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}

// predicateArg converts a predicate value to its stored representation.
func predicateArg(v any) any {
	switch t := v.(type) {
	case time.Time:
		return t.UTC().Format(timeLayout)
	case bool:
		if t {
			return 1
		}
		return 0
	default:
		return v
	}
}
