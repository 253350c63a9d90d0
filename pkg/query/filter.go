package query

import (
	"sort"
	"strings"

	"github.com/spf13/cast"
)

// Operator identifies a predicate comparison.
type Operator string

// Recognized operators. Eq is the default when a parameter key carries
// no operator suffix.
const (
	OpEq     Operator = "eq"
	OpNe     Operator = "ne"
	OpLt     Operator = "lt"
	OpLte    Operator = "lte"
	OpGt     Operator = "gt"
	OpGte    Operator = "gte"
	OpIn     Operator = "in"
	OpPrefix Operator = "prefix"
	OpSuffix Operator = "suffix"
	OpSubstr Operator = "substr"
)

// Predicate is one (field, operator, value) filter term. Predicates
// within a plan combine with implicit AND.
type Predicate struct {
	Field string
	Op    Operator
	Value any
}

// Reserved control keys. These never compile into predicates.
const (
	KeyPage    = "page"
	KeyLimit   = "limit"
	KeySort    = "sort"
	KeySelect  = "select"
	KeyDeleted = "deleted"
)

var reservedKeys = map[string]bool{
	KeyPage:    true,
	KeyLimit:   true,
	KeySort:    true,
	KeySelect:  true,
	KeyDeleted: true,
}

// Reserved reports whether key is a control key rather than a filter term.
func Reserved(key string) bool {
	return reservedKeys[key]
}

// operatorSuffixes lists the recognized key suffixes, most specific
// first, so that "_lte" wins over "_lt" and the six-character text
// operators are tried before the shorter comparison ones.
var operatorSuffixes = []struct {
	suffix string
	op     Operator
}{
	{"_prefix", OpPrefix},
	{"_suffix", OpSuffix},
	{"_substr", OpSubstr},
	{"_lte", OpLte},
	{"_gte", OpGte},
	{"_ne", OpNe},
	{"_lt", OpLt},
	{"_gt", OpGt},
	{"_in", OpIn},
}

// Parse compiles request parameters into a predicate list. Reserved
// control keys are skipped. Unknown fields are kept; they are dropped
// later, when the plan is resolved against a model descriptor. The
// result is ordered by parameter key so that compilation is
// deterministic.
func Parse(params map[string]any) []Predicate {
	keys := make([]string, 0, len(params))
	for k := range params {
		if Reserved(k) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	preds := make([]Predicate, 0, len(keys))
	for _, k := range keys {
		preds = append(preds, compileTerm(k, params[k]))
	}
	return preds
}

// compileTerm infers the operator from the key suffix and extracts the
// field name. A key that is nothing but a suffix (for example "_in")
// compiles as an equality on the literal key.
func compileTerm(key string, value any) Predicate {
	for _, s := range operatorSuffixes {
		field, found := strings.CutSuffix(key, s.suffix)
		if !found || field == "" {
			continue
		}
		if s.op == OpIn {
			value = coerceList(value)
		}
		return Predicate{Field: field, Op: s.op, Value: value}
	}
	return Predicate{Field: key, Op: OpEq, Value: value}
}

// coerceList wraps a scalar membership value into a one-element list.
// List-shaped values pass through unchanged.
func coerceList(value any) []any {
	switch v := value.(type) {
	case []any:
		return v
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	}
	if vs, err := cast.ToSliceE(value); err == nil {
		return vs
	}
	return []any{value}
}

// Serialize is the exact inverse of Parse: equality terms serialize as
// the bare field name, every other operator as "<field>_<operator>".
// Parse(Serialize(p)) yields an equivalent predicate set.
func Serialize(preds []Predicate) map[string]any {
	params := make(map[string]any, len(preds))
	for _, p := range preds {
		if p.Op == OpEq {
			params[p.Field] = p.Value
			continue
		}
		params[p.Field+"_"+string(p.Op)] = p.Value
	}
	return params
}
