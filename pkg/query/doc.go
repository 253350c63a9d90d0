// Package query compiles flat string-keyed request parameters into
// backend-neutral query plans: an ordered predicate list, an ordering
// list, a projection list, and clamped pagination.
package query
