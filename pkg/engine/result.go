package engine

import "github.com/mesh-intelligence/larder/pkg/types"

// ListResult is the outcome of a list operation. RecordCount is the
// total number of records matching the filter set, computed from the
// same predicates as the returned page. Degraded marks an empty result
// that stands in for a failed backend read; callers that need to tell
// "no rows matched" from "query failed" check the flag.
type ListResult struct {
	Records     []*types.Record `json:"records"`
	RecordCount int             `json:"record_count"`
	Degraded    bool            `json:"-"`
}

// CountResult is the outcome of a count operation, with the same
// degradation semantics as ListResult.
type CountResult struct {
	Count    int  `json:"count"`
	Degraded bool `json:"-"`
}
