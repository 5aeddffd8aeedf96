package repository

// Query describes a declarative read over a collection. Filter, Sort and
// Projection are decoded JSON objects handed to the store verbatim; a nil map
// means the parameter was absent.
type Query struct {
	Filter     map[string]interface{}
	Sort       map[string]interface{}
	Projection map[string]interface{}
	Skip       int64
	Limit      int64
	Count      bool
}

// HasFilter reports whether the query carries a non-empty filter.
func (q Query) HasFilter() bool {
	return len(q.Filter) > 0
}
