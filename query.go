package dax

import (
	"fmt"
	"regexp"
)

// Op enumerates the comparison operators a filter may use.
type Op string

const (
	OpEq   Op = "eq"
	OpNeq  Op = "neq"
	OpGt   Op = "gt"
	OpGte  Op = "gte"
	OpLt   Op = "lt"
	OpLte  Op = "lte"
	OpLike Op = "like"
	OpIn   Op = "in"
)

// Filter is a single column comparison. Value is bound as a query parameter,
// never interpolated.
type Filter struct {
	Field string `json:"field" yaml:"field"`
	Op    Op     `json:"op" yaml:"op"`
	Value any    `json:"value" yaml:"value"`
}

// Sort is a single ordering term.
type Sort struct {
	Field string `json:"field" yaml:"field"`
	Desc  bool   `json:"desc" yaml:"desc"`
}

// Query is a serializable specification of filters, ordering and windowing.
// It replaces passing live query builders across the repository boundary:
// callers describe what they want as data and the repository translates it.
//
// The zero value and a nil *Query both mean "match everything".
type Query struct {
	filters []Filter
	sorts   []Sort
	limit   int
	offset  int
}

// NewQuery returns an empty specification.
func NewQuery() *Query {
	return &Query{}
}

// Where appends a filter term. Terms are combined with AND.
func (q *Query) Where(field string, op Op, value any) *Query {
	q.filters = append(q.filters, Filter{Field: field, Op: op, Value: value})
	return q
}

// OrderBy appends an ordering term.
func (q *Query) OrderBy(field string, desc bool) *Query {
	q.sorts = append(q.sorts, Sort{Field: field, Desc: desc})
	return q
}

// Limit caps the number of rows returned by Query. Zero means no cap.
func (q *Query) Limit(n int) *Query {
	q.limit = n
	return q
}

// Offset skips the first n rows. Zero means no skip.
func (q *Query) Offset(n int) *Query {
	q.offset = n
	return q
}

// Filters returns the accumulated filter terms.
func (q *Query) Filters() []Filter {
	if q == nil {
		return nil
	}
	return q.filters
}

// Sorts returns the accumulated ordering terms.
func (q *Query) Sorts() []Sort {
	if q == nil {
		return nil
	}
	return q.sorts
}

// Window returns the limit and offset.
func (q *Query) Window() (limit, offset int) {
	if q == nil {
		return 0, 0
	}
	return q.limit, q.offset
}

var columnPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var validOps = map[Op]struct{}{
	OpEq: {}, OpNeq: {}, OpGt: {}, OpGte: {}, OpLt: {}, OpLte: {}, OpLike: {}, OpIn: {},
}

// Validate checks field names against a strict identifier pattern and rejects
// unknown operators and negative windows. It runs before any I/O.
func (q *Query) Validate() error {
	if q == nil {
		return nil
	}
	for _, f := range q.filters {
		if !columnPattern.MatchString(f.Field) {
			return fmt.Errorf("query: invalid filter field %q", f.Field)
		}
		if _, ok := validOps[f.Op]; !ok {
			return fmt.Errorf("query: unknown operator %q", f.Op)
		}
	}
	for _, s := range q.sorts {
		if !columnPattern.MatchString(s.Field) {
			return fmt.Errorf("query: invalid sort field %q", s.Field)
		}
	}
	if q.limit < 0 {
		return fmt.Errorf("query: limit cannot be negative")
	}
	if q.offset < 0 {
		return fmt.Errorf("query: offset cannot be negative")
	}
	return nil
}
