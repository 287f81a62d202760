package query

// Op identifies a comparison operator in a condition.
type Op string

const (
	OpEq       Op = "eq"
	OpNe       Op = "ne"
	OpGt       Op = "gt"
	OpGe       Op = "ge"
	OpLt       Op = "lt"
	OpLe       Op = "le"
	OpIn       Op = "in"
	OpContains Op = "contains"
	OpMatches  Op = "matches"
)

// Condition is a single field predicate.
type Condition struct {
	Field  string
	Op     Op
	Value  interface{}
	Negate bool
}

// Query is a filter over data objects plus sorting and paging directives.
// A nil or empty query matches every object. All conditions added with
// Where/And must hold; Or attaches alternative branches.
type Query struct {
	conditions []Condition
	ors        []*Query
	skip       int
	take       int
	sortBy     string
	reverse    bool
}

// Criterion is a partially built condition awaiting its operator.
type Criterion struct {
	query  *Query
	field  string
	negate bool
}

// New returns an empty query that matches every object.
func New() *Query {
	return &Query{}
}

// Where starts a query with a condition on the given exported field name.
func Where(field string) *Criterion {
	return &Criterion{query: &Query{}, field: field}
}

// And adds a further condition that must also hold.
func (q *Query) And(field string) *Criterion {
	return &Criterion{query: q, field: field}
}

// Or attaches an alternative branch: an object matches if it satisfies
// either this query's conditions or the other query's.
func (q *Query) Or(other *Query) *Query {
	q.ors = append(q.ors, other)
	return q
}

// Skip discards the first n results after filtering and sorting.
func (q *Query) Skip(n int) *Query {
	q.skip = n
	return q
}

// Take limits the result to n objects. Zero or negative means no limit.
func (q *Query) Take(n int) *Query {
	q.take = n
	return q
}

// SortBy orders results by the given exported field name.
func (q *Query) SortBy(field string) *Query {
	q.sortBy = field
	return q
}

// Reverse flips the sort order.
func (q *Query) Reverse() *Query {
	q.reverse = !q.reverse
	return q
}

// Not negates the next operator.
func (c *Criterion) Not() *Criterion {
	c.negate = !c.negate
	return c
}

func (c *Criterion) add(op Op, value interface{}) *Query {
	c.query.conditions = append(c.query.conditions, Condition{
		Field:  c.field,
		Op:     op,
		Value:  value,
		Negate: c.negate,
	})
	return c.query
}

// Eq matches objects whose field equals value.
func (c *Criterion) Eq(value interface{}) *Query { return c.add(OpEq, value) }

// Ne matches objects whose field differs from value.
func (c *Criterion) Ne(value interface{}) *Query { return c.add(OpNe, value) }

// Gt matches objects whose field is greater than value.
func (c *Criterion) Gt(value interface{}) *Query { return c.add(OpGt, value) }

// Ge matches objects whose field is greater than or equal to value.
func (c *Criterion) Ge(value interface{}) *Query { return c.add(OpGe, value) }

// Lt matches objects whose field is less than value.
func (c *Criterion) Lt(value interface{}) *Query { return c.add(OpLt, value) }

// Le matches objects whose field is less than or equal to value.
func (c *Criterion) Le(value interface{}) *Query { return c.add(OpLe, value) }

// In matches objects whose field equals any of the given values.
func (c *Criterion) In(values ...interface{}) *Query { return c.add(OpIn, values) }

// Contains matches string fields containing value as a substring, and
// slice fields containing value as an element.
func (c *Criterion) Contains(value interface{}) *Query { return c.add(OpContains, value) }

// Matches matches string fields against the given regular expression.
func (c *Criterion) Matches(pattern string) *Query { return c.add(OpMatches, pattern) }

// Conditions returns the flat conditions added with Where/And.
func (q *Query) Conditions() []Condition {
	if q == nil {
		return nil
	}
	return q.conditions
}

// OrGroups returns the alternative branches attached with Or.
func (q *Query) OrGroups() []*Query {
	if q == nil {
		return nil
	}
	return q.ors
}

// HasOrGroups reports whether the query carries alternative branches.
func (q *Query) HasOrGroups() bool {
	return q != nil && len(q.ors) > 0
}

// Offset returns the number of results to skip.
func (q *Query) Offset() int {
	if q == nil {
		return 0
	}
	return q.skip
}

// Limit returns the maximum number of results, zero meaning no limit.
func (q *Query) Limit() int {
	if q == nil {
		return 0
	}
	return q.take
}

// SortField returns the field results are sorted by, empty if unsorted.
func (q *Query) SortField() string {
	if q == nil {
		return ""
	}
	return q.sortBy
}

// IsReverse reports whether the sort order is reversed.
func (q *Query) IsReverse() bool {
	return q != nil && q.reverse
}
