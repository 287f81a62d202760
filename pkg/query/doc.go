// Package query provides predicate expressions for filtering data objects.
//
// Queries are built fluently, in the same shape the stores consume them:
//
//	q := query.Where("Project").Eq("home").And("Priority").Ge(int64(2)).
//		SortBy("DueAt").Skip(10).Take(5)
//
// It supports:
//   - Comparison operators: Eq, Ne, Gt, Ge, Lt, Le
//   - Membership and text operators: In, Contains, Matches (regexp)
//   - Negation via Not and alternative branches via Or
//   - Stable sorting by field, with optional Reverse
//   - Skip/Take pagination applied after filtering and sorting
//
// Conditions evaluate against arbitrary structs by reflecting on exported
// fields, including fields promoted from embedded structs. Flat conditions
// have a wire form ("Field op jsonValue") so the REST backend can carry
// them as query string parameters.
package query
