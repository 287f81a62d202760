package query

import (
	"fmt"
	"sort"
)

// Slice filters, sorts, and pages items according to q. It never returns
// a sub-slice of the input, so callers may keep or mutate the result.
func Slice[T any](items []T, q *Query) ([]T, error) {
	out := make([]T, 0, len(items))
	for _, item := range items {
		ok, err := q.Match(item)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, item)
		}
	}

	if field := q.SortField(); field != "" {
		if err := sortByField(out, field, q.IsReverse()); err != nil {
			return nil, err
		}
	}

	return page(out, q.Offset(), q.Limit()), nil
}

// CompareField orders a and b by the given exported field name.
func CompareField(a, b interface{}, field string) (int, error) {
	av, err := fieldValue(a, field)
	if err != nil {
		return 0, err
	}
	bv, err := fieldValue(b, field)
	if err != nil {
		return 0, err
	}
	cmp, err := compare(av, bv)
	if err != nil {
		return 0, fmt.Errorf("sorting by %s: %w", field, err)
	}
	return cmp, nil
}

func sortByField[T any](items []T, field string, reverse bool) error {
	var sortErr error
	sort.SliceStable(items, func(i, j int) bool {
		cmp, err := CompareField(items[i], items[j], field)
		if err != nil {
			if sortErr == nil {
				sortErr = err
			}
			return false
		}
		if reverse {
			return cmp > 0
		}
		return cmp < 0
	})
	return sortErr
}

func page[T any](items []T, skip, take int) []T {
	if skip > 0 {
		if skip >= len(items) {
			return items[:0]
		}
		items = items[skip:]
	}
	if take > 0 && take < len(items) {
		items = items[:take]
	}
	return items
}
