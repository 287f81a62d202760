package query

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/amaumene/datarepo/pkg/errors"
)

// Match reports whether obj satisfies the query. A nil or empty query
// matches everything.
func (q *Query) Match(obj interface{}) (bool, error) {
	if q == nil {
		return true, nil
	}

	matched := true
	for _, cond := range q.conditions {
		ok, err := cond.Match(obj)
		if err != nil {
			return false, err
		}
		if !ok {
			matched = false
			break
		}
	}
	if matched {
		return true, nil
	}

	for _, or := range q.ors {
		ok, err := or.Match(obj)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// Match reports whether obj satisfies the single condition.
func (c Condition) Match(obj interface{}) (bool, error) {
	field, err := fieldValue(obj, c.Field)
	if err != nil {
		return false, err
	}

	ok, err := matchOp(c.Op, field, c.Value)
	if err != nil {
		return false, fmt.Errorf("evaluating %s %s: %w", c.Field, c.Op, err)
	}
	if c.Negate {
		ok = !ok
	}
	return ok, nil
}

func matchOp(op Op, field, value interface{}) (bool, error) {
	switch op {
	case OpEq:
		return equal(field, value), nil
	case OpNe:
		return !equal(field, value), nil
	case OpGt, OpGe, OpLt, OpLe:
		cmp, err := compare(field, value)
		if err != nil {
			return false, err
		}
		switch op {
		case OpGt:
			return cmp > 0, nil
		case OpGe:
			return cmp >= 0, nil
		case OpLt:
			return cmp < 0, nil
		default:
			return cmp <= 0, nil
		}
	case OpIn:
		return matchIn(field, value)
	case OpContains:
		return matchContains(field, value)
	case OpMatches:
		return matchRegexp(field, value)
	default:
		return false, fmt.Errorf("%w: unknown operator %q", errors.ErrInvalidQuery, op)
	}
}

// fieldValue looks up an exported field by name, including fields promoted
// from embedded structs.
func fieldValue(obj interface{}, name string) (interface{}, error) {
	v := reflect.ValueOf(obj)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil, fmt.Errorf("%w: nil object", errors.ErrInvalidQuery)
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: cannot address field %q on %s", errors.ErrInvalidQuery, name, v.Kind())
	}

	field := v.FieldByName(name)
	if !field.IsValid() {
		return nil, fmt.Errorf("%w: unknown field %q", errors.ErrInvalidQuery, name)
	}
	return field.Interface(), nil
}

func equal(a, b interface{}) bool {
	if cmp, err := compare(a, b); err == nil {
		return cmp == 0
	}
	return reflect.DeepEqual(a, b)
}

// compare orders two values of compatible kinds. Numeric values compare
// across int/uint/float widths, which also covers JSON numbers arriving
// as float64 from the wire form.
func compare(a, b interface{}) (int, error) {
	if at, ok := toTime(a); ok {
		bt, ok := toTime(b)
		if !ok {
			return 0, fmt.Errorf("%w: cannot compare time with %T", errors.ErrInvalidQuery, b)
		}
		switch {
		case at.Before(bt):
			return -1, nil
		case at.After(bt):
			return 1, nil
		default:
			return 0, nil
		}
	}

	if af, ok := toFloat(a); ok {
		bf, ok := toFloat(b)
		if !ok {
			return 0, fmt.Errorf("%w: cannot compare number with %T", errors.ErrInvalidQuery, b)
		}
		switch {
		case af < bf:
			return -1, nil
		case af > bf:
			return 1, nil
		default:
			return 0, nil
		}
	}

	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, fmt.Errorf("%w: cannot compare string with %T", errors.ErrInvalidQuery, b)
		}
		return strings.Compare(av, bv), nil
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, fmt.Errorf("%w: cannot compare bool with %T", errors.ErrInvalidQuery, b)
		}
		if av == bv {
			return 0, nil
		}
		if !av {
			return -1, nil
		}
		return 1, nil
	}

	return 0, fmt.Errorf("%w: unsupported comparison between %T and %T", errors.ErrInvalidQuery, a, b)
}

func toTime(v interface{}) (time.Time, bool) {
	switch tv := v.(type) {
	case time.Time:
		return tv, true
	case *time.Time:
		if tv == nil {
			return time.Time{}, false
		}
		return *tv, true
	case string:
		// wire form carries times as RFC 3339 strings
		if t, err := time.Parse(time.RFC3339Nano, tv); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func toFloat(v interface{}) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

func matchIn(field, value interface{}) (bool, error) {
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return false, fmt.Errorf("%w: In expects a list, got %T", errors.ErrInvalidQuery, value)
	}
	for i := 0; i < rv.Len(); i++ {
		if equal(field, rv.Index(i).Interface()) {
			return true, nil
		}
	}
	return false, nil
}

func matchContains(field, value interface{}) (bool, error) {
	switch fv := field.(type) {
	case string:
		sub, ok := value.(string)
		if !ok {
			return false, fmt.Errorf("%w: Contains on a string field expects a string, got %T", errors.ErrInvalidQuery, value)
		}
		return strings.Contains(fv, sub), nil
	}

	rv := reflect.ValueOf(field)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		for i := 0; i < rv.Len(); i++ {
			if equal(rv.Index(i).Interface(), value) {
				return true, nil
			}
		}
		return false, nil
	}
	return false, fmt.Errorf("%w: Contains needs a string or slice field, got %T", errors.ErrInvalidQuery, field)
}

func matchRegexp(field, value interface{}) (bool, error) {
	pattern, ok := value.(string)
	if !ok {
		return false, fmt.Errorf("%w: Matches expects a pattern string, got %T", errors.ErrInvalidQuery, value)
	}
	str, ok := field.(string)
	if !ok {
		return false, fmt.Errorf("%w: Matches needs a string field, got %T", errors.ErrInvalidQuery, field)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, fmt.Errorf("%w: bad pattern %q: %v", errors.ErrInvalidQuery, pattern, err)
	}
	return re.MatchString(str), nil
}
