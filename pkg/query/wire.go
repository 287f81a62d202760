package query

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/amaumene/datarepo/pkg/errors"
)

// Wire form: each flat condition renders as "Field op jsonValue", with
// negated operators prefixed "not-". Values travel as JSON literals so
// the receiving side can tell numbers, strings, and lists apart.

var knownOps = map[Op]bool{
	OpEq:       true,
	OpNe:       true,
	OpGt:       true,
	OpGe:       true,
	OpLt:       true,
	OpLe:       true,
	OpIn:       true,
	OpContains: true,
	OpMatches:  true,
}

// EncodeConditions renders the query's flat conditions in wire form.
// Queries carrying Or branches have no wire form.
func (q *Query) EncodeConditions() ([]string, error) {
	if q == nil {
		return nil, nil
	}
	if q.HasOrGroups() {
		return nil, fmt.Errorf("%w: Or branches cannot be sent over the wire", errors.ErrInvalidQuery)
	}

	out := make([]string, 0, len(q.conditions))
	for _, cond := range q.conditions {
		value, err := json.Marshal(cond.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: encoding value for %s: %v", errors.ErrInvalidQuery, cond.Field, err)
		}
		op := string(cond.Op)
		if cond.Negate {
			op = "not-" + op
		}
		out = append(out, fmt.Sprintf("%s %s %s", cond.Field, op, value))
	}
	return out, nil
}

// ParseCondition parses a single wire form condition.
func ParseCondition(s string) (Condition, error) {
	parts := strings.SplitN(strings.TrimSpace(s), " ", 3)
	if len(parts) != 3 {
		return Condition{}, fmt.Errorf("%w: malformed condition %q", errors.ErrInvalidQuery, s)
	}

	opTok := parts[1]
	negate := false
	if rest, ok := strings.CutPrefix(opTok, "not-"); ok {
		negate = true
		opTok = rest
	}
	op := Op(opTok)
	if !knownOps[op] {
		return Condition{}, fmt.Errorf("%w: unknown operator %q in %q", errors.ErrInvalidQuery, opTok, s)
	}

	var value interface{}
	if err := json.Unmarshal([]byte(parts[2]), &value); err != nil {
		return Condition{}, fmt.Errorf("%w: bad value in %q: %v", errors.ErrInvalidQuery, s, err)
	}
	if op == OpIn {
		if _, ok := value.([]interface{}); !ok {
			return Condition{}, fmt.Errorf("%w: in expects a JSON list in %q", errors.ErrInvalidQuery, s)
		}
	}

	return Condition{Field: parts[0], Op: op, Value: value, Negate: negate}, nil
}

// ParseConditions builds a query from wire form conditions.
func ParseConditions(conds []string) (*Query, error) {
	q := New()
	for _, s := range conds {
		cond, err := ParseCondition(s)
		if err != nil {
			return nil, err
		}
		q.conditions = append(q.conditions, cond)
	}
	return q, nil
}
