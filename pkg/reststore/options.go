package reststore

import (
	querystring "github.com/google/go-querystring/query"

	"github.com/amaumene/datarepo/pkg/query"
)

// listOptions is the query string form of a find request.
type listOptions struct {
	Where   []string `url:"where,omitempty"`
	SortBy  string   `url:"sort,omitempty"`
	Reverse bool     `url:"reverse,omitempty"`
	Skip    int      `url:"skip,omitempty"`
	Take    int      `url:"take,omitempty"`
}

func optionsFromQuery(q *query.Query) (*listOptions, error) {
	conds, err := q.EncodeConditions()
	if err != nil {
		return nil, err
	}
	return &listOptions{
		Where:   conds,
		SortBy:  q.SortField(),
		Reverse: q.IsReverse(),
		Skip:    q.Offset(),
		Take:    q.Limit(),
	}, nil
}

func whereOptionsFromQuery(q *query.Query) (*listOptions, error) {
	conds, err := q.EncodeConditions()
	if err != nil {
		return nil, err
	}
	return &listOptions{Where: conds}, nil
}

func (o *listOptions) encode() string {
	// Values cannot fail on a flat struct of basic fields.
	values, err := querystring.Values(o)
	if err != nil {
		return ""
	}
	return values.Encode()
}
