package handlers

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	storeerrors "github.com/amaumene/datarepo/pkg/errors"
	"github.com/amaumene/datarepo/pkg/query"
)

var (
	ErrInvalidObjectID = errors.New("invalid object ID")
	ErrInvalidPaging   = errors.New("invalid paging parameter")
)

const maxObjectIDLength = 128

// validateObjectID checks an ID taken from the URL path.
func validateObjectID(id string) (string, error) {
	if id == "" {
		return "", ErrInvalidObjectID
	}
	if len(id) > maxObjectIDLength {
		return "", ErrInvalidObjectID
	}
	if strings.ContainsAny(id, "/ ") {
		return "", ErrInvalidObjectID
	}
	return id, nil
}

// parseListQuery builds a query from list request parameters.
func parseListQuery(values url.Values, maxTake int) (*query.Query, error) {
	q, err := parseConditions(values["where"])
	if err != nil {
		return nil, err
	}

	if sortBy := values.Get("sort"); sortBy != "" {
		q.SortBy(sortBy)
	}
	if values.Get("reverse") == "true" {
		q.Reverse()
	}

	skip, err := parseNonNegativeInt(values.Get("skip"))
	if err != nil {
		return nil, fmt.Errorf("%w: skip: %v", storeerrors.ErrInvalidInput, err)
	}
	take, err := parseNonNegativeInt(values.Get("take"))
	if err != nil {
		return nil, fmt.Errorf("%w: take: %v", storeerrors.ErrInvalidInput, err)
	}
	if maxTake > 0 && (take == 0 || take > maxTake) {
		take = maxTake
	}

	return q.Skip(skip).Take(take), nil
}

// parseWhereQuery builds a filter-only query, ignoring paging parameters.
func parseWhereQuery(values url.Values) (*query.Query, error) {
	return parseConditions(values["where"])
}

func parseConditions(conds []string) (*query.Query, error) {
	q, err := query.ParseConditions(conds)
	if err != nil {
		return nil, err
	}
	return q, nil
}

func parseNonNegativeInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, ErrInvalidPaging
	}
	if n < 0 {
		return 0, ErrInvalidPaging
	}
	return n, nil
}
