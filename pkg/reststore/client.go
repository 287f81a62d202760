package reststore

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/amaumene/datarepo/pkg/errors"
	"github.com/amaumene/datarepo/pkg/models"
	"github.com/amaumene/datarepo/pkg/query"
)

const defaultTimeout = 30 * time.Second

// Config carries the connection settings for a remote store.
type Config struct {
	// BaseURL is the root of the remote API, e.g. "http://localhost:3000".
	BaseURL string
	// APIKey is sent as a bearer token when set.
	APIKey string
	// Client overrides the default HTTP client.
	Client *http.Client
}

// Store implements repository.Store over a remote REST API. It is a thin
// request/response wrapper: no retries, no caching, no resilience.
type Store[T models.Object] struct {
	resource   string
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a remote store for one resource collection.
func New[T models.Object](resource string, config *Config) (*Store[T], error) {
	if config == nil || config.BaseURL == "" {
		return nil, fmt.Errorf("%w: base URL not set", errors.ErrInvalidInput)
	}
	if resource == "" {
		return nil, fmt.Errorf("%w: resource name not set", errors.ErrInvalidInput)
	}

	httpClient := config.Client
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	return &Store[T]{
		resource:   resource,
		baseURL:    strings.TrimSuffix(config.BaseURL, "/"),
		apiKey:     config.APIKey,
		httpClient: httpClient,
	}, nil
}

func (s *Store[T]) buildURL(parts ...string) string {
	u := s.baseURL + "/api/" + s.resource
	for _, part := range parts {
		u += "/" + url.PathEscape(part)
	}
	return u
}

func (s *Store[T]) doJSONRequest(ctx context.Context, method, endpoint string, body, result interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		switch {
		case stderrors.Is(err, context.DeadlineExceeded):
			return fmt.Errorf("executing request: %w", errors.ErrTimeout)
		case stderrors.Is(err, context.Canceled):
			return fmt.Errorf("executing request: %w", errors.ErrCancelled)
		}
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return s.apiError(method, resp)
	}

	if result != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

// apiError maps remote status codes back onto the store error sentinels,
// so callers handle both backends the same way. The returned StoreError
// keeps the status and remote message for logging.
func (s *Store[T]) apiError(op string, resp *http.Response) error {
	var remote struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	message := ""
	if err := json.NewDecoder(resp.Body).Decode(&remote); err == nil {
		message = remote.Message
		if message == "" {
			message = remote.Error
		}
	}

	wrap := func(sentinel error) error {
		storeErr := errors.NewStoreError(s.resource, op, sentinel).WithContext("status", resp.StatusCode)
		if message != "" {
			storeErr = storeErr.WithContext("message", message)
		}
		return storeErr
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return wrap(errors.ErrNotFound)
	case http.StatusConflict:
		if strings.Contains(message, "duplicate") {
			return wrap(errors.ErrDuplicateKey)
		}
		return wrap(errors.ErrConflict)
	case http.StatusBadRequest:
		return wrap(errors.ErrInvalidInput)
	case http.StatusUnauthorized, http.StatusForbidden:
		return wrap(errors.ErrUnauthorized)
	default:
		return wrap(errors.ErrExternalService)
	}
}

func (s *Store[T]) Insert(ctx context.Context, obj T) error {
	// The response echoes the object with server-assigned ID and
	// timestamps; decode it back in place.
	if err := s.doJSONRequest(ctx, http.MethodPost, s.buildURL(), obj, obj); err != nil {
		return fmt.Errorf("inserting object: %w", err)
	}
	return nil
}

func (s *Store[T]) Get(ctx context.Context, id string) (T, error) {
	obj, err := models.NewObject[T]()
	if err != nil {
		var zero T
		return zero, fmt.Errorf("%w: %v", errors.ErrInvalidInput, err)
	}
	if err := s.doJSONRequest(ctx, http.MethodGet, s.buildURL(id), nil, obj); err != nil {
		var zero T
		return zero, fmt.Errorf("getting object %s: %w", id, err)
	}
	return obj, nil
}

func (s *Store[T]) Update(ctx context.Context, obj T) error {
	if obj.ObjectID() == "" {
		return fmt.Errorf("updating object: %w: empty ID", errors.ErrInvalidInput)
	}
	if err := s.doJSONRequest(ctx, http.MethodPut, s.buildURL(obj.ObjectID()), obj, obj); err != nil {
		return fmt.Errorf("updating object %s: %w", obj.ObjectID(), err)
	}
	return nil
}

func (s *Store[T]) Upsert(ctx context.Context, obj T) error {
	if obj.ObjectID() == "" {
		return s.Insert(ctx, obj)
	}
	endpoint := s.buildURL(obj.ObjectID()) + "?force=true"
	if err := s.doJSONRequest(ctx, http.MethodPut, endpoint, obj, obj); err != nil {
		return fmt.Errorf("saving object %s: %w", obj.ObjectID(), err)
	}
	return nil
}

func (s *Store[T]) Delete(ctx context.Context, id string) error {
	if err := s.doJSONRequest(ctx, http.MethodDelete, s.buildURL(id), nil, nil); err != nil {
		return fmt.Errorf("deleting object %s: %w", id, err)
	}
	return nil
}

func (s *Store[T]) Find(ctx context.Context, q *query.Query) ([]T, error) {
	opts, err := optionsFromQuery(q)
	if err != nil {
		return nil, fmt.Errorf("finding objects: %w", err)
	}
	endpoint := s.buildURL()
	if encoded := opts.encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	var objs []T
	if err := s.doJSONRequest(ctx, http.MethodGet, endpoint, nil, &objs); err != nil {
		return nil, fmt.Errorf("finding objects: %w", err)
	}
	return objs, nil
}

func (s *Store[T]) Count(ctx context.Context, q *query.Query) (int, error) {
	opts, err := whereOptionsFromQuery(q)
	if err != nil {
		return 0, fmt.Errorf("counting objects: %w", err)
	}
	endpoint := s.buildURL("count")
	if encoded := opts.encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	var result struct {
		Count int `json:"count"`
	}
	if err := s.doJSONRequest(ctx, http.MethodGet, endpoint, nil, &result); err != nil {
		return 0, fmt.Errorf("counting objects: %w", err)
	}
	return result.Count, nil
}

func (s *Store[T]) DeleteMatching(ctx context.Context, q *query.Query) (int, error) {
	conds, err := q.EncodeConditions()
	if err != nil {
		return 0, fmt.Errorf("deleting matching objects: %w", err)
	}

	body := map[string][]string{"where": conds}
	var result struct {
		Deleted int `json:"deleted"`
	}
	if err := s.doJSONRequest(ctx, http.MethodPost, s.buildURL("delete"), body, &result); err != nil {
		return 0, fmt.Errorf("deleting matching objects: %w", err)
	}
	return result.Deleted, nil
}

// UpdateMatching runs client side: fetch the matching objects, mutate each
// copy, and write it back through the regular update path. A concurrent
// writer surfaces as errors.ErrConflict.
func (s *Store[T]) UpdateMatching(ctx context.Context, q *query.Query, mutate func(T) error) (int, error) {
	objs, err := s.Find(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("updating matching objects: %w", err)
	}

	updated := 0
	for _, obj := range objs {
		if err := mutate(obj); err != nil {
			return updated, fmt.Errorf("updating object %s: %w", obj.ObjectID(), err)
		}
		if err := s.Update(ctx, obj); err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}

func (s *Store[T]) SaveBatch(ctx context.Context, objs []T) error {
	if len(objs) == 0 {
		return nil
	}
	var result struct {
		Saved int `json:"saved"`
	}
	if err := s.doJSONRequest(ctx, http.MethodPost, s.buildURL("batch"), objs, &result); err != nil {
		return fmt.Errorf("saving batch: %w", err)
	}
	return nil
}

func (s *Store[T]) ProcessBatches(ctx context.Context, batchSize int, processor func([]T) error) error {
	if batchSize <= 0 {
		return fmt.Errorf("processing batches: %w: batch size %d", errors.ErrInvalidInput, batchSize)
	}

	// The server may clamp the page size below batchSize, so a short page
	// does not mean the end. Advance by what actually arrived and stop
	// only on an empty page.
	offset := 0
	for {
		batch, err := s.Find(ctx, query.New().SortBy("ID").Skip(offset).Take(batchSize))
		if err != nil {
			return fmt.Errorf("finding batch at offset %d: %w", offset, err)
		}
		if len(batch) == 0 {
			break
		}

		if err := processor(batch); err != nil {
			return fmt.Errorf("processing batch at offset %d: %w", offset, err)
		}
		offset += len(batch)
	}
	return nil
}

func (s *Store[T]) Close() error {
	s.httpClient.CloseIdleConnections()
	return nil
}
