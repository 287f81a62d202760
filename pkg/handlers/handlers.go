package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/amaumene/datarepo/pkg/errors"
	"github.com/amaumene/datarepo/pkg/models"
	"github.com/amaumene/datarepo/pkg/repository"
)

const contentTypeJSON = "application/json"

// Resource serves one object collection over the REST convention:
//
//	GET    /api/{name}           list (where/sort/reverse/skip/take params)
//	POST   /api/{name}           create
//	GET    /api/{name}/count     count matching objects
//	POST   /api/{name}/batch     save a batch
//	POST   /api/{name}/delete    delete matching objects
//	GET    /api/{name}/{id}      fetch
//	PUT    /api/{name}/{id}      update (409 on stale timestamp)
//	DELETE /api/{name}/{id}      delete
type Resource[T models.Object] struct {
	name  string
	store repository.Store[T]

	// MaxTake caps list page sizes when positive. Requests without a
	// take, or with a larger one, get clamped to it.
	MaxTake int
}

func NewResource[T models.Object](name string, store repository.Store[T]) *Resource[T] {
	return &Resource[T]{name: name, store: store}
}

// Name returns the resource name used in the URL path.
func (rs *Resource[T]) Name() string {
	return rs.name
}

// Register installs the resource routes on the mux.
func (rs *Resource[T]) Register(mux *http.ServeMux) {
	base := "/api/" + rs.name
	mux.HandleFunc(base, rs.handleCollection)
	mux.HandleFunc(base+"/", rs.handleItem)
}

func (rs *Resource[T]) handleCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		rs.handleList(w, r)
	case http.MethodPost:
		rs.handleCreate(w, r)
	default:
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed", "Use GET to list or POST to create")
	}
}

func (rs *Resource[T]) handleItem(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/"+rs.name+"/")

	switch rest {
	case "count":
		rs.handleCount(w, r)
		return
	case "batch":
		rs.handleBatch(w, r)
		return
	case "delete":
		rs.handleDeleteMatching(w, r)
		return
	}

	id, err := validateObjectID(rest)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}

	switch r.Method {
	case http.MethodGet:
		rs.handleGet(w, r, id)
	case http.MethodPut:
		rs.handleUpdate(w, r, id)
	case http.MethodDelete:
		rs.handleDelete(w, r, id)
	default:
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed", "Use GET, PUT, or DELETE")
	}
}

func (rs *Resource[T]) handleList(w http.ResponseWriter, r *http.Request) {
	q, err := parseListQuery(r.URL.Query(), rs.MaxTake)
	if err != nil {
		rs.writeStoreError(w, "list", err)
		return
	}

	objs, err := rs.store.Find(r.Context(), q)
	if err != nil {
		rs.writeStoreError(w, "list", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, objs)
}

func (rs *Resource[T]) handleCreate(w http.ResponseWriter, r *http.Request) {
	obj, err := decodeObject[T](r)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}

	if err := rs.store.Insert(r.Context(), obj); err != nil {
		rs.writeStoreError(w, "create", err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, obj)
}

func (rs *Resource[T]) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	obj, err := rs.store.Get(r.Context(), id)
	if err != nil {
		rs.writeStoreError(w, "get", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, obj)
}

func (rs *Resource[T]) handleUpdate(w http.ResponseWriter, r *http.Request, id string) {
	obj, err := decodeObject[T](r)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	if obj.ObjectID() == "" {
		obj.SetObjectID(id)
	}
	if obj.ObjectID() != id {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request", "body ID does not match URL")
		return
	}

	// PUT with force=true takes upsert semantics: no stale check, and the
	// object is created when missing.
	if r.URL.Query().Get("force") == "true" {
		if err := rs.store.Upsert(r.Context(), obj); err != nil {
			rs.writeStoreError(w, "upsert", err)
			return
		}
		writeJSONResponse(w, http.StatusOK, obj)
		return
	}

	if err := rs.store.Update(r.Context(), obj); err != nil {
		rs.writeStoreError(w, "update", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, obj)
}

func (rs *Resource[T]) handleDelete(w http.ResponseWriter, r *http.Request, id string) {
	if err := rs.store.Delete(r.Context(), id); err != nil {
		rs.writeStoreError(w, "delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rs *Resource[T]) handleCount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed", "Use GET")
		return
	}

	q, err := parseWhereQuery(r.URL.Query())
	if err != nil {
		rs.writeStoreError(w, "count", err)
		return
	}

	count, err := rs.store.Count(r.Context(), q)
	if err != nil {
		rs.writeStoreError(w, "count", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]int{"count": count})
}

func (rs *Resource[T]) handleBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed", "Use POST")
		return
	}

	var objs []T
	if err := json.NewDecoder(r.Body).Decode(&objs); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request", "body must be a JSON array of objects")
		return
	}

	if err := rs.store.SaveBatch(r.Context(), objs); err != nil {
		rs.writeStoreError(w, "batch", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]int{"saved": len(objs)})
}

func (rs *Resource[T]) handleDeleteMatching(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed", "Use POST")
		return
	}

	var body struct {
		Where []string `json:"where"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request", "body must carry a where list")
		return
	}

	q, err := parseConditions(body.Where)
	if err != nil {
		rs.writeStoreError(w, "delete matching", err)
		return
	}

	deleted, err := rs.store.DeleteMatching(r.Context(), q)
	if err != nil {
		rs.writeStoreError(w, "delete matching", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]int{"deleted": deleted})
}

func decodeObject[T models.Object](r *http.Request) (T, error) {
	obj, err := models.NewObject[T]()
	if err != nil {
		return obj, err
	}
	if err := json.NewDecoder(r.Body).Decode(obj); err != nil {
		var zero T
		return zero, errors.ErrInvalidInput
	}
	return obj, nil
}

// ResponseError represents an error response
type ResponseError struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func (rs *Resource[T]) writeStoreError(w http.ResponseWriter, op string, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		log.WithError(err).WithFields(log.Fields{
			"resource": rs.name,
			"op":       op,
		}).Error("Store operation failed")
	}
	writeErrorResponse(w, status, http.StatusText(status), err.Error())
}

func statusForError(err error) int {
	switch {
	case errors.IsNotFound(err):
		return http.StatusNotFound
	case errors.IsDuplicateKey(err), errors.IsConflict(err):
		return http.StatusConflict
	case errors.IsInvalidInput(err):
		return http.StatusBadRequest
	case errors.IsUnauthorized(err):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func writeJSONResponse(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Error("Failed to encode response")
	}
}

func writeErrorResponse(w http.ResponseWriter, status int, errText, message string) {
	writeJSONResponse(w, status, ResponseError{Error: errText, Message: message})
}

// HealthHandler reports liveness.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}
