package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/eugenenazirov/realestate-crm/internal/crud"
	"github.com/eugenenazirov/realestate-crm/internal/store"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// TotalCountHeader carries the unpaged number of matching records on list responses.
const TotalCountHeader = "X-Total-Count"

// resourceHandler exposes a crud.Resource as REST endpoints.
type resourceHandler[T any, C any, U any] struct {
	res    crud.Resource[T, C, U]
	logger *zap.Logger
}

// mountResource registers the collection and item routes of res under r.
func mountResource[T any, C any, U any](r chi.Router, res crud.Resource[T, C, U], logger *zap.Logger) {
	h := &resourceHandler[T, C, U]{res: res, logger: logger}
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Get("/{id}", h.handleGet)
	r.Patch("/{id}", h.handleUpdate)
	r.Delete("/{id}", h.handleDelete)
}

func (h *resourceHandler[T, C, U]) handleList(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	items, err := h.res.FindMany(r.Context(), q)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	total, err := h.res.Count(r.Context(), q)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.Header().Set(TotalCountHeader, strconv.Itoa(total))
	render.JSON(w, r, items)
}

func (h *resourceHandler[T, C, U]) handleGet(w http.ResponseWriter, r *http.Request) {
	record, err := h.res.FindOne(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	render.JSON(w, r, record)
}

func (h *resourceHandler[T, C, U]) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in C
	if err := render.DecodeJSON(r.Body, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}
	record, err := h.res.Create(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, record)
}

func (h *resourceHandler[T, C, U]) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var in U
	if err := render.DecodeJSON(r.Body, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}
	record, err := h.res.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	render.JSON(w, r, record)
}

func (h *resourceHandler[T, C, U]) handleDelete(w http.ResponseWriter, r *http.Request) {
	record, err := h.res.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	render.JSON(w, r, record)
}

func (h *resourceHandler[T, C, U]) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, title := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", requestIDFromContext(r.Context())),
			zap.Error(err),
		)
	}
	writeError(w, r, status, title, err.Error())
}

// mountRelation registers GET /{id}/<name> listing records related to the parent id.
func mountRelation[R any](r chi.Router, name string, fetch func(ctx context.Context, id string, q store.Query) ([]R, error)) {
	r.Get("/{id}/"+name, func(w http.ResponseWriter, r *http.Request) {
		q, err := parseQuery(r)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "Invalid request", err.Error())
			return
		}
		items, err := fetch(r.Context(), chi.URLParam(r, "id"), q)
		if err != nil {
			status, title := statusFor(err)
			writeError(w, r, status, title, err.Error())
			return
		}
		render.JSON(w, r, items)
	})
}

func statusFor(err error) (int, string) {
	var verr *crud.ValidationError
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.As(err, &verr), errors.Is(err, store.ErrInvalidQuery):
		return http.StatusBadRequest, "Invalid request"
	case errors.Is(err, store.ErrDuplicateID):
		return http.StatusConflict, "Conflict"
	default:
		return http.StatusInternalServerError, "Internal error"
	}
}

var errBadPaging = errors.New("take and skip must be non-negative integers")

func parseQuery(r *http.Request) (store.Query, error) {
	var q store.Query
	values := r.URL.Query()
	for name, dst := range map[string]*int{"take": &q.Take, "skip": &q.Skip} {
		raw := values.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return q, errBadPaging
		}
		*dst = n
	}
	return q, nil
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message, details string) {
	render.Status(r, status)
	render.JSON(w, r, errorResponse{Error: message, Details: details})
}
