package api

import (
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"gitea.jw6.us/james/calllog/internal/http/errors"
	"gitea.jw6.us/james/calllog/internal/http/respond"
	"gitea.jw6.us/james/calllog/internal/schema"
	"gitea.jw6.us/james/calllog/internal/store"
)

const callLogNotFound = "Call log not found"

// ListCallLogs returns every call log in insertion order, narrowed by the
// optional callType, search, favorite and sort query parameters.
func (h *Handler) ListCallLogs(w http.ResponseWriter, r *http.Request) {
	filter, verr := parseCallLogFilter(r)
	if verr != nil {
		errors.ValidationFailed(w, r, verr)
		return
	}

	logs, err := h.store.CallLogs.List(r.Context())
	if err != nil {
		errors.InternalError(w, r, err, "Failed to fetch call logs")
		return
	}
	if !filter.IsZero() {
		logs = store.FilterCallLogs(logs, filter)
	}
	respond.JSON(w, http.StatusOK, logs)
}

func parseCallLogFilter(r *http.Request) (store.CallLogFilter, *schema.ValidationError) {
	q := r.URL.Query()
	var filter store.CallLogFilter

	if raw := q.Get("callType"); raw != "" && raw != "all" {
		ct, err := schema.ParseCallType(raw)
		if err != nil {
			var verr *schema.ValidationError
			stderrors.As(err, &verr)
			return filter, verr
		}
		filter.CallType = ct
	}

	filter.Search = q.Get("search")

	if raw := q.Get("favorite"); raw != "" {
		fav, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, invalidQuery("favorite", schema.CodeInvalidType, "Expected boolean, received string")
		}
		filter.FavoritesOnly = fav
	}

	switch sort := q.Get("sort"); sort {
	case "":
	case "recent":
		filter.SortByRecent = true
	default:
		return filter, invalidQuery("sort", schema.CodeInvalidEnumValue,
			"Invalid enum value. Expected 'recent', received '"+sort+"'")
	}
	return filter, nil
}

func (h *Handler) GetCallLog(w http.ResponseWriter, r *http.Request) {
	log, err := h.store.CallLogs.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			errors.NotFound(w, callLogNotFound)
			return
		}
		errors.InternalError(w, r, err, "Failed to fetch call log")
		return
	}
	respond.JSON(w, http.StatusOK, log)
}

func (h *Handler) CreateCallLog(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	in, err := schema.ParseNewCallLog(body, h.now())
	if err != nil {
		rejectInvalid(w, r, err, "Failed to create call log")
		return
	}

	log, err := h.store.CallLogs.Create(r.Context(), in)
	if err != nil {
		errors.InternalError(w, r, err, "Failed to create call log")
		return
	}
	respond.JSON(w, http.StatusCreated, log)
}

// UpdateCallLog applies a partial update. An unknown id is reported before
// the body is validated.
func (h *Handler) UpdateCallLog(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, err := h.store.CallLogs.GetByID(r.Context(), id); err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			errors.NotFound(w, callLogNotFound)
			return
		}
		errors.InternalError(w, r, err, "Failed to update call log")
		return
	}

	body, ok := readBody(w, r)
	if !ok {
		return
	}
	patch, err := schema.ParseCallLogPatch(body)
	if err != nil {
		rejectInvalid(w, r, err, "Failed to update call log")
		return
	}

	updated, err := h.store.CallLogs.Update(r.Context(), id, patch)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			errors.NotFound(w, callLogNotFound)
			return
		}
		errors.InternalError(w, r, err, "Failed to update call log")
		return
	}
	respond.JSON(w, http.StatusOK, updated)
}

func (h *Handler) DeleteCallLog(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.store.CallLogs.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		errors.InternalError(w, r, err, "Failed to delete call log")
		return
	}
	if !deleted {
		errors.NotFound(w, callLogNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
