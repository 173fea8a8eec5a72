package httpx

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/escuelahq/escuela-ui-api/internal/domain/model"
)

// AuditStore is the slice of the audit repository the handlers need.
type AuditStore interface {
	List(ctx context.Context, q model.AuditQuery) ([]model.AuditEntry, error)
	CountByEvent(ctx context.Context) (map[model.AuditEvent]int64, error)
	Purge(ctx context.Context, before time.Time) (int64, error)
}

// AuditHandlers provides HTTP handlers for the authorization audit trail.
type AuditHandlers struct {
	Store AuditStore
}

// List returns audit entries newest-first.
// GET /api/audit?event=<event>&limit=<n>&offset=<n>.
func (h *AuditHandlers) List(w http.ResponseWriter, r *http.Request) {
	q := model.AuditQuery{
		Event: model.AuditEvent(r.URL.Query().Get("event")),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_limit", Err: err})
			return
		}
		q.Limit = n
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_offset", Err: err})
			return
		}
		q.Offset = n
	}

	entries, err := h.Store.List(r.Context(), q)
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "audit_list_failed", Err: err})
		return
	}
	if entries == nil {
		entries = []model.AuditEntry{}
	}

	WriteJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// Stats returns per-event entry counts.
// GET /api/audit/stats.
func (h *AuditHandlers) Stats(w http.ResponseWriter, r *http.Request) {
	counts, err := h.Store.CountByEvent(r.Context())
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "audit_stats_failed", Err: err})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"counts": counts})
}

// Purge removes entries older than the given retention window.
// POST /api/audit/purge?days=<n>.
func (h *AuditHandlers) Purge(w http.ResponseWriter, r *http.Request) {
	days := 90
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			WriteError(w, ErrorParams{
				Code:    http.StatusBadRequest,
				ErrCode: "invalid_days",
				Err:     errors.New("days must be a positive integer"),
			})
			return
		}
		days = n
	}

	purged, err := h.Store.Purge(r.Context(), time.Now().AddDate(0, 0, -days))
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "audit_purge_failed", Err: err})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"purged": purged})
}
