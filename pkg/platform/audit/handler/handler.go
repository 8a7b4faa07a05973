// Package handler exposes the audit trail to support staff, per request or
// as the most recent events.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	dErrors "masseutsendelse/pkg/domain-errors"
	audit "masseutsendelse/pkg/platform/audit"
	"masseutsendelse/pkg/platform/httputil"
)

const (
	defaultRecentLimit = 50
	maxRecentLimit     = 500
)

type Lister interface {
	List(ctx context.Context, requestID string) ([]audit.Event, error)
	ListRecent(ctx context.Context, limit int) ([]audit.Event, error)
}

type Handler struct {
	lister Lister
	logger *slog.Logger
}

func New(lister Lister, logger *slog.Logger) *Handler {
	return &Handler{lister: lister, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/audit/requests/{requestID}", h.HandleListByRequest)
	r.Get("/audit/recent", h.HandleListRecent)
}

// EventResponse is the JSON shape of one audit event.
type EventResponse struct {
	ID         string            `json:"id"`
	Category   string            `json:"category"`
	Timestamp  time.Time         `json:"timestamp"`
	Action     string            `json:"action"`
	RequestID  string            `json:"request_id"`
	ClientID   string            `json:"client_id,omitempty"`
	ClientIP   string            `json:"client_ip,omitempty"`
	Browser    string            `json:"browser,omitempty"`
	OS         string            `json:"os,omitempty"`
	Outcome    string            `json:"outcome"`
	Reason     string            `json:"reason,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

type ListResponse struct {
	Events []EventResponse `json:"events"`
}

// HandleListByRequest handles GET /audit/requests/{requestID}.
func (h *Handler) HandleListByRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := strings.TrimSpace(chi.URLParam(r, "requestID"))
	if requestID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "request id is required"))
		return
	}

	events, err := h.lister.List(ctx, requestID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list audit events", "audited_request_id", requestID, "error", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit events"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toListResponse(events))
}

// HandleListRecent handles GET /audit/recent?limit=N.
func (h *Handler) HandleListRecent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := defaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxRecentLimit {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation,
				"limit must be a whole number between 1 and "+strconv.Itoa(maxRecentLimit)))
			return
		}
		limit = n
	}

	events, err := h.lister.ListRecent(ctx, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list recent audit events", "limit", limit, "error", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit events"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toListResponse(events))
}

func toListResponse(events []audit.Event) ListResponse {
	resp := ListResponse{Events: make([]EventResponse, 0, len(events))}
	for _, e := range events {
		resp.Events = append(resp.Events, EventResponse{
			ID:         e.ID.String(),
			Category:   string(e.Category),
			Timestamp:  e.Timestamp,
			Action:     e.Action,
			RequestID:  e.RequestID,
			ClientID:   e.ClientID,
			ClientIP:   e.ClientIP,
			Browser:    e.Browser,
			OS:         e.OS,
			Outcome:    e.Outcome,
			Reason:     e.Reason,
			Attributes: e.Attributes,
		})
	}
	return resp
}
