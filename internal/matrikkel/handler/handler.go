package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"masseutsendelse/internal/geometry"
	"masseutsendelse/internal/matrikkel"
	"masseutsendelse/pkg/platform/httputil"
	"masseutsendelse/pkg/requestcontext"
)

// Service defines the registry lookups exposed over HTTP.
type Service interface {
	OwnersInPolygon(ctx context.Context, polygon geometry.Polygon, epsg string, opts ...matrikkel.RequestOption) ([]matrikkel.OwnerRecord, error)
	StoreItems(ctx context.Context, items []any, code matrikkel.CoordinateSystemCode, opts ...matrikkel.RequestOption) ([]matrikkel.Record, error)
}

// Handler wires registry endpoints to the ownership service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts registry endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/matrikkel/owners", h.HandleOwners)
	r.Post("/matrikkel/store", h.HandleStore)
}

// HandleOwners handles POST /matrikkel/owners.
func (h *Handler) HandleOwners(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeJSON[OwnersRequest](w, r, h.logger)
	if !ok {
		return
	}

	owners, err := h.service.OwnersInPolygon(ctx, req.Polygon, req.EPSG, req.Options()...)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "owners lookup served",
		"request_id", requestID,
		"epsg", req.EPSG,
		"owners", len(owners),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, NewOwnersResponse(owners))
}

// HandleStore handles POST /matrikkel/store.
func (h *Handler) HandleStore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	req, ok := httputil.DecodeJSON[StoreRequest](w, r, h.logger)
	if !ok {
		return
	}

	items, err := h.service.StoreItems(ctx, req.Items, req.KoordinatsystemKodeID, req.Options()...)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "store lookup served",
		"request_id", requestcontext.RequestID(ctx),
		"requested", len(req.Items),
		"returned", len(items),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, StoreResponse{Items: items})
}
