package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"masseutsendelse/internal/geometry"
	"masseutsendelse/internal/platform/metrics"
	dErrors "masseutsendelse/pkg/domain-errors"
	audit "masseutsendelse/pkg/platform/audit"
	"masseutsendelse/pkg/platform/httputil"
	"masseutsendelse/pkg/requestcontext"
)

// FileField is the multipart form field carrying the drawing.
const FileField = "file"

// multipartMemory is how much of a multipart upload is held in memory
// before spilling to temporary files.
const multipartMemory = 8 << 20

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Handler exposes polygon extraction for uploaded drawing files.
type Handler struct {
	logger         *slog.Logger
	metrics        *metrics.Metrics
	auditPublisher AuditPublisher
}

// New constructs the handler. metrics and auditPublisher may be nil.
func New(logger *slog.Logger, metrics *metrics.Metrics, auditPublisher AuditPublisher) *Handler {
	return &Handler{
		logger:         logger,
		metrics:        metrics,
		auditPublisher: auditPublisher,
	}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/geometry/extract", h.HandleExtract)
}

// HandleExtract handles POST /geometry/extract. The body is either the raw
// DXF text or a multipart form with the drawing in the "file" field.
func (h *Handler) HandleExtract(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	text, name, err := readDrawing(w, r)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to read drawing upload",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	polygons, err := geometry.Extract(text)
	if err != nil {
		h.metrics.IncrementExtractionFailures()
		h.logger.InfoContext(ctx, "drawing rejected",
			"request_id", requestID,
			"file", name,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.metrics.IncrementPolygonsExtracted(len(polygons))
	h.logger.InfoContext(ctx, "polygons extracted",
		"request_id", requestID,
		"file", name,
		"polygons", len(polygons),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	h.emitAudit(ctx, name, len(polygons))

	httputil.WriteJSON(w, http.StatusOK, ExtractResponse{Polygons: polygons, Count: len(polygons)})
}

// ExtractResponse is the HTTP response for POST /geometry/extract.
type ExtractResponse struct {
	Polygons []geometry.Polygon `json:"polygons"`
	Count    int                `json:"count"`
}

// readDrawing returns the uploaded DXF text and, for multipart uploads, the
// client's file name.
func readDrawing(w http.ResponseWriter, r *http.Request) (string, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, httputil.MaxBodyBytes)

	var (
		src  io.Reader = r.Body
		name string
	)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			return "", "", uploadError(err)
		}
		file, header, err := r.FormFile(FileField)
		if err != nil {
			return "", "", dErrors.Newf(dErrors.CodeBadRequest, "form field %q is required", FileField)
		}
		defer file.Close()
		src, name = file, header.Filename
	}

	raw, err := io.ReadAll(src)
	if err != nil {
		return "", "", uploadError(err)
	}
	if strings.TrimSpace(string(raw)) == "" {
		return "", "", dErrors.New(dErrors.CodeBadRequest, "drawing file is required")
	}
	return string(raw), name, nil
}

func uploadError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "drawing file is too large")
	}
	return dErrors.Wrap(err, dErrors.CodeBadRequest, "could not read upload")
}

func (h *Handler) emitAudit(ctx context.Context, name string, polygons int) {
	if h.auditPublisher == nil {
		return
	}
	err := h.auditPublisher.Emit(ctx, audit.Event{
		Action:    string(audit.EventGeometryExtracted),
		RequestID: requestcontext.RequestID(ctx),
		Outcome:   audit.OutcomeSuccess,
		Attributes: map[string]string{
			"file":     name,
			"polygons": strconv.Itoa(polygons),
		},
	})
	if err != nil {
		h.logger.WarnContext(ctx, "failed to emit audit event", "error", err)
	}
}
