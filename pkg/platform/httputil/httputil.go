// Package httputil holds the JSON response helpers shared by handlers.
package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	dErrors "masseutsendelse/pkg/domain-errors"
)

// MaxBodyBytes bounds every decoded request body. Drawing files are the
// largest payloads the service accepts.
const MaxBodyBytes = 32 << 20

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error       string `json:"error"`
	Title       string `json:"error_title,omitempty"`
	Description string `json:"error_description,omitempty"`
}

// Validatable is implemented by request bodies that check themselves after decoding.
type Validatable interface {
	Validate() error
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates err into a status code and JSON envelope. Internal and
// integrity failures hide their description; they indicate bugs, not user input.
func WriteError(w http.ResponseWriter, err error) {
	de, ok := dErrors.From(err)
	if !ok {
		de = dErrors.New(dErrors.CodeInternal, "internal error")
	}

	resp := ErrorResponse{Error: errorCode(de.Code), Title: de.Title}
	switch de.Code {
	case dErrors.CodeInternal:
		resp.Title = "Ukjent feil"
	case dErrors.CodeOwnershipIntegrity:
		resp.Title = "Uventet feil"
	default:
		resp.Description = de.Message
	}
	WriteJSON(w, StatusFor(de.Code), resp)
}

// StatusFor maps an error code to an HTTP status.
func StatusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeValidation, dErrors.CodeBadRequest:
		return http.StatusBadRequest
	case dErrors.CodeGeometry, dErrors.CodeUnsupportedCoordinateSystem:
		return http.StatusUnprocessableEntity
	case dErrors.CodeOwnershipIntegrity, dErrors.CodeUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func errorCode(code dErrors.Code) string {
	if code == dErrors.CodeInternal {
		return "internal_error"
	}
	return string(code)
}

// DecodeJSON decodes a bounded JSON body into T and validates it when T
// implements Validatable. On failure it writes the error response and
// returns false.
func DecodeJSON[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger) (*T, bool) {
	ctx := r.Context()
	var req T
	body := http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		msg := "invalid JSON body"
		if errors.Is(err, io.EOF) {
			msg = "request body is required"
		}
		logger.WarnContext(ctx, "failed to decode request body", "error", err)
		WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, msg))
		return nil, false
	}
	if v, ok := any(&req).(Validatable); ok {
		if err := v.Validate(); err != nil {
			logger.WarnContext(ctx, "request validation failed", "error", err)
			WriteError(w, err)
			return nil, false
		}
	}
	return &req, true
}
