package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"masseutsendelse/internal/matrikkel"
)

const (
	// DefaultTimeout bounds one registry call when none is configured.
	DefaultTimeout = 30 * time.Second

	// maxResponseBytes caps how much of a registry response is read.
	maxResponseBytes = 64 << 20
	// maxErrorSnippet caps how much of an error body is logged.
	maxErrorSnippet = 512
)

// HTTP sends registry requests over HTTP.
type HTTP struct {
	client *http.Client
	logger *slog.Logger
}

type HTTPOption func(*HTTP)

// WithHTTPClient replaces the underlying client. Its Timeout is left as is.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(t *HTTP) {
		t.client = client
	}
}

func WithLogger(logger *slog.Logger) HTTPOption {
	return func(t *HTTP) {
		t.logger = logger
	}
}

// NewHTTP returns an HTTP transport whose calls time out after timeout.
func NewHTTP(timeout time.Duration, opts ...HTTPOption) *HTTP {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	t := &HTTP{
		client: &http.Client{Timeout: timeout},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Send posts req and decodes a 2xx JSON response into out.
func (t *HTTP) Send(ctx context.Context, req *matrikkel.Request, out any) error {
	if req == nil {
		return errors.New("transport: request cannot be nil")
	}

	payload, err := json.Marshal(req.Body)
	if err != nil {
		return fail(CategoryInternal, 0, req.URL, fmt.Errorf("encode request body: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bytes.NewReader(payload))
	if err != nil {
		return fail(CategoryInternal, 0, req.URL, fmt.Errorf("create request: %w", err))
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := t.client.Do(httpReq)
	if err != nil {
		category := categorizeTransportError(ctx, err)
		t.logger.WarnContext(ctx, "registry call failed",
			"url", req.URL,
			"category", category,
			"duration", time.Since(start),
			"error", err,
		)
		return fail(category, 0, req.URL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fail(categorizeTransportError(ctx, err), resp.StatusCode, req.URL, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		category := categorizeStatus(resp.StatusCode)
		t.logger.WarnContext(ctx, "registry returned an error",
			"url", req.URL,
			"status", resp.StatusCode,
			"category", category,
			"body", snippet(body),
		)
		return fail(category, resp.StatusCode, req.URL, fmt.Errorf("unexpected status %s", resp.Status))
	}

	t.logger.DebugContext(ctx, "registry call completed",
		"url", req.URL,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if out == nil {
		return nil
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return fail(CategoryBadData, resp.StatusCode, req.URL, errors.New("empty response body"))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fail(CategoryBadData, resp.StatusCode, req.URL, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func categorizeTransportError(ctx context.Context, err error) Category {
	switch {
	case errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled):
		return CategoryCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return CategoryTimeout
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CategoryTimeout
	}
	return CategoryOutage
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorSnippet {
		return s[:maxErrorSnippet] + "..."
	}
	return s
}
