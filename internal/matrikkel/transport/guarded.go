package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"masseutsendelse/internal/matrikkel"
	"masseutsendelse/internal/platform/metrics"
	"masseutsendelse/pkg/platform/circuit"
	"masseutsendelse/pkg/platform/sentinel"
)

// ErrCircuitOpen is the cause of failures refused by an open breaker.
var ErrCircuitOpen = fmt.Errorf("registry circuit breaker is open: %w", sentinel.ErrUnavailable)

// Guarded wraps a Transport with a circuit breaker. While the breaker is
// open, or half-open with a trial call in flight, Send fails fast as an
// outage without calling the registry.
// Only outages, timeouts and rate limiting count against the registry;
// answers it gave, even refusals, count as successes.
type Guarded struct {
	next    Transport
	breaker *circuit.Breaker
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type GuardedOption func(*Guarded)

func WithGuardLogger(logger *slog.Logger) GuardedOption {
	return func(g *Guarded) {
		g.logger = logger
	}
}

func WithGuardMetrics(m *metrics.Metrics) GuardedOption {
	return func(g *Guarded) {
		g.metrics = m
	}
}

func NewGuarded(next Transport, breaker *circuit.Breaker, opts ...GuardedOption) *Guarded {
	g := &Guarded{next: next, breaker: breaker, logger: slog.Default()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Guarded) Send(ctx context.Context, req *matrikkel.Request, out any) error {
	if req == nil {
		return errors.New("transport: request cannot be nil")
	}
	if !g.breaker.Allow() {
		return fail(CategoryOutage, 0, req.URL, ErrCircuitOpen)
	}

	err := g.next.Send(ctx, req, out)
	switch CategoryOf(err) {
	case CategoryOutage, CategoryTimeout, CategoryRateLimited:
		if g.breaker.RecordFailure().Opened {
			g.metrics.SetCircuitOpen(true)
			g.logger.WarnContext(ctx, "registry circuit opened", "breaker", g.breaker.Name(), "error", err)
		}
	case CategoryCanceled:
		g.breaker.Release()
	default:
		if g.breaker.RecordSuccess().Closed {
			g.metrics.SetCircuitOpen(false)
			g.logger.InfoContext(ctx, "registry circuit closed", "breaker", g.breaker.Name())
		}
	}
	return err
}
