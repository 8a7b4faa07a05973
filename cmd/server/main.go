package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"masseutsendelse/internal/geometry"
	geometryhandler "masseutsendelse/internal/geometry/handler"
	"masseutsendelse/internal/matrikkel"
	matrikkelhandler "masseutsendelse/internal/matrikkel/handler"
	"masseutsendelse/internal/matrikkel/service"
	"masseutsendelse/internal/matrikkel/transport"
	"masseutsendelse/internal/platform/config"
	"masseutsendelse/internal/platform/httpserver"
	"masseutsendelse/internal/platform/logger"
	"masseutsendelse/internal/platform/metrics"
	"masseutsendelse/internal/platform/tracing"
	audit "masseutsendelse/pkg/platform/audit"
	audithandler "masseutsendelse/pkg/platform/audit/handler"
	"masseutsendelse/pkg/platform/audit/publisher"
	auditmemory "masseutsendelse/pkg/platform/audit/store/memory"
	auditpostgres "masseutsendelse/pkg/platform/audit/store/postgres"
	"masseutsendelse/pkg/platform/circuit"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal packages.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "masseutsendelse: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log, err := logger.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	slog.SetDefault(log)
	geometry.SetParserLogger(log.With("component", "dxf"))

	traces, err := tracing.NewProvider(ctx, tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		Exporter:     cfg.Tracing.Exporter,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		SampleRate:   cfg.Tracing.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	store, closeStore, err := openAuditStore(ctx, cfg.Audit)
	if err != nil {
		return err
	}
	defer closeStore()
	auditPublisher := publisher.NewPublisher(store,
		publisher.WithAsyncBuffer(cfg.Audit.Buffer),
		publisher.WithLogger(log),
	)

	client, err := matrikkel.NewClient(matrikkel.Config{
		BaseURL:      cfg.Matrikkel.BaseURL,
		ProxyBaseURL: cfg.Matrikkel.ProxyBaseURL,
		APIKey:       cfg.Matrikkel.APIKey,
		ClientID:     cfg.Matrikkel.ClientID,
	})
	if err != nil {
		return err
	}
	ownership, err := service.New(client, guardRegistry(newRegistryTransport(cfg.Matrikkel, log), cfg.Matrikkel, log, m),
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithAuditPublisher(auditPublisher),
		service.WithExcludedOwners(cfg.Matrikkel.ExcludedOwnerIDs...),
		service.WithTracer(traces.Tracer()),
	)
	if err != nil {
		return err
	}

	router := newRouter(log, traces.Tracer(), reg,
		geometryhandler.New(log, m, auditPublisher),
		matrikkelhandler.New(ownership, log),
		audithandler.New(auditPublisher, log),
	)
	srv := httpserver.New(cfg.Server.Addr, router, cfg.Matrikkel.Timeout)

	log.Info("starting masseutsendelse",
		"addr", cfg.Server.Addr,
		"mock_registry", cfg.Matrikkel.Mock,
		"proxy", cfg.Matrikkel.ProxyBaseURL != "",
		"excluded_owners", len(cfg.Matrikkel.ExcludedOwnerIDs),
		"tracing", traces.Enabled(),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		auditPublisher.Close()
		if terr := traces.Shutdown(shutdownCtx); terr != nil {
			log.Warn("trace shutdown failed", "error", terr)
		}
		return err
	})
	return g.Wait()
}

// newRegistryTransport selects the fixture registry or the real one.
func newRegistryTransport(cfg config.Matrikkel, log *slog.Logger) transport.Transport {
	if cfg.Mock {
		log.Warn("using mock registry; owner data is fixture data", "latency", cfg.MockLatency)
		return transport.Mock{Latency: cfg.MockLatency}
	}
	return transport.NewHTTP(cfg.Timeout, transport.WithLogger(log))
}

// guardRegistry puts a circuit breaker in front of the registry unless the
// threshold is zero.
func guardRegistry(next transport.Transport, cfg config.Matrikkel, log *slog.Logger, m *metrics.Metrics) transport.Transport {
	if cfg.BreakerThreshold <= 0 {
		return next
	}
	breaker := circuit.New("matrikkel",
		circuit.WithFailureThreshold(cfg.BreakerThreshold),
		circuit.WithSuccessThreshold(1),
		circuit.WithCooldown(cfg.BreakerCooldown),
	)
	return transport.NewGuarded(next, breaker,
		transport.WithGuardLogger(log),
		transport.WithGuardMetrics(m),
	)
}

// openAuditStore returns PostgreSQL when configured, else an in-memory store.
func openAuditStore(ctx context.Context, cfg config.Audit) (audit.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		return auditmemory.NewInMemoryStore(), func() {}, nil
	}
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open audit database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping audit database: %w", err)
	}
	store := auditpostgres.New(db)
	if err := store.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return store, func() { _ = db.Close() }, nil
}
