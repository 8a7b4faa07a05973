package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"masseutsendelse/internal/geometry"
	"masseutsendelse/internal/matrikkel"
	"masseutsendelse/internal/matrikkel/transport"
	"masseutsendelse/internal/platform/metrics"
	dErrors "masseutsendelse/pkg/domain-errors"
	audit "masseutsendelse/pkg/platform/audit"
	"masseutsendelse/pkg/requestcontext"
)

const tracerName = "masseutsendelse/matrikkel"

// RegistryTransport sends a built registry request.
type RegistryTransport interface {
	Send(ctx context.Context, req *matrikkel.Request, out any) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service resolves the owners of the cadastral units inside a polygon.
// One call makes at most one registry request; nothing is cached.
type Service struct {
	client         *matrikkel.Client
	transport      RegistryTransport
	logger         *slog.Logger
	metrics        *metrics.Metrics
	auditPublisher AuditPublisher
	tracer         trace.Tracer
	excluded       map[string]struct{}
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// WithExcludedOwners drops owners with these ids from every result.
func WithExcludedOwners(ids ...string) Option {
	return func(s *Service) {
		for _, id := range ids {
			if id != "" {
				s.excluded[id] = struct{}{}
			}
		}
	}
}

// New constructs a Service.
func New(client *matrikkel.Client, registry RegistryTransport, opts ...Option) (*Service, error) {
	if client == nil {
		return nil, errors.New("matrikkel client is required")
	}
	if registry == nil {
		return nil, errors.New("registry transport is required")
	}
	s := &Service{
		client:    client,
		transport: registry,
		logger:    slog.Default(),
		tracer:    otel.Tracer(tracerName),
		excluded:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// OwnersInPolygon returns one record per owner of a unit inside polygon.
// epsg identifies the coordinate system of the polygon's vertices.
func (s *Service) OwnersInPolygon(ctx context.Context, polygon geometry.Polygon, epsg string, opts ...matrikkel.RequestOption) ([]matrikkel.OwnerRecord, error) {
	ctx, span := s.tracer.Start(ctx, "matrikkel.OwnersInPolygon",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("matrikkel.epsg", epsg),
			attribute.Int("matrikkel.vertices", len(polygon.Vertices)),
		),
	)
	defer span.End()
	start := time.Now()

	code, err := matrikkel.ResolveCoordinateSystem(epsg)
	if err != nil {
		return nil, s.fail(ctx, span, matrikkel.PathUnits, err, "epsg", epsg)
	}
	span.SetAttributes(attribute.Int("matrikkel.koordinatsystem", int(code)))

	req, err := s.client.UnitsRequest(polygon, code, opts...)
	if err != nil {
		return nil, s.fail(ctx, span, matrikkel.PathUnits, err, "epsg", epsg)
	}

	var resp matrikkel.UnitsResponse
	err = s.transport.Send(ctx, req, &resp)
	s.metrics.ObserveLookup(matrikkel.PathUnits, start)
	if err != nil {
		return nil, s.fail(ctx, span, matrikkel.PathUnits, err, "epsg", epsg)
	}
	if resp.Units == nil || resp.Owners == nil {
		err := dErrors.WithTitle(dErrors.CodeUpstream,
			"Kunne ikke hente data fra matrikkelen",
			"Svaret fra matrikkelen mangler matrikkelenheter eller eiere")
		return nil, s.fail(ctx, span, matrikkel.PathUnits, err, "epsg", epsg)
	}

	records, err := matrikkel.ProjectOwnerCentric(resp.Units, resp.Owners)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeOwnershipIntegrity) {
			s.logger.ErrorContext(ctx, "registry returned ownerships without matching owners",
				"request_id", requestcontext.RequestID(ctx),
				"units", len(resp.Units),
				"owners", len(resp.Owners),
				"error", err,
			)
		}
		return nil, s.fail(ctx, span, matrikkel.PathUnits, err, "epsg", epsg)
	}

	records, excluded := s.excludeOwners(records)

	span.SetAttributes(
		attribute.Int("matrikkel.units", len(resp.Units)),
		attribute.Int("matrikkel.owners", len(records)),
	)
	span.SetStatus(codes.Ok, "")
	s.metrics.ObserveOwnersResolved(len(records))
	s.metrics.IncrementOwnersExcluded(excluded)
	s.logger.InfoContext(ctx, "resolved owners in polygon",
		"request_id", requestcontext.RequestID(ctx),
		"epsg", epsg,
		"units", len(resp.Units),
		"owners", len(records),
		"excluded", excluded,
		"duration", time.Since(start),
	)
	s.emitAudit(ctx, audit.Event{
		Action:   string(audit.EventOwnersResolved),
		ClientID: req.Body.MatrikkelContext.KlientIdentifikasjon,
		Outcome:  audit.OutcomeSuccess,
		Attributes: map[string]string{
			"epsg":     epsg,
			"vertices": strconv.Itoa(len(polygon.Vertices)),
			"units":    strconv.Itoa(len(resp.Units)),
			"owners":   strconv.Itoa(len(records)),
			"excluded": strconv.Itoa(excluded),
		},
	})
	return records, nil
}

// StoreItems fetches registry objects by id. code is the Matrikkel
// coordinate system code used for any geometry in the answer.
func (s *Service) StoreItems(ctx context.Context, items []any, code matrikkel.CoordinateSystemCode, opts ...matrikkel.RequestOption) ([]matrikkel.Record, error) {
	ctx, span := s.tracer.Start(ctx, "matrikkel.StoreItems",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.Int("matrikkel.items", len(items)),
			attribute.Int("matrikkel.koordinatsystem", int(code)),
		),
	)
	defer span.End()
	start := time.Now()

	req, err := s.client.StoreRequest(items, code, opts...)
	if err != nil {
		return nil, s.fail(ctx, span, matrikkel.PathStore, err)
	}

	var records []matrikkel.Record
	err = s.transport.Send(ctx, req, &records)
	s.metrics.ObserveLookup(matrikkel.PathStore, start)
	if err != nil {
		return nil, s.fail(ctx, span, matrikkel.PathStore, err)
	}
	if records == nil {
		records = []matrikkel.Record{}
	}

	span.SetStatus(codes.Ok, "")
	s.logger.InfoContext(ctx, "fetched registry objects",
		"request_id", requestcontext.RequestID(ctx),
		"requested", len(items),
		"returned", len(records),
		"duration", time.Since(start),
	)
	s.emitAudit(ctx, audit.Event{
		Action:   string(audit.EventStoreItemsFetched),
		ClientID: req.Body.MatrikkelContext.KlientIdentifikasjon,
		Outcome:  audit.OutcomeSuccess,
		Attributes: map[string]string{
			"requested": strconv.Itoa(len(items)),
			"returned":  strconv.Itoa(len(records)),
		},
	})
	return records, nil
}

// excludeOwners removes configured owner ids. The input slice is not
// modified.
func (s *Service) excludeOwners(records []matrikkel.OwnerRecord) ([]matrikkel.OwnerRecord, int) {
	if len(s.excluded) == 0 {
		return records, 0
	}
	kept := make([]matrikkel.OwnerRecord, 0, len(records))
	for _, r := range records {
		if key, ok := matrikkel.IDKey(r[matrikkel.FieldID]); ok {
			if _, skip := s.excluded[key]; skip {
				continue
			}
		}
		kept = append(kept, r)
	}
	return kept, len(records) - len(kept)
}

// fail records a failed lookup on every channel and returns err unchanged.
func (s *Service) fail(ctx context.Context, span trace.Span, endpoint string, err error, attrs ...any) error {
	code := dErrors.CodeOf(err)
	category := transport.CategoryOf(err)

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	s.metrics.IncrementLookupFailures(string(code), string(category))

	if code != dErrors.CodeOwnershipIntegrity {
		args := append([]any{
			"request_id", requestcontext.RequestID(ctx),
			"endpoint", endpoint,
			"code", code,
			"category", category,
			"error", err,
		}, attrs...)
		s.logger.WarnContext(ctx, "registry lookup failed", args...)
	}

	s.emitAudit(ctx, audit.Event{
		Action:  string(audit.EventOwnersFailed),
		Outcome: audit.OutcomeFailure,
		Reason:  string(code),
		Attributes: map[string]string{
			"endpoint": endpoint,
			"category": string(category),
		},
	})
	return err
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	event.RequestID = requestcontext.RequestID(ctx)
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "action", event.Action, "error", err)
	}
}
