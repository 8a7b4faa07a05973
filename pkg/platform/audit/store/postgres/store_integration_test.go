//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	audit "masseutsendelse/pkg/platform/audit"
	"masseutsendelse/pkg/platform/audit/store/postgres"
	"masseutsendelse/pkg/testutil/containers"
)

type PostgresAuditSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *postgres.Store
}

func TestPostgresAuditSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresAuditSuite))
}

func (s *PostgresAuditSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = postgres.New(s.postgres.DB)
	s.Require().NoError(s.store.Migrate(context.Background()))
}

func (s *PostgresAuditSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "audit_events"))
}

func (s *PostgresAuditSuite) TestAppendAndListByRequest() {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	s.Require().NoError(s.store.Append(ctx, audit.Event{
		ID:         uuid.New(),
		Timestamp:  base.Add(time.Second),
		Action:     string(audit.EventOwnersResolved),
		RequestID:  "req-1",
		ClientID:   "masseutsendelse",
		ClientIP:   "10.0.0.7",
		Browser:    "Firefox 126.0",
		OS:         "Windows 10",
		Outcome:    audit.OutcomeSuccess,
		Attributes: map[string]string{"owners": "2", "epsg": "25832"},
	}))
	s.Require().NoError(s.store.Append(ctx, audit.Event{
		ID:        uuid.New(),
		Timestamp: base,
		Action:    string(audit.EventGeometryExtracted),
		RequestID: "req-1",
	}))
	s.Require().NoError(s.store.Append(ctx, audit.Event{
		ID:        uuid.New(),
		Timestamp: base,
		Action:    string(audit.EventOwnersFailed),
		RequestID: "req-2",
	}))

	events, err := s.store.ListByRequest(ctx, "req-1")
	s.Require().NoError(err)
	s.Require().Len(events, 2)

	s.Equal(string(audit.EventGeometryExtracted), events[0].Action)
	s.Equal(audit.CategoryOperations, events[0].Category)
	s.Empty(events[0].Attributes)

	s.Equal(string(audit.EventOwnersResolved), events[1].Action)
	s.Equal(audit.CategoryCompliance, events[1].Category)
	s.Equal("masseutsendelse", events[1].ClientID)
	s.Equal("10.0.0.7", events[1].ClientIP)
	s.Equal("Firefox 126.0", events[1].Browser)
	s.Equal("Windows 10", events[1].OS)
	s.Equal(map[string]string{"owners": "2", "epsg": "25832"}, events[1].Attributes)
	s.True(events[1].Timestamp.Equal(base.Add(time.Second)))
}

func (s *PostgresAuditSuite) TestAppendIsIdempotentPerID() {
	ctx := context.Background()
	event := audit.Event{
		ID:        uuid.New(),
		Timestamp: time.Now().UTC(),
		Action:    string(audit.EventStoreItemsFetched),
		RequestID: "req-dup",
	}

	s.Require().NoError(s.store.Append(ctx, event))
	s.Require().NoError(s.store.Append(ctx, event))

	events, err := s.store.ListByRequest(ctx, "req-dup")
	s.Require().NoError(err)
	s.Len(events, 1)
}

func (s *PostgresAuditSuite) TestListRecent() {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := range 5 {
		s.Require().NoError(s.store.Append(ctx, audit.Event{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Action:    string(audit.EventOwnersResolved),
			RequestID: uuid.NewString(),
		}))
	}

	events, err := s.store.ListRecent(ctx, 3)
	s.Require().NoError(err)
	s.Require().Len(events, 3)
	s.True(events[0].Timestamp.Equal(base.Add(4 * time.Minute)))
	s.True(events[2].Timestamp.Equal(base.Add(2 * time.Minute)))
}
