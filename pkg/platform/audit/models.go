package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventCategory classifies audit events by their primary purpose.
type EventCategory string

const (
	// CategoryCompliance covers events where personal data left the registry.
	// Owner names and addresses are personal data, so every lookup that
	// returns owners is recorded here.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers routine activity useful for debugging.
	CategoryOperations EventCategory = "operations"
)

type AuditEvent string

const (
	EventOwnersResolved    AuditEvent = "matrikkel_lookup"
	EventOwnersFailed      AuditEvent = "matrikkel_lookup_failed"
	EventStoreItemsFetched AuditEvent = "matrikkel_store_lookup"
	EventGeometryExtracted AuditEvent = "geometry_extracted"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventOwnersResolved:    CategoryCompliance,
	EventStoreItemsFetched: CategoryCompliance,

	EventOwnersFailed:      CategoryOperations,
	EventGeometryExtracted: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Outcome values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Event records one registry interaction. Attributes carry counts and
// codes, never owner data itself.
type Event struct {
	ID        uuid.UUID
	Category  EventCategory
	Timestamp time.Time
	Action    string
	RequestID string
	// ClientID is the klientIdentifikasjon the registry saw.
	ClientID string
	// ClientIP, Browser and OS describe the caller of this service.
	ClientIP   string
	Browser    string
	OS         string
	Outcome    string
	Reason     string
	Attributes map[string]string
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByRequest(ctx context.Context, requestID string) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
