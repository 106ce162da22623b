package domain

import (
	"context"

	"garageflow/internal/core/id"
)

// Event types written to the outbox.
const (
	EventDocumentCreated         = "document.created"
	EventDocumentStatusChanged   = "document.status_changed"
	EventNumberingCommitFailed   = "numbering.commit_failed"
	EventRepairOrderTransitioned = "repair_order.transitioned"
)

// Event is a domain event recorded in the same transaction as the change it describes.
type Event struct {
	AggregateType string
	AggregateID   id.ID
	GarageID      id.ID
	EventType     string
	Payload       any
}

// EventPublisher stores events for later relay. Publish must run inside a transaction.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// AuditAction is the kind of change recorded in the audit trail.
type AuditAction string

const (
	AuditCreate     AuditAction = "create"
	AuditUpdate     AuditAction = "update"
	AuditTransition AuditAction = "transition"
)

// AuditLogger records who changed what.
type AuditLogger interface {
	LogChange(ctx context.Context, entityType string, entityID id.ID, action AuditAction, changes map[string]any) error
}

// NopPublisher discards events.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// NopAuditLogger discards audit entries.
type NopAuditLogger struct{}

func (NopAuditLogger) LogChange(context.Context, string, id.ID, AuditAction, map[string]any) error {
	return nil
}
