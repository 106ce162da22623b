// Package entity provides base types for domain entities.
package entity

import (
	"context"
	"time"

	"garageflow/internal/core/apperror"
	"garageflow/internal/core/id"
)

// Validatable is implemented by entities that check their own invariants
// without database access.
type Validatable interface {
	Validate(ctx context.Context) error
}

// Scoped is implemented by every entity that belongs to one garage.
type Scoped interface {
	GetGarageID() id.ID
	SetGarageID(garageID id.ID)
}

// BaseEntity contains the fields every stored row carries.
type BaseEntity struct {
	ID       id.ID `db:"id" json:"id"`
	GarageID id.ID `db:"garage_id" json:"garageId"`

	// Version for optimistic locking (incremented on each update)
	Version int `db:"version" json:"version"`
}

// NewBaseEntity creates a new BaseEntity with generated ID.
func NewBaseEntity() BaseEntity {
	return BaseEntity{
		ID:      id.New(),
		Version: 1,
	}
}

func (b *BaseEntity) GetID() id.ID { return b.ID }
func (b *BaseEntity) GetGarageID() id.ID { return b.GarageID }
func (b *BaseEntity) SetGarageID(garageID id.ID) { b.GarageID = garageID }

// Touch increments version.
func (b *BaseEntity) Touch() {
	b.Version++
}

// ValidateScope fails when the entity is not bound to a garage.
func (b *BaseEntity) ValidateScope() error {
	if id.IsNil(b.GarageID) {
		return apperror.NewValidation("garage is required").
			WithDetail("field", "garageId")
	}
	return nil
}

// BaseDocument extends BaseEntity with audit fields.
type BaseDocument struct {
	BaseEntity

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
	UpdatedBy string    `db:"updated_by" json:"updatedBy,omitempty"`
}

// NewBaseDocument creates a new BaseDocument with generated ID and timestamps.
func NewBaseDocument() BaseDocument {
	now := time.Now().UTC()
	return BaseDocument{
		BaseEntity: NewBaseEntity(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func (b *BaseDocument) SetCreatedBy(userID string) { b.CreatedBy = userID }
func (b *BaseDocument) SetUpdatedBy(userID string) { b.UpdatedBy = userID }

// Touch updates the UpdatedAt timestamp and increments version.
func (b *BaseDocument) Touch() {
	b.UpdatedAt = time.Now().UTC()
	b.BaseEntity.Touch()
}
