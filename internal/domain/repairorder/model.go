// Package repairorder tracks work on a vehicle from drop-off to delivery.
package repairorder

import (
	"context"
	"slices"
	"strings"
	"time"

	"garageflow/internal/core/apperror"
	"garageflow/internal/core/entity"
	"garageflow/internal/core/id"
)

// Status of a repair order.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

var transitions = map[Status][]Status{
	StatusPending:    {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
	StatusCompleted:  {StatusDelivered},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to Status) bool {
	return slices.Contains(transitions[from], to)
}

// MaxPhotos bounds the pictures attached when work starts.
const MaxPhotos = 12

// RepairOrder is the work sheet of one vehicle visit.
type RepairOrder struct {
	entity.BaseDocument

	ClientID  id.ID  `db:"client_id" json:"clientId"`
	VehicleID id.ID  `db:"vehicle_id" json:"vehicleId"`
	Status    Status `db:"status" json:"status"`

	// Complaint is what the customer reported at drop-off.
	Complaint string `db:"complaint" json:"complaint"`
	Mileage   *int   `db:"mileage" json:"mileage,omitempty"`

	// PhotoURLs are set once, when work starts.
	PhotoURLs []string `db:"photo_urls" json:"photoUrls"`

	StartedAt   *time.Time `db:"started_at" json:"startedAt,omitempty"`
	CompletedAt *time.Time `db:"completed_at" json:"completedAt,omitempty"`
	DeliveredAt *time.Time `db:"delivered_at" json:"deliveredAt,omitempty"`
}

// NewRepairOrder creates a pending order.
func NewRepairOrder(clientID, vehicleID id.ID, complaint string) *RepairOrder {
	return &RepairOrder{
		BaseDocument: entity.NewBaseDocument(),
		ClientID:     clientID,
		VehicleID:    vehicleID,
		Status:       StatusPending,
		Complaint:    strings.TrimSpace(complaint),
		PhotoURLs:    []string{},
	}
}

// Validate implements entity.Validatable.
func (o *RepairOrder) Validate(ctx context.Context) error {
	if err := o.ValidateScope(); err != nil {
		return err
	}
	if id.IsNil(o.ClientID) {
		return apperror.NewValidation("client is required").WithDetail("field", "clientId")
	}
	if id.IsNil(o.VehicleID) {
		return apperror.NewValidation("vehicle is required").WithDetail("field", "vehicleId")
	}
	if o.Mileage != nil && *o.Mileage < 0 {
		return apperror.NewValidation("mileage must not be negative").WithDetail("field", "mileage")
	}
	if len(o.PhotoURLs) > MaxPhotos {
		return apperror.NewValidation("too many photos").WithDetail("max", MaxPhotos)
	}
	return nil
}

// apply moves the order to status and stamps the matching timestamp.
func (o *RepairOrder) apply(to Status, at time.Time) {
	o.Status = to
	switch to {
	case StatusInProgress:
		o.StartedAt = &at
	case StatusCompleted:
		o.CompletedAt = &at
	case StatusDelivered:
		o.DeliveredAt = &at
	}
}
