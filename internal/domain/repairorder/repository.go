package repairorder

import (
	"context"
	"io"

	"garageflow/internal/core/id"
	"garageflow/internal/domain"
)

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -source=repository.go -destination=mock_repository.go -package=repairorder

// Repository persists repair orders. Calls are scoped to the garage in ctx.
type Repository interface {
	Create(ctx context.Context, o *RepairOrder) error
	GetByID(ctx context.Context, orderID id.ID) (*RepairOrder, error)
	GetForUpdate(ctx context.Context, orderID id.ID) (*RepairOrder, error)

	// Update writes the order if its version still matches.
	Update(ctx context.Context, o *RepairOrder) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*RepairOrder], error)
}

// ListFilter narrows a repair order listing.
type ListFilter struct {
	domain.ListFilter

	Status    *Status
	VehicleID *id.ID
}

// Photo is a picture taken on the device before work starts.
type Photo struct {
	Name        string
	ContentType string
	Body        io.Reader
}

// FileStore uploads photos and returns their public URLs.
type FileStore interface {
	Upload(ctx context.Context, garageID id.ID, key string, contentType string, body io.Reader) (string, error)
}

// VehicleOwnership checks that a vehicle belongs to a client.
type VehicleOwnership interface {
	BelongsTo(ctx context.Context, vehicleID, clientID id.ID) error
}
