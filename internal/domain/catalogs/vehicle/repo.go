package vehicle

import (
	"context"

	"garageflow/internal/core/id"
	"garageflow/internal/domain"
)

// Repository defines the interface for Vehicle persistence.
type Repository interface {
	domain.CatalogRepository[*Vehicle]

	// FindByRegistration retrieves a vehicle by plate within the current garage.
	FindByRegistration(ctx context.Context, registration string) (*Vehicle, error)

	// ListByClient returns the vehicles owned by a client.
	ListByClient(ctx context.Context, clientID id.ID) ([]*Vehicle, error)
}

// ClientChecker reports whether a client exists in the current garage.
type ClientChecker interface {
	Exists(ctx context.Context, clientID id.ID) (bool, error)
}
