package client

import (
	"context"

	"garageflow/internal/domain"
)

// Repository defines the interface for Client persistence.
type Repository interface {
	domain.CatalogRepository[*Client]

	// FindByEmail retrieves a client by email within the current garage.
	FindByEmail(ctx context.Context, email string) (*Client, error)
}
