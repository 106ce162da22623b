package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"garageflow/internal/core/id"
	"garageflow/internal/domain/catalogs/vehicle"
	"garageflow/internal/infrastructure/storage/postgres"
)

const vehicleTable = "cat_vehicles"

// VehicleRepo implements vehicle.Repository.
type VehicleRepo struct {
	*BaseCatalogRepo[*vehicle.Vehicle]
}

var _ vehicle.Repository = (*VehicleRepo)(nil)

// NewVehicleRepo creates a new vehicle repository.
func NewVehicleRepo(txManager *postgres.TxManager) *VehicleRepo {
	return &VehicleRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(txManager, BaseCatalogConfig[*vehicle.Vehicle]{
			TableName:  vehicleTable,
			EntityName: "vehicle",
			SelectCols: postgres.ExtractDBColumns[vehicle.Vehicle](),
			SearchCols: []string{"registration", "vin", "make", "model"},
			New:        func() *vehicle.Vehicle { return &vehicle.Vehicle{} },
		}),
	}
}

// FindByRegistration retrieves a live vehicle by its normalized plate.
func (r *VehicleRepo) FindByRegistration(ctx context.Context, registration string) (*vehicle.Vehicle, error) {
	q, err := r.ScopedSelect(ctx)
	if err != nil {
		return nil, err
	}
	return r.FindOne(ctx, q.
		Where(squirrel.Eq{"registration": registration, "deletion_mark": false}).
		Limit(1))
}

// ListByClient returns the live vehicles owned by a client.
func (r *VehicleRepo) ListByClient(ctx context.Context, clientID id.ID) ([]*vehicle.Vehicle, error) {
	q, err := r.ScopedSelect(ctx)
	if err != nil {
		return nil, err
	}
	return r.FindMany(ctx, q.
		Where(squirrel.Eq{"client_id": clientID, "deletion_mark": false}).
		OrderBy("registration ASC"))
}
