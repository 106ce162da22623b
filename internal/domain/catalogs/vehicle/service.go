package vehicle

import (
	"context"

	"garageflow/internal/core/apperror"
	"garageflow/internal/core/id"
	"garageflow/internal/core/tx"
	"garageflow/internal/domain"
)

// Service provides business logic for the Vehicle catalog.
type Service struct {
	*domain.CatalogService[*Vehicle]
	repo    Repository
	clients ClientChecker
}

// NewService creates a new Vehicle service.
func NewService(repo Repository, clients ClientChecker, txManager tx.Manager, audit domain.AuditLogger) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Vehicle]{
		Repo:       repo,
		TxManager:  txManager,
		Audit:      audit,
		EntityName: "vehicle",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		clients:        clients,
	}

	base.Hooks().OnBeforeCreate(svc.prepare)
	base.Hooks().OnBeforeUpdate(svc.prepare)

	return svc
}

func (s *Service) prepare(ctx context.Context, v *Vehicle) error {
	v.Normalize()

	if !id.IsNil(v.ClientID) {
		ok, err := s.clients.Exists(ctx, v.ClientID)
		if err != nil {
			return err
		}
		if !ok {
			return apperror.NewValidation("owner not found").
				WithDetail("field", "clientId").
				WithDetail("value", v.ClientID.String())
		}
	}

	if v.Registration == "" {
		return nil
	}
	existing, err := s.repo.FindByRegistration(ctx, v.Registration)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil
		}
		return err
	}
	if existing.ID != v.ID {
		return apperror.NewDuplicate("vehicle", "registration", v.Registration)
	}
	return nil
}

// FindByRegistration looks a vehicle up by plate, in any spelling.
func (s *Service) FindByRegistration(ctx context.Context, registration string) (*Vehicle, error) {
	return s.repo.FindByRegistration(ctx, NormalizeRegistration(registration))
}

// ListByClient returns the vehicles owned by a client.
func (s *Service) ListByClient(ctx context.Context, clientID id.ID) ([]*Vehicle, error) {
	return s.repo.ListByClient(ctx, clientID)
}

// BelongsTo checks that vehicleID is owned by clientID. Used before a
// document links both.
func (s *Service) BelongsTo(ctx context.Context, vehicleID, clientID id.ID) error {
	v, err := s.GetByID(ctx, vehicleID)
	if err != nil {
		return err
	}
	if v.ClientID != clientID {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule, "vehicle belongs to another client").
			WithDetail("vehicleId", vehicleID.String()).
			WithDetail("clientId", clientID.String())
	}
	return nil
}
