package client

import (
	"context"

	"garageflow/internal/core/apperror"
	"garageflow/internal/core/id"
	"garageflow/internal/core/tx"
	"garageflow/internal/domain"
)

// Service provides business logic for the Client catalog.
type Service struct {
	*domain.CatalogService[*Client]
	repo Repository
}

// NewService creates a new Client service.
func NewService(repo Repository, txManager tx.Manager, audit domain.AuditLogger) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Client]{
		Repo:       repo,
		TxManager:  txManager,
		Audit:      audit,
		EntityName: "client",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
	}

	base.Hooks().OnBeforeCreate(svc.prepare)
	base.Hooks().OnBeforeUpdate(svc.prepare)

	return svc
}

// prepare normalizes the client and rejects a second client with the same email.
func (s *Service) prepare(ctx context.Context, c *Client) error {
	c.Normalize()
	if c.Email == nil || *c.Email == "" {
		return nil
	}
	taken, err := s.emailTaken(ctx, *c.Email, c.ID)
	if err != nil {
		return err
	}
	if taken {
		return apperror.NewDuplicate("client", "email", *c.Email)
	}
	return nil
}

func (s *Service) emailTaken(ctx context.Context, email string, excludeID id.ID) (bool, error) {
	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if apperror.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return existing.ID != excludeID, nil
}

// Resolve returns the client a document is addressed to. A marked-deleted
// client cannot receive new documents.
func (s *Service) Resolve(ctx context.Context, clientID id.ID) (*Client, error) {
	c, err := s.GetByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if c.DeletionMark {
		return nil, apperror.NewBusinessRule(apperror.CodeBusinessRule, "client is archived").
			WithDetail("clientId", clientID.String())
	}
	return c, nil
}
