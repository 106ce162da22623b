package settings

import (
	"context"
	"fmt"
	"time"

	"garageflow/internal/core/apperror"
	"garageflow/internal/core/id"
	"garageflow/internal/core/sparse"
	"garageflow/internal/domain"
)

// Repository persists one Settings row per garage.
type Repository interface {
	// Get returns a NOT_FOUND AppError when the garage never saved settings.
	Get(ctx context.Context, garageID id.ID) (*Settings, error)
	Upsert(ctx context.Context, s *Settings) error
}

// Service reads and updates garage settings.
type Service struct {
	repo  Repository
	audit domain.AuditLogger
}

// NewService creates a settings service. audit may be nil.
func NewService(repo Repository, audit domain.AuditLogger) *Service {
	if audit == nil {
		audit = domain.NopAuditLogger{}
	}
	return &Service{repo: repo, audit: audit}
}

// Get returns the stored settings or the defaults.
func (s *Service) Get(ctx context.Context, garageID id.ID) (*Settings, error) {
	st, err := s.repo.Get(ctx, garageID)
	if apperror.IsNotFound(err) {
		return Defaults(garageID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return st, nil
}

// Current returns the settings of the garage in ctx.
func (s *Service) Current(ctx context.Context) (*Settings, error) {
	garageID, err := domain.GarageFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, garageID)
}

// Update applies patch to the current settings of the garage in ctx.
func (s *Service) Update(ctx context.Context, patch Patch) (*Settings, error) {
	changes := sparse.Update(patch)
	if len(changes) == 0 {
		return nil, apperror.NewValidation("nothing to update")
	}

	st, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	patch.Apply(st)
	st.UpdatedAt = time.Now().UTC()
	if err := st.Validate(ctx); err != nil {
		return nil, err
	}

	if err := s.repo.Upsert(ctx, st); err != nil {
		return nil, fmt.Errorf("save settings: %w", err)
	}
	if err := s.audit.LogChange(ctx, "settings", st.GarageID, domain.AuditUpdate, changes); err != nil {
		return nil, err
	}
	return st, nil
}

// Static serves fixed settings. Used by the CLI and in tests.
type Static struct {
	Settings *Settings
}

func (s Static) Get(_ context.Context, garageID id.ID) (*Settings, error) {
	if s.Settings == nil {
		return Defaults(garageID), nil
	}
	cp := *s.Settings
	cp.GarageID = garageID
	return &cp, nil
}
