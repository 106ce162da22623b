package domain

import (
	"context"
	"fmt"

	"garageflow/internal/core/apperror"
	appctx "garageflow/internal/core/context"
	"garageflow/internal/core/entity"
	"garageflow/internal/core/id"
	"garageflow/internal/core/sparse"
	"garageflow/internal/core/tx"
	"garageflow/pkg/logger"
)

// CatalogEntity is what CatalogService manages: a validatable, garage-scoped record.
type CatalogEntity interface {
	entity.Validatable
	entity.Scoped
	GetID() id.ID
}

// CatalogService provides business logic for catalog entities.
type CatalogService[T CatalogEntity] struct {
	repo      CatalogRepository[T]
	txManager tx.Manager
	audit     AuditLogger
	hooks     *HookRegistry[T]

	entityName string
}

// CatalogServiceConfig configures the catalog service.
type CatalogServiceConfig[T CatalogEntity] struct {
	Repo       CatalogRepository[T]
	TxManager  tx.Manager
	Audit      AuditLogger // optional
	EntityName string
}

// NewCatalogService creates a new catalog service.
func NewCatalogService[T CatalogEntity](cfg CatalogServiceConfig[T]) *CatalogService[T] {
	audit := cfg.Audit
	if audit == nil {
		audit = NopAuditLogger{}
	}
	return &CatalogService[T]{
		repo:       cfg.Repo,
		txManager:  cfg.TxManager,
		audit:      audit,
		hooks:      NewHookRegistry[T](),
		entityName: cfg.EntityName,
	}
}

// Hooks returns the hook registry for external registration.
func (s *CatalogService[T]) Hooks() *HookRegistry[T] {
	return s.hooks
}

func (s *CatalogService[T]) normalizeValidationErr(err error) error {
	if err == nil || apperror.IsAppError(err) {
		return err
	}
	return apperror.NewValidation(err.Error())
}

func (s *CatalogService[T]) normalizeGetErr(err error, key any) error {
	if err == nil {
		return nil
	}
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound(s.entityName, key)
	}
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewInternal(err).WithDetail("entity", s.entityName).WithDetail("id", key)
}

// Create binds the entity to the caller's garage, validates and inserts it.
func (s *CatalogService[T]) Create(ctx context.Context, e T) error {
	garageID, err := GarageFromContext(ctx)
	if err != nil {
		return err
	}
	e.SetGarageID(garageID)

	if err := s.hooks.Run(ctx, BeforeCreate, e); err != nil {
		return err
	}
	if err := e.Validate(ctx); err != nil {
		return s.normalizeValidationErr(err)
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, e); err != nil {
			return fmt.Errorf("create %s: %w", s.entityName, err)
		}
		return s.audit.LogChange(ctx, s.entityName, e.GetID(), AuditCreate, sparse.Update(e))
	})
	if err != nil {
		return err
	}

	if err := s.hooks.Run(ctx, AfterCreate, e); err != nil {
		logger.Warn(ctx, "after-create hook failed", "entity", s.entityName, "error", err)
	}
	return nil
}

// GetByID retrieves entity by ID.
func (s *CatalogService[T]) GetByID(ctx context.Context, entityID id.ID) (T, error) {
	e, err := s.repo.GetByID(ctx, entityID)
	if err != nil {
		return e, s.normalizeGetErr(err, entityID.String())
	}
	return e, nil
}

// Update replaces an existing entity (optimistic locking on version).
func (s *CatalogService[T]) Update(ctx context.Context, e T) error {
	garageID, err := GarageFromContext(ctx)
	if err != nil {
		return err
	}
	e.SetGarageID(garageID)

	if err := s.hooks.Run(ctx, BeforeUpdate, e); err != nil {
		return err
	}
	if err := e.Validate(ctx); err != nil {
		return s.normalizeValidationErr(err)
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, e); err != nil {
			return fmt.Errorf("update %s: %w", s.entityName, err)
		}
		return s.audit.LogChange(ctx, s.entityName, e.GetID(), AuditUpdate, sparse.Update(e))
	})
	if err != nil {
		return err
	}

	if err := s.hooks.Run(ctx, AfterUpdate, e); err != nil {
		logger.Warn(ctx, "after-update hook failed", "entity", s.entityName, "error", err)
	}
	return nil
}

// Patch applies a partial update. patch is a struct of pointer fields;
// only the fields that are set reach the store.
func (s *CatalogService[T]) Patch(ctx context.Context, entityID id.ID, patch any) (T, error) {
	var zero T
	columns := sparse.Update(patch)
	if len(columns) == 0 {
		return zero, apperror.NewValidation("nothing to update")
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Patch(ctx, entityID, columns); err != nil {
			return s.normalizeGetErr(err, entityID.String())
		}
		return s.audit.LogChange(ctx, s.entityName, entityID, AuditUpdate, columns)
	})
	if err != nil {
		return zero, err
	}
	return s.GetByID(ctx, entityID)
}

// Delete sets the deletion mark. Documents keep their references.
func (s *CatalogService[T]) Delete(ctx context.Context, entityID id.ID) error {
	if err := s.repo.SetDeletionMark(ctx, entityID, true); err != nil {
		return s.normalizeGetErr(err, entityID.String())
	}
	return nil
}

// List retrieves entities with filtering.
func (s *CatalogService[T]) List(ctx context.Context, filter ListFilter) (ListResult[T], error) {
	filter.Normalize()
	return s.repo.List(ctx, filter)
}

// Exists checks if entity exists.
func (s *CatalogService[T]) Exists(ctx context.Context, entityID id.ID) (bool, error) {
	return s.repo.Exists(ctx, entityID)
}

// GarageFromContext returns the garage the request is scoped to.
func GarageFromContext(ctx context.Context) (id.ID, error) {
	raw := appctx.GetGarageID(ctx)
	if raw == "" {
		return id.ID{}, apperror.NewForbidden("no garage in request scope")
	}
	garageID, err := id.Parse(raw)
	if err != nil {
		return id.ID{}, apperror.NewForbidden("invalid garage in request scope")
	}
	return garageID, nil
}
