package repairorder

import (
	"context"
	"fmt"
	"path"
	"time"

	"garageflow/internal/core/apperror"
	"garageflow/internal/core/id"
	"garageflow/internal/core/tx"
	"garageflow/internal/domain"
	"garageflow/internal/domain/audit"
	"garageflow/pkg/logger"
)

// Service provides business operations for repair orders.
type Service struct {
	repo      Repository
	files     FileStore
	vehicles  VehicleOwnership
	txManager tx.Manager
	events    domain.EventPublisher
	audit     domain.AuditLogger
	hooks     *domain.HookRegistry[*RepairOrder]
	now       func() time.Time
}

// Config wires a Service. Events and Audit are optional.
type Config struct {
	Repo      Repository
	Files     FileStore
	Vehicles  VehicleOwnership
	TxManager tx.Manager
	Events    domain.EventPublisher
	Audit     domain.AuditLogger
	Now       func() time.Time
}

// NewService creates a new repair order service.
func NewService(cfg Config) *Service {
	s := &Service{
		repo:      cfg.Repo,
		files:     cfg.Files,
		vehicles:  cfg.Vehicles,
		txManager: cfg.TxManager,
		events:    cfg.Events,
		audit:     cfg.Audit,
		hooks:     domain.NewHookRegistry[*RepairOrder](),
		now:       cfg.Now,
	}
	if s.events == nil {
		s.events = domain.NopPublisher{}
	}
	if s.audit == nil {
		s.audit = domain.NopAuditLogger{}
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	s.hooks.OnBeforeCreate(audit.EnrichCreatedBy[*RepairOrder])
	return s
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*RepairOrder] {
	return s.hooks
}

// CreateInput is what the front desk fills in at drop-off.
type CreateInput struct {
	ClientID  id.ID
	VehicleID id.ID
	Complaint string
	Mileage   *int
}

// Create opens a pending repair order.
func (s *Service) Create(ctx context.Context, in CreateInput) (*RepairOrder, error) {
	garageID, err := domain.GarageFromContext(ctx)
	if err != nil {
		return nil, err
	}

	o := NewRepairOrder(in.ClientID, in.VehicleID, in.Complaint)
	o.GarageID = garageID
	o.Mileage = in.Mileage
	if err := o.Validate(ctx); err != nil {
		return nil, err
	}
	if s.vehicles != nil {
		if err := s.vehicles.BelongsTo(ctx, o.VehicleID, o.ClientID); err != nil {
			return nil, err
		}
	}
	if err := s.hooks.Run(ctx, domain.BeforeCreate, o); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, o); err != nil {
			return fmt.Errorf("create repair order: %w", err)
		}
		return s.audit.LogChange(ctx, "repair_order", o.ID, domain.AuditCreate, map[string]any{
			"vehicleId": o.VehicleID,
			"status":    o.Status,
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "repair order created", "id", o.ID, "vehicle_id", o.VehicleID)
	return o, nil
}

// Get returns one repair order.
func (s *Service) Get(ctx context.Context, orderID id.ID) (*RepairOrder, error) {
	return s.repo.GetByID(ctx, orderID)
}

// List returns a page of repair orders.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*RepairOrder], error) {
	filter.Normalize()
	return s.repo.List(ctx, filter)
}

// Start moves a pending order to in_progress. Photos are uploaded first; their
// URLs are attached in the same write as the status change, so a failed upload
// leaves the order untouched.
func (s *Service) Start(ctx context.Context, orderID id.ID, photos []Photo) (*RepairOrder, error) {
	if len(photos) > MaxPhotos {
		return nil, apperror.NewValidation("too many photos").WithDetail("max", MaxPhotos)
	}

	current, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(current.Status, StatusInProgress) {
		return nil, apperror.NewInvalidTransition("repair_order", string(current.Status), string(StatusInProgress))
	}

	urls, err := s.upload(ctx, current, photos)
	if err != nil {
		return nil, err
	}

	o, err := s.transition(ctx, orderID, StatusInProgress, urls)
	if err != nil && len(urls) > 0 {
		logger.Warn(ctx, "photos uploaded for a repair order that did not start",
			"id", orderID, "urls", urls, "error", err)
	}
	return o, err
}

func (s *Service) upload(ctx context.Context, o *RepairOrder, photos []Photo) ([]string, error) {
	if len(photos) == 0 {
		return nil, nil
	}
	if s.files == nil {
		return nil, apperror.NewInternal(fmt.Errorf("no file store configured"))
	}

	urls := make([]string, 0, len(photos))
	for i, p := range photos {
		key := path.Join("repair-orders", o.ID.String(), fmt.Sprintf("%02d-%s", i+1, path.Base(p.Name)))
		url, err := s.files.Upload(ctx, o.GarageID, key, p.ContentType, p.Body)
		if err != nil {
			return nil, apperror.NewBusinessRule(apperror.CodeBusinessRule, "photo upload failed").
				WithDetail("photo", p.Name).
				WithCause(err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}

// Transition moves an order to completed, delivered or cancelled.
func (s *Service) Transition(ctx context.Context, orderID id.ID, to Status) (*RepairOrder, error) {
	if to == StatusInProgress {
		return s.Start(ctx, orderID, nil)
	}
	return s.transition(ctx, orderID, to, nil)
}

func (s *Service) transition(ctx context.Context, orderID id.ID, to Status, photoURLs []string) (*RepairOrder, error) {
	var o *RepairOrder
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		o, err = s.repo.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		from := o.Status
		if !CanTransition(from, to) {
			return apperror.NewInvalidTransition("repair_order", string(from), string(to))
		}

		o.apply(to, s.now())
		if photoURLs != nil {
			o.PhotoURLs = photoURLs
		}
		if err := s.repo.Update(ctx, o); err != nil {
			return err
		}

		if err := s.events.Publish(ctx, domain.Event{
			AggregateType: "repair_order",
			AggregateID:   o.ID,
			GarageID:      o.GarageID,
			EventType:     domain.EventRepairOrderTransitioned,
			Payload:       map[string]any{"from": from, "to": to, "photos": len(o.PhotoURLs)},
		}); err != nil {
			return fmt.Errorf("publish transition event: %w", err)
		}
		return s.audit.LogChange(ctx, "repair_order", o.ID, domain.AuditTransition,
			map[string]any{"status": map[string]any{"old": from, "new": to}})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "repair order status changed", "id", o.ID, "status", to)
	return o, nil
}
