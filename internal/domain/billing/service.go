package billing

import (
	"context"
	"fmt"
	"time"

	"garageflow/internal/core/apperror"
	"garageflow/internal/core/id"
	"garageflow/internal/core/numerator"
	"garageflow/internal/core/tx"
	"garageflow/internal/domain"
	"garageflow/internal/domain/settings"
	"garageflow/pkg/logger"
)

// FailureClassNumberingCommit tags log lines for a counter that was not
// advanced after its document was stored.
const FailureClassNumberingCommit = "numbering_commit"

// maxNumberAttempts bounds the re-peek loop after a number collision.
const maxNumberAttempts = 3

// SettingsProvider returns the settings of a garage.
type SettingsProvider interface {
	Get(ctx context.Context, garageID id.ID) (*settings.Settings, error)
}

// Config wires a Service.
type Config struct {
	Repo      Repository
	Counter   numerator.Counter
	Settings  SettingsProvider
	TxManager tx.Manager
	Strategy  numerator.Strategy

	Events  domain.EventPublisher // optional
	Audit   domain.AuditLogger    // optional
	Alerter Alerter               // optional
	Clock   func() time.Time      // optional
}

// Service creates, reads and transitions quotes and invoices.
type Service struct {
	repo      Repository
	counter   numerator.Counter
	settings  SettingsProvider
	txManager tx.Manager
	strategy  numerator.Strategy
	events    domain.EventPublisher
	audit     domain.AuditLogger
	alerter   Alerter
	now       func() time.Time
	hooks     *domain.HookRegistry[*Document]
}

// NewService creates a billing service.
func NewService(cfg Config) *Service {
	s := &Service{
		repo:      cfg.Repo,
		counter:   cfg.Counter,
		settings:  cfg.Settings,
		txManager: cfg.TxManager,
		strategy:  cfg.Strategy,
		events:    cfg.Events,
		audit:     cfg.Audit,
		alerter:   cfg.Alerter,
		now:       cfg.Clock,
		hooks:     domain.NewHookRegistry[*Document](),
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
	return s
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*Document] {
	return s.hooks
}

// Preview computes totals for lines being edited. No side effects.
func (s *Service) Preview(lines []LineItem) Totals {
	return Calculate(lines)
}

// PeekNumber formats the number the next document of cat would receive.
// Display only: nothing is reserved.
func (s *Service) PeekNumber(ctx context.Context, cat Category) (numerator.Number, error) {
	if !cat.Valid() {
		return numerator.Number{}, apperror.NewValidation("unknown document category").WithDetail("field", "category")
	}
	garageID, err := domain.GarageFromContext(ctx)
	if err != nil {
		return numerator.Number{}, err
	}
	st, err := s.settings.Get(ctx, garageID)
	if err != nil {
		return numerator.Number{}, err
	}
	seq, err := s.counter.Peek(ctx, garageID, cat)
	if err != nil {
		return numerator.Number{}, fmt.Errorf("peek counter: %w", err)
	}
	return numerator.Number{Prefix: st.Prefix(cat), Sequence: seq}, nil
}

// Create validates in, numbers and persists the document, then advances the
// counter exactly once.
func (s *Service) Create(ctx context.Context, in AssembleInput) (*Document, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	garageID, err := domain.GarageFromContext(ctx)
	if err != nil {
		return nil, err
	}
	st, err := s.settings.Get(ctx, garageID)
	if err != nil {
		return nil, err
	}

	if in.IssueDate.IsZero() {
		in.IssueDate = s.now().Truncate(24 * time.Hour)
	}
	if in.DueDate == nil && in.Category == numerator.CategoryInvoice {
		in.DueDate = st.DueDate(in.IssueDate)
	}

	var doc *Document
	if s.strategy == numerator.StrategyDeferred {
		doc, err = s.createDeferred(ctx, garageID, in, st)
	} else {
		doc, err = s.createStrict(ctx, garageID, in, st)
	}
	if err != nil {
		return nil, err
	}

	if err := s.hooks.Run(ctx, domain.AfterCreate, doc); err != nil {
		logger.Warn(ctx, "after-create hook failed", "document_id", doc.ID, "error", err)
	}
	logger.Info(ctx, "document created",
		"document_id", doc.ID,
		"category", doc.Category,
		"number", doc.Number,
		"status", doc.Status,
		"total_incl_tax", doc.TotalInclTax.StringFixed(2),
		"strategy", s.strategy.String())
	return doc, nil
}

// createStrict holds the counter row lock while the document is inserted and
// the counter advanced. Any failure rolls all three back.
func (s *Service) createStrict(ctx context.Context, garageID id.ID, in AssembleInput, st *settings.Settings) (*Document, error) {
	var doc *Document
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		seq, err := s.counter.Lock(ctx, garageID, in.Category)
		if err != nil {
			return fmt.Errorf("lock counter: %w", err)
		}
		doc, err = s.assemble(ctx, garageID, in, st, seq)
		if err != nil {
			return err
		}
		if err := s.persist(ctx, doc); err != nil {
			return err
		}
		if _, err := s.counter.Commit(ctx, garageID, in.Category, seq); err != nil {
			return fmt.Errorf("commit counter: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// createDeferred persists first and advances the counter afterwards. A unique
// index rejects a number taken concurrently; the counter is then moved past it
// and the number re-peeked.
func (s *Service) createDeferred(ctx context.Context, garageID id.ID, in AssembleInput, st *settings.Settings) (*Document, error) {
	for attempt := 1; ; attempt++ {
		seq, err := s.counter.Peek(ctx, garageID, in.Category)
		if err != nil {
			return nil, fmt.Errorf("peek counter: %w", err)
		}
		doc, err := s.assemble(ctx, garageID, in, st, seq)
		if err != nil {
			return nil, err
		}

		err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
			return s.persist(ctx, doc)
		})
		if apperror.IsDuplicate(err) && attempt < maxNumberAttempts {
			logger.Warn(ctx, "document number taken, retrying", "number", doc.Number, "attempt", attempt)
			if _, cerr := s.counter.Commit(ctx, garageID, in.Category, seq); cerr != nil {
				return nil, fmt.Errorf("advance counter past %s: %w", doc.Number, cerr)
			}
			continue
		}
		if err != nil {
			return nil, err
		}

		if _, err := s.counter.Commit(ctx, garageID, in.Category, seq); err != nil {
			s.reportCommitFailure(ctx, doc, err)
		}
		return doc, nil
	}
}

func (s *Service) assemble(ctx context.Context, garageID id.ID, in AssembleInput, st *settings.Settings, seq int64) (*Document, error) {
	number := numerator.Number{Prefix: st.Prefix(in.Category), Sequence: seq}
	doc, err := Assemble(garageID, in, number, st.Currency)
	if err != nil {
		return nil, err
	}
	if err := s.hooks.Run(ctx, domain.BeforeCreate, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// persist writes the document, its created event and audit entry. Must run in a transaction.
func (s *Service) persist(ctx context.Context, doc *Document) error {
	if err := s.repo.Create(ctx, doc); err != nil {
		if apperror.IsAppError(err) {
			return err
		}
		return apperror.NewInternal(err).WithDetail("operation", "create_document")
	}
	if err := s.events.Publish(ctx, domain.Event{
		AggregateType: doc.EntityName(),
		AggregateID:   doc.ID,
		GarageID:      doc.GarageID,
		EventType:     domain.EventDocumentCreated,
		Payload:       createdPayload(doc),
	}); err != nil {
		return fmt.Errorf("publish created event: %w", err)
	}
	return s.audit.LogChange(ctx, doc.EntityName(), doc.ID, domain.AuditCreate, map[string]any{
		"number": doc.Number,
		"status": doc.Status,
		"total":  doc.TotalInclTax.String(),
	})
}

// reportCommitFailure surfaces a stored document whose counter did not move.
// The document stays valid; the caller is not failed.
func (s *Service) reportCommitFailure(ctx context.Context, doc *Document, cause error) {
	failure := CommitFailure{
		GarageID:   doc.GarageID,
		DocumentID: doc.ID,
		Category:   doc.Category,
		Number:     doc.Number,
		Cause:      cause.Error(),
		OccurredAt: s.now(),
	}
	appErr := apperror.NewNumberingCommit(string(doc.Category), doc.Number, cause)

	logger.Error(ctx, "numbering counter not advanced after document was stored",
		"failure_class", FailureClassNumberingCommit,
		"document_id", doc.ID,
		"number", doc.Number,
		"category", doc.Category,
		"error", appErr)

	if s.alerter != nil {
		if err := s.alerter.NumberingCommitFailed(ctx, failure); err != nil {
			logger.Error(ctx, "operator alert failed", "failure_class", FailureClassNumberingCommit, "error", err)
		}
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.events.Publish(ctx, domain.Event{
			AggregateType: "numbering",
			AggregateID:   doc.ID,
			GarageID:      doc.GarageID,
			EventType:     domain.EventNumberingCommitFailed,
			Payload:       failure,
		})
	})
	if err != nil {
		logger.Error(ctx, "record commit failure event", "failure_class", FailureClassNumberingCommit, "error", err)
	}
}

// Get returns a document with its lines.
func (s *Service) Get(ctx context.Context, docID id.ID) (*Document, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("document", docID.String())
		}
		return nil, err
	}
	return doc, nil
}

// List returns a page of documents.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Document], error) {
	filter.Normalize()
	return s.repo.List(ctx, filter)
}

// Transition moves a document along its lifecycle. Lines and totals never change.
func (s *Service) Transition(ctx context.Context, docID id.ID, to Status) (*Document, error) {
	var doc *Document
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		from := doc.Status
		if !to.ValidFor(doc.Category) || !CanTransition(doc.Category, from, to) {
			return apperror.NewInvalidTransition(doc.EntityName(), string(from), string(to))
		}
		if to == StatusSent && doc.ClientID == nil {
			return apperror.NewValidationCode(apperror.CodePartyRequired,
				"a client is required to send a document").WithDetail("field", "clientId")
		}

		if err := s.repo.UpdateStatus(ctx, doc.ID, to, doc.Version); err != nil {
			return err
		}
		doc.Status = to
		doc.Touch()

		if err := s.events.Publish(ctx, domain.Event{
			AggregateType: doc.EntityName(),
			AggregateID:   doc.ID,
			GarageID:      doc.GarageID,
			EventType:     domain.EventDocumentStatusChanged,
			Payload:       map[string]any{"number": doc.Number, "from": from, "to": to},
		}); err != nil {
			return fmt.Errorf("publish status event: %w", err)
		}
		return s.audit.LogChange(ctx, doc.EntityName(), doc.ID, domain.AuditTransition,
			map[string]any{"status": map[string]any{"old": from, "new": to}})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "document status changed", "document_id", doc.ID, "number", doc.Number, "status", to)
	return doc, nil
}

// ConvertToInvoice creates a draft invoice from an accepted quote, copying
// its frozen lines. A quote is invoiced at most once; a unique index backs
// the check against concurrent conversions.
func (s *Service) ConvertToInvoice(ctx context.Context, quoteID id.ID) (*Document, error) {
	quote, err := s.Get(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if quote.Category != numerator.CategoryQuote {
		return nil, apperror.NewBusinessRule(apperror.CodeBusinessRule, "only quotes can be converted").
			WithDetail("documentId", quoteID.String())
	}
	if quote.Status != StatusAccepted {
		return nil, apperror.NewBusinessRule(apperror.CodeBusinessRule, "quote must be accepted before invoicing").
			WithDetail("status", quote.Status)
	}
	invoiceID, found, err := s.repo.InvoiceForQuote(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if found {
		return nil, apperror.NewConflict("quote already invoiced").
			WithDetail("quoteId", quoteID.String()).
			WithDetail("invoiceId", invoiceID.String())
	}

	lines := make([]LineItem, len(quote.Lines))
	copy(lines, quote.Lines)
	return s.Create(ctx, AssembleInput{
		Category:         numerator.CategoryInvoice,
		Status:           StatusDraft,
		Lines:            lines,
		ClientID:         quote.ClientID,
		VehicleID:        quote.VehicleID,
		RepairOrderID:    quote.RepairOrderID,
		SourceDocumentID: &quote.ID,
		Notes:            quote.Notes,
	})
}

// MarkOverdue flips unpaid invoices past their due date. Run by the worker.
func (s *Service) MarkOverdue(ctx context.Context) (int, error) {
	today := s.now().Truncate(24 * time.Hour)
	var refs []OverdueRef
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		refs, err = s.repo.MarkOverdue(ctx, today)
		if err != nil {
			return err
		}
		for _, ref := range refs {
			if err := s.events.Publish(ctx, domain.Event{
				AggregateType: "invoice",
				AggregateID:   ref.ID,
				GarageID:      ref.GarageID,
				EventType:     domain.EventDocumentStatusChanged,
				Payload:       map[string]any{"number": ref.Number, "from": StatusSent, "to": StatusOverdue},
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("mark overdue: %w", err)
	}
	return len(refs), nil
}

func createdPayload(doc *Document) map[string]any {
	return map[string]any{
		"number":       doc.Number,
		"category":     doc.Category,
		"status":       doc.Status,
		"clientId":     doc.ClientID,
		"totalExclTax": doc.TotalExclTax.String(),
		"totalTax":     doc.TotalTax.String(),
		"totalInclTax": doc.TotalInclTax.String(),
		"currency":     doc.Currency,
	}
}
