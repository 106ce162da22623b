package billing_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"garageflow/internal/core/apperror"
	appctx "garageflow/internal/core/context"
	"garageflow/internal/core/id"
	"garageflow/internal/core/numerator"
	"garageflow/internal/core/tx"
	"garageflow/internal/domain"
	"garageflow/internal/domain/billing"
	"garageflow/internal/domain/settings"
	"garageflow/pkg/logger"
)

var fixedNow = time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

type recordingPublisher struct {
	events []domain.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e domain.Event) error {
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType)
	}
	return out
}

type fixture struct {
	garage  id.ID
	ctx     context.Context
	repo    *billing.MockRepository
	alerter *billing.MockAlerter
	counter *numerator.MockCounter
	events  *recordingPublisher
	logs    *observer.ObservedLogs
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	garage := id.New()

	core, logs := observer.New(zapcore.DebugLevel)
	ctx := appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "u1", GarageID: garage.String()})
	ctx = logger.WithLogger(ctx, logger.NewFromZap(zap.New(core)))

	return &fixture{
		garage:  garage,
		ctx:     ctx,
		repo:    billing.NewMockRepository(ctrl),
		alerter: billing.NewMockAlerter(ctrl),
		counter: &numerator.MockCounter{},
		events:  &recordingPublisher{},
		logs:    logs,
	}
}

func (f *fixture) service(strategy numerator.Strategy) *billing.Service {
	return billing.NewService(billing.Config{
		Repo:      f.repo,
		Counter:   f.counter,
		Settings:  settings.Static{},
		TxManager: tx.Passthrough,
		Strategy:  strategy,
		Events:    f.events,
		Alerter:   f.alerter,
		Clock:     func() time.Time { return fixedNow },
	})
}

func oilChange() []billing.LineItem {
	return []billing.LineItem{
		line("Vidange", "0.5", "55", "20"),
		line("Huile", "1", "45", "20"),
	}
}

func codeOf(t *testing.T, err error) string {
	t.Helper()
	appErr, ok := apperror.AsAppError(err)
	require.Truef(t, ok, "not an AppError: %v", err)
	return appErr.Code
}

func TestCreate_StrictNumbersAndCommitsOnce(t *testing.T) {
	f := newFixture(t)
	f.counter.LockFunc = func(_ context.Context, g id.ID, cat numerator.Category) (int64, error) {
		assert.Equal(t, f.garage, g)
		assert.Equal(t, numerator.CategoryQuote, cat)
		return 7, nil
	}
	var committed []int64
	f.counter.CommitFunc = func(_ context.Context, _ id.ID, _ numerator.Category, used int64) (int64, error) {
		committed = append(committed, used)
		return used + 1, nil
	}
	f.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	doc, err := f.service(numerator.StrategyStrict).Create(f.ctx, billing.AssembleInput{
		Category: numerator.CategoryQuote,
		Lines:    oilChange(),
	})
	require.NoError(t, err)

	assert.Equal(t, "D-00007", doc.Number)
	assert.Equal(t, billing.StatusDraft, doc.Status)
	assertMoney(t, "87", doc.TotalInclTax)
	assert.Equal(t, []int64{7}, committed)
	assert.Equal(t, []string{domain.EventDocumentCreated}, f.events.types())
	assert.Nil(t, doc.DueDate)
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), doc.IssueDate)
}

func TestCreate_StrictPersistFailureLeavesCounter(t *testing.T) {
	f := newFixture(t)
	f.counter.LockFunc = func(context.Context, id.ID, numerator.Category) (int64, error) { return 12, nil }
	f.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("connection reset"))

	doc, err := f.service(numerator.StrategyStrict).Create(f.ctx, billing.AssembleInput{
		Category: numerator.CategoryInvoice,
		Lines:    oilChange(),
	})
	require.Error(t, err)
	assert.Nil(t, doc)
	assert.Equal(t, apperror.CodeInternal, codeOf(t, err))
	assert.Zero(t, f.counter.CommitCalls)
}

func TestCreate_NoBillableLinesTouchesNothing(t *testing.T) {
	f := newFixture(t)
	f.counter.LockFunc = func(context.Context, id.ID, numerator.Category) (int64, error) {
		t.Fatal("counter must not be read")
		return 0, nil
	}

	_, err := f.service(numerator.StrategyStrict).Create(f.ctx, billing.AssembleInput{
		Category: numerator.CategoryQuote,
		Lines:    []billing.LineItem{line("", "1", "100", "20"), line("  ", "2", "10", "20")},
	})
	require.Error(t, err)
	assert.Equal(t, apperror.CodeNoBillableLines, codeOf(t, err))
	assert.Zero(t, f.counter.CommitCalls)
	assert.Empty(t, f.events.events)
}

func TestCreate_SentWithoutClient(t *testing.T) {
	f := newFixture(t)

	_, err := f.service(numerator.StrategyDeferred).Create(f.ctx, billing.AssembleInput{
		Category: numerator.CategoryInvoice,
		Status:   billing.StatusSent,
		Lines:    oilChange(),
	})
	assert.Equal(t, apperror.CodePartyRequired, codeOf(t, err))
}

func TestCreate_WithoutGarage(t *testing.T) {
	f := newFixture(t)

	_, err := f.service(numerator.StrategyStrict).Create(context.Background(), billing.AssembleInput{
		Category: numerator.CategoryQuote,
		Lines:    oilChange(),
	})
	assert.Equal(t, apperror.CodeForbidden, codeOf(t, err))
}

func TestCreate_DeferredCommitFailureKeepsDocument(t *testing.T) {
	f := newFixture(t)
	f.counter.PeekFunc = func(context.Context, id.ID, numerator.Category) (int64, error) { return 3, nil }
	f.counter.CommitFunc = func(context.Context, id.ID, numerator.Category, int64) (int64, error) {
		return 0, errors.New("counter table locked")
	}
	f.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	f.alerter.EXPECT().NumberingCommitFailed(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, failure billing.CommitFailure) error {
			assert.Equal(t, "F-00003", failure.Number)
			assert.Equal(t, numerator.CategoryInvoice, failure.Category)
			assert.Contains(t, failure.Cause, "counter table locked")
			return nil
		})

	doc, err := f.service(numerator.StrategyDeferred).Create(f.ctx, billing.AssembleInput{
		Category: numerator.CategoryInvoice,
		Lines:    oilChange(),
	})
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "F-00003", doc.Number)
	assert.Equal(t, 1, f.counter.CommitCalls)
	assert.Equal(t, []string{domain.EventDocumentCreated, domain.EventNumberingCommitFailed}, f.events.types())

	failures := f.logs.FilterField(zap.String("failure_class", billing.FailureClassNumberingCommit))
	assert.GreaterOrEqual(t, failures.Len(), 1)
}

func TestCreate_DeferredRetriesTakenNumber(t *testing.T) {
	f := newFixture(t)
	next := int64(3)
	f.counter.PeekFunc = func(context.Context, id.ID, numerator.Category) (int64, error) { return next, nil }
	var committed []int64
	f.counter.CommitFunc = func(_ context.Context, _ id.ID, _ numerator.Category, used int64) (int64, error) {
		committed = append(committed, used)
		next = used + 1
		return next, nil
	}
	gomock.InOrder(
		f.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(apperror.NewDuplicate("quote", "number", "D-00003")),
		f.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil),
	)

	doc, err := f.service(numerator.StrategyDeferred).Create(f.ctx, billing.AssembleInput{
		Category: numerator.CategoryQuote,
		Lines:    oilChange(),
	})
	require.NoError(t, err)
	assert.Equal(t, "D-00004", doc.Number)
	assert.Equal(t, []int64{3, 4}, committed)
}

func TestCreate_DeferredGivesUpAfterRepeatedCollisions(t *testing.T) {
	f := newFixture(t)
	f.repo.EXPECT().Create(gomock.Any(), gomock.Any()).
		Return(apperror.NewDuplicate("quote", "number", "D-00001")).Times(3)

	_, err := f.service(numerator.StrategyDeferred).Create(f.ctx, billing.AssembleInput{
		Category: numerator.CategoryQuote,
		Lines:    oilChange(),
	})
	assert.Equal(t, apperror.CodeDuplicate, codeOf(t, err))
	assert.Equal(t, 2, f.counter.CommitCalls)
}

func TestCreate_InvoiceDueDateFromPaymentTerms(t *testing.T) {
	f := newFixture(t)
	f.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	doc, err := f.service(numerator.StrategyStrict).Create(f.ctx, billing.AssembleInput{
		Category: numerator.CategoryInvoice,
		Lines:    oilChange(),
	})
	require.NoError(t, err)
	require.NotNil(t, doc.DueDate)
	assert.Equal(t, time.Date(2026, 4, 9, 0, 0, 0, 0, time.UTC), *doc.DueDate)
}

func TestCreate_BeforeCreateHookVetoes(t *testing.T) {
	f := newFixture(t)
	svc := f.service(numerator.StrategyStrict)
	svc.Hooks().OnBeforeCreate(func(_ context.Context, doc *billing.Document) error {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule, "vehicle required").WithDetail("number", doc.Number)
	})

	_, err := svc.Create(f.ctx, billing.AssembleInput{Category: numerator.CategoryQuote, Lines: oilChange()})
	assert.Equal(t, apperror.CodeBusinessRule, codeOf(t, err))
	assert.Zero(t, f.counter.CommitCalls)
}

func TestPeekNumber(t *testing.T) {
	f := newFixture(t)
	f.counter.PeekFunc = func(context.Context, id.ID, numerator.Category) (int64, error) { return 42, nil }

	n, err := f.service(numerator.StrategyStrict).PeekNumber(f.ctx, numerator.CategoryInvoice)
	require.NoError(t, err)
	assert.Equal(t, "F-00042", n.String())
	assert.Zero(t, f.counter.CommitCalls)
}

func storedDoc(garage id.ID, cat numerator.Category, status billing.Status) *billing.Document {
	client := id.New()
	doc, err := billing.Assemble(garage, billing.AssembleInput{
		Category:  cat,
		Lines:     oilChange(),
		ClientID:  &client,
		IssueDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}, numerator.Number{Prefix: "D", Sequence: 5}, "EUR")
	if err != nil {
		panic(err)
	}
	doc.Status = status
	doc.Version = 2
	return doc
}

func TestTransition(t *testing.T) {
	t.Run("sent quote accepted", func(t *testing.T) {
		f := newFixture(t)
		doc := storedDoc(f.garage, numerator.CategoryQuote, billing.StatusSent)
		f.repo.EXPECT().GetForUpdate(gomock.Any(), doc.ID).Return(doc, nil)
		f.repo.EXPECT().UpdateStatus(gomock.Any(), doc.ID, billing.StatusAccepted, 2).Return(nil)

		got, err := f.service(numerator.StrategyStrict).Transition(f.ctx, doc.ID, billing.StatusAccepted)
		require.NoError(t, err)
		assert.Equal(t, billing.StatusAccepted, got.Status)
		assertMoney(t, "87", got.TotalInclTax)
		assert.Equal(t, []string{domain.EventDocumentStatusChanged}, f.events.types())
	})

	t.Run("draft invoice cannot be paid", func(t *testing.T) {
		f := newFixture(t)
		doc := storedDoc(f.garage, numerator.CategoryInvoice, billing.StatusDraft)
		f.repo.EXPECT().GetForUpdate(gomock.Any(), doc.ID).Return(doc, nil)

		_, err := f.service(numerator.StrategyStrict).Transition(f.ctx, doc.ID, billing.StatusPaid)
		assert.Equal(t, apperror.CodeInvalidTransition, codeOf(t, err))
	})

	t.Run("quote cannot be paid", func(t *testing.T) {
		f := newFixture(t)
		doc := storedDoc(f.garage, numerator.CategoryQuote, billing.StatusSent)
		f.repo.EXPECT().GetForUpdate(gomock.Any(), doc.ID).Return(doc, nil)

		_, err := f.service(numerator.StrategyStrict).Transition(f.ctx, doc.ID, billing.StatusPaid)
		assert.Equal(t, apperror.CodeInvalidTransition, codeOf(t, err))
	})

	t.Run("concurrent update", func(t *testing.T) {
		f := newFixture(t)
		doc := storedDoc(f.garage, numerator.CategoryInvoice, billing.StatusSent)
		f.repo.EXPECT().GetForUpdate(gomock.Any(), doc.ID).Return(doc, nil)
		f.repo.EXPECT().UpdateStatus(gomock.Any(), doc.ID, billing.StatusPaid, 2).
			Return(apperror.NewConcurrentModification("invoice", doc.ID.String()))

		_, err := f.service(numerator.StrategyStrict).Transition(f.ctx, doc.ID, billing.StatusPaid)
		assert.True(t, apperror.IsConcurrentModification(err))
		assert.Empty(t, f.events.events)
	})
}

func TestConvertToInvoice(t *testing.T) {
	f := newFixture(t)
	quote := storedDoc(f.garage, numerator.CategoryQuote, billing.StatusAccepted)
	f.repo.EXPECT().GetByID(gomock.Any(), quote.ID).Return(quote, nil)
	f.repo.EXPECT().InvoiceForQuote(gomock.Any(), quote.ID).Return(id.ID{}, false, nil)
	f.counter.LockFunc = func(_ context.Context, _ id.ID, cat numerator.Category) (int64, error) {
		assert.Equal(t, numerator.CategoryInvoice, cat)
		return 9, nil
	}
	var stored *billing.Document
	f.repo.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, doc *billing.Document) error {
			stored = doc
			return nil
		})

	inv, err := f.service(numerator.StrategyStrict).ConvertToInvoice(f.ctx, quote.ID)
	require.NoError(t, err)
	require.Same(t, stored, inv)

	assert.Equal(t, "F-00009", inv.Number)
	assert.Equal(t, numerator.CategoryInvoice, inv.Category)
	assert.Equal(t, billing.StatusDraft, inv.Status)
	require.NotNil(t, inv.SourceDocumentID)
	assert.Equal(t, quote.ID, *inv.SourceDocumentID)
	assert.Equal(t, quote.ClientID, inv.ClientID)
	assertMoney(t, quote.TotalInclTax.String(), inv.TotalInclTax)
	require.NotNil(t, inv.DueDate)
	assert.Equal(t, inv.IssueDate.AddDate(0, 0, 30), *inv.DueDate)
}

func TestConvertToInvoice_QuoteNotAccepted(t *testing.T) {
	f := newFixture(t)
	quote := storedDoc(f.garage, numerator.CategoryQuote, billing.StatusSent)
	f.repo.EXPECT().GetByID(gomock.Any(), quote.ID).Return(quote, nil)

	_, err := f.service(numerator.StrategyStrict).ConvertToInvoice(f.ctx, quote.ID)
	assert.Equal(t, apperror.CodeBusinessRule, codeOf(t, err))
}

func TestConvertToInvoice_AlreadyInvoiced(t *testing.T) {
	f := newFixture(t)
	quote := storedDoc(f.garage, numerator.CategoryQuote, billing.StatusAccepted)
	existing := id.New()
	f.repo.EXPECT().GetByID(gomock.Any(), quote.ID).Return(quote, nil)
	f.repo.EXPECT().InvoiceForQuote(gomock.Any(), quote.ID).Return(existing, true, nil)

	_, err := f.service(numerator.StrategyStrict).ConvertToInvoice(f.ctx, quote.ID)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeConflict, appErr.Code)
	assert.Equal(t, existing.String(), appErr.Details["invoiceId"])
	assert.Empty(t, f.events.events)
}

func TestMarkOverdue(t *testing.T) {
	f := newFixture(t)
	refs := []billing.OverdueRef{
		{ID: id.New(), GarageID: f.garage, Number: "F-00001"},
		{ID: id.New(), GarageID: f.garage, Number: "F-00002"},
	}
	f.repo.EXPECT().MarkOverdue(gomock.Any(), time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)).Return(refs, nil)

	n, err := f.service(numerator.StrategyStrict).MarkOverdue(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, f.events.events, 2)
}
