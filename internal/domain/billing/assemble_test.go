package billing_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garageflow/internal/core/apperror"
	"garageflow/internal/core/id"
	"garageflow/internal/core/numerator"
	"garageflow/internal/domain/billing"
)

func TestAssemble_FreezesTotalsAndDropsPlaceholders(t *testing.T) {
	garage := id.New()
	client := id.New()

	doc, err := billing.Assemble(garage, billing.AssembleInput{
		Category: numerator.CategoryQuote,
		Status:   billing.StatusSent,
		ClientID: &client,
		Lines: []billing.LineItem{
			line("Vidange", "0.5", "55", "20"),
			line("", "1", "10", "20"),
			line("  Huile ", "1", "45", "20"),
		},
		Notes: "Prévoir filtre",
	}, numerator.Number{Prefix: "D", Sequence: 7}, "EUR")
	require.NoError(t, err)

	assert.Equal(t, "D-00007", doc.Number)
	assert.Equal(t, int64(7), doc.Sequence)
	assert.Equal(t, garage, doc.GarageID)
	assert.Equal(t, billing.StatusSent, doc.Status)
	assert.Equal(t, "EUR", doc.Currency)
	assert.Equal(t, "Prévoir filtre", doc.Notes)
	require.Len(t, doc.Lines, 2)
	assert.Equal(t, "Huile", doc.Lines[1].Designation)
	assert.Equal(t, 2, doc.Lines[1].LineNo)
	assertMoney(t, "72.5", doc.TotalExclTax)
	assertMoney(t, "14.5", doc.TotalTax)
	assertMoney(t, "87", doc.TotalInclTax)
	assert.False(t, doc.IssueDate.IsZero())
}

func TestAssemble_LaterLineEditsDoNotChangeFrozenTotals(t *testing.T) {
	lines := []billing.LineItem{line("Plaquettes", "1", "60", "20")}
	doc, err := billing.Assemble(id.New(), billing.AssembleInput{
		Category: numerator.CategoryInvoice,
		Lines:    lines,
	}, numerator.Number{Prefix: "F", Sequence: 1}, "EUR")
	require.NoError(t, err)

	lines[0].UnitPriceExclTax = lines[0].UnitPriceExclTax.Mul(lines[0].UnitPriceExclTax)
	assertMoney(t, "72", doc.TotalInclTax)
	assertMoney(t, "60", doc.Lines[0].UnitPriceExclTax)
}

func TestAssembleInput_Validate(t *testing.T) {
	client := id.New()
	issue := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	early := issue.AddDate(0, 0, -1)

	tests := []struct {
		name     string
		in       billing.AssembleInput
		wantCode string
		lineNo   int
	}{
		{
			name:     "only placeholder lines",
			in:       billing.AssembleInput{Category: numerator.CategoryQuote, Lines: []billing.LineItem{line("", "1", "10", "20"), line(" ", "1", "10", "20")}},
			wantCode: apperror.CodeNoBillableLines,
		},
		{
			name:     "no lines",
			in:       billing.AssembleInput{Category: numerator.CategoryQuote},
			wantCode: apperror.CodeNoBillableLines,
		},
		{
			name:     "free lines only",
			in:       billing.AssembleInput{Category: numerator.CategoryQuote, Lines: []billing.LineItem{line("Diagnostic offert", "1", "0", "20")}},
			wantCode: apperror.CodeNoBillableLines,
		},
		{
			name:     "zero quantity",
			in:       billing.AssembleInput{Category: numerator.CategoryQuote, Lines: []billing.LineItem{line("A", "1", "10", "20"), line("B", "0", "10", "20")}},
			wantCode: apperror.CodeValidation,
			lineNo:   2,
		},
		{
			name:     "negative price",
			in:       billing.AssembleInput{Category: numerator.CategoryQuote, Lines: []billing.LineItem{line("A", "1", "-1", "20")}},
			wantCode: apperror.CodeValidation,
			lineNo:   1,
		},
		{
			name:     "rate above 100",
			in:       billing.AssembleInput{Category: numerator.CategoryQuote, Lines: []billing.LineItem{line("A", "1", "10", "120")}},
			wantCode: apperror.CodeValidation,
			lineNo:   1,
		},
		{
			name:     "price finer than cents",
			in:       billing.AssembleInput{Category: numerator.CategoryQuote, Lines: []billing.LineItem{line("A", "1", "100.005", "20")}},
			wantCode: apperror.CodeValidation,
			lineNo:   1,
		},
		{
			name:     "rate with three decimals",
			in:       billing.AssembleInput{Category: numerator.CategoryQuote, Lines: []billing.LineItem{line("A", "1", "10", "20"), line("B", "1", "100", "5.555")}},
			wantCode: apperror.CodeValidation,
			lineNo:   2,
		},
		{
			name:     "quantity beyond column scale",
			in:       billing.AssembleInput{Category: numerator.CategoryQuote, Lines: []billing.LineItem{line("A", "0.0000001", "10", "20")}},
			wantCode: apperror.CodeValidation,
			lineNo:   1,
		},
		{
			name:     "send without client",
			in:       billing.AssembleInput{Category: numerator.CategoryInvoice, Status: billing.StatusSent, Lines: []billing.LineItem{line("A", "1", "10", "20")}},
			wantCode: apperror.CodePartyRequired,
		},
		{
			name:     "created as paid",
			in:       billing.AssembleInput{Category: numerator.CategoryInvoice, Status: billing.StatusPaid, ClientID: &client, Lines: []billing.LineItem{line("A", "1", "10", "20")}},
			wantCode: apperror.CodeValidation,
		},
		{
			name:     "due before issue",
			in:       billing.AssembleInput{Category: numerator.CategoryInvoice, IssueDate: issue, DueDate: &early, Lines: []billing.LineItem{line("A", "1", "10", "20")}},
			wantCode: apperror.CodeValidation,
		},
		{
			name:     "unknown category",
			in:       billing.AssembleInput{Category: "receipt", Lines: []billing.LineItem{line("A", "1", "10", "20")}},
			wantCode: apperror.CodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate()
			require.Error(t, err)
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, appErr.Code)
			if tt.lineNo > 0 {
				assert.Equal(t, tt.lineNo, appErr.Details["lineNo"])
			}
		})
	}
}

func TestAssembleInput_DraftWithoutClient(t *testing.T) {
	in := billing.AssembleInput{
		Category: numerator.CategoryQuote,
		Lines:    []billing.LineItem{line("Géométrie", "1", "65", "20")},
	}
	require.NoError(t, in.Validate())
	assert.Equal(t, billing.StatusDraft, in.Status)
}

func TestCanTransition(t *testing.T) {
	q, inv := numerator.CategoryQuote, numerator.CategoryInvoice

	assert.True(t, billing.CanTransition(q, billing.StatusDraft, billing.StatusSent))
	assert.True(t, billing.CanTransition(q, billing.StatusSent, billing.StatusAccepted))
	assert.True(t, billing.CanTransition(q, billing.StatusSent, billing.StatusRefused))
	assert.False(t, billing.CanTransition(q, billing.StatusSent, billing.StatusPaid))
	assert.False(t, billing.CanTransition(q, billing.StatusAccepted, billing.StatusDraft))

	assert.True(t, billing.CanTransition(inv, billing.StatusSent, billing.StatusPaid))
	assert.True(t, billing.CanTransition(inv, billing.StatusSent, billing.StatusOverdue))
	assert.True(t, billing.CanTransition(inv, billing.StatusOverdue, billing.StatusPaid))
	assert.False(t, billing.CanTransition(inv, billing.StatusDraft, billing.StatusPaid))
	assert.False(t, billing.CanTransition(inv, billing.StatusPaid, billing.StatusSent))
}
