// Package document_repo provides the PostgreSQL implementation of the billing
// document repository.
package document_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"garageflow/internal/core/apperror"
	appctx "garageflow/internal/core/context"
	"garageflow/internal/core/id"
	"garageflow/internal/core/numerator"
	"garageflow/internal/domain"
	"garageflow/internal/domain/billing"
	"garageflow/internal/infrastructure/storage/postgres"
)

const (
	documentTable = "doc_documents"
	lineTable     = "doc_document_lines"

	sourceInvoiceConstraint = "uq_documents_source_invoice"
)

var lineColumns = []string{
	"document_id", "line_no", "designation", "description",
	"quantity", "unit_price_excl_tax", "tax_rate",
}

// BillingRepo implements billing.Repository over doc_documents and its lines.
type BillingRepo struct {
	txManager  *postgres.TxManager
	inserter   *postgres.BatchInserter
	selectCols []string
}

var _ billing.Repository = (*BillingRepo)(nil)

// NewBillingRepo creates a new document repository.
func NewBillingRepo(txManager *postgres.TxManager) *BillingRepo {
	return &BillingRepo{
		txManager:  txManager,
		inserter:   postgres.NewBatchInserter(txManager),
		selectCols: postgres.ExtractDBColumns[billing.Document](),
	}
}

// Builder returns a new squirrel builder.
func (r *BillingRepo) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Create inserts the document header and copies its lines. Must run in a transaction.
func (r *BillingRepo) Create(ctx context.Context, doc *billing.Document) error {
	data := postgres.FilterColumns(postgres.StructToMap(doc), r.selectCols)

	sql, args, err := r.Builder().
		Insert(documentTable).
		SetMap(data).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return createError(doc, err)
	}

	if _, err := r.inserter.CopyFromSlice(ctx, lineTable, lineColumns, lineRows(doc)); err != nil {
		return fmt.Errorf("insert lines of %s: %w", doc.Number, err)
	}
	return nil
}

// createError maps a failed header insert. Only a number collision is reported
// as DUPLICATE_ENTRY, which the deferred strategy retries.
func createError(doc *billing.Document, err error) error {
	constraint, ok := postgres.UniqueViolation(err)
	switch {
	case ok && constraint == sourceInvoiceConstraint:
		e := apperror.NewConflict("quote already invoiced").WithCause(err)
		if doc.SourceDocumentID != nil {
			e = e.WithDetail("quoteId", doc.SourceDocumentID.String())
		}
		return e
	case ok:
		return apperror.NewDuplicate(doc.EntityName(), "number", doc.Number).WithCause(err)
	}
	return fmt.Errorf("insert %s: %w", documentTable, err)
}

// InvoiceForQuote returns the invoice converted from quoteID, if any.
func (r *BillingRepo) InvoiceForQuote(ctx context.Context, quoteID id.ID) (id.ID, bool, error) {
	garageID, err := domain.GarageFromContext(ctx)
	if err != nil {
		return id.ID{}, false, err
	}
	sql, args, err := r.Builder().
		Select("id").
		From(documentTable).
		Where(squirrel.Eq{"garage_id": garageID, "category": string(numerator.CategoryInvoice), "source_document_id": quoteID}).
		Limit(1).
		ToSql()
	if err != nil {
		return id.ID{}, false, fmt.Errorf("build select: %w", err)
	}

	var ids []id.ID
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &ids, sql, args...); err != nil {
		return id.ID{}, false, fmt.Errorf("find invoice of quote %s: %w", quoteID, err)
	}
	if len(ids) == 0 {
		return id.ID{}, false, nil
	}
	return ids[0], true, nil
}

func lineRows(doc *billing.Document) [][]any {
	rows := make([][]any, 0, len(doc.Lines))
	for _, l := range doc.Lines {
		rows = append(rows, []any{
			doc.ID, l.LineNo, l.Designation, l.Description,
			l.Quantity, l.UnitPriceExclTax, l.TaxRate,
		})
	}
	return rows
}

func (r *BillingRepo) scoped(ctx context.Context) (squirrel.SelectBuilder, error) {
	garageID, err := domain.GarageFromContext(ctx)
	if err != nil {
		return squirrel.SelectBuilder{}, err
	}
	return r.Builder().
		Select(r.selectCols...).
		From(documentTable).
		Where(squirrel.Eq{"garage_id": garageID}), nil
}

// GetByID retrieves a document with its lines.
func (r *BillingRepo) GetByID(ctx context.Context, docID id.ID) (*billing.Document, error) {
	q, err := r.scoped(ctx)
	if err != nil {
		return nil, err
	}
	return r.getOne(ctx, q.Where(squirrel.Eq{"id": docID}), docID)
}

// GetForUpdate retrieves a document with its lines and locks the header row.
func (r *BillingRepo) GetForUpdate(ctx context.Context, docID id.ID) (*billing.Document, error) {
	q, err := r.scoped(ctx)
	if err != nil {
		return nil, err
	}
	return r.getOne(ctx, q.Where(squirrel.Eq{"id": docID}).Suffix("FOR UPDATE"), docID)
}

func (r *BillingRepo) getOne(ctx context.Context, q squirrel.SelectBuilder, docID id.ID) (*billing.Document, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	var doc billing.Document
	if err := pgxscan.Get(ctx, querier, &doc, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("document", docID.String())
		}
		return nil, fmt.Errorf("get document: %w", err)
	}

	lines, err := r.loadLines(ctx, doc.ID)
	if err != nil {
		return nil, err
	}
	doc.Lines = lines
	return &doc, nil
}

func (r *BillingRepo) loadLines(ctx context.Context, docID id.ID) ([]billing.LineItem, error) {
	sql, args, err := r.Builder().
		Select(lineColumns[1:]...).
		From(lineTable).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_no").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build lines query: %w", err)
	}

	var lines []billing.LineItem
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("load lines: %w", err)
	}
	return lines, nil
}

// UpdateStatus moves the document to status with optimistic locking.
func (r *BillingRepo) UpdateStatus(ctx context.Context, docID id.ID, status billing.Status, expectedVersion int) error {
	garageID, err := domain.GarageFromContext(ctx)
	if err != nil {
		return err
	}

	sql, args, err := r.Builder().
		Update(documentTable).
		Set("status", status).
		Set("updated_at", time.Now().UTC()).
		Set("updated_by", appctx.GetUserID(ctx)).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": docID, "garage_id": garageID, "version": expectedVersion}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("document", docID.String())
	}
	return nil
}

// List returns document headers; lines are not loaded.
func (r *BillingRepo) List(ctx context.Context, filter billing.ListFilter) (domain.ListResult[*billing.Document], error) {
	result := domain.ListResult[*billing.Document]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q, err := r.scoped(ctx)
	if err != nil {
		return result, err
	}
	q = applyFilter(q, filter)

	countSQL, countArgs, err := r.Builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}
	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	orderBy, err := parseOrderBy(filter.OrderBy)
	if err != nil {
		return result, err
	}
	q = q.OrderBy(orderBy)
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list documents: %w", err)
	}
	return result, nil
}

func applyFilter(q squirrel.SelectBuilder, f billing.ListFilter) squirrel.SelectBuilder {
	if f.Category != nil {
		q = q.Where(squirrel.Eq{"category": *f.Category})
	}
	if f.Status != nil {
		q = q.Where(squirrel.Eq{"status": *f.Status})
	}
	if f.ClientID != nil {
		q = q.Where(squirrel.Eq{"client_id": *f.ClientID})
	}
	if f.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"issue_date": *f.DateFrom})
	}
	if f.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"issue_date": *f.DateTo})
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"number": pattern},
			squirrel.ILike{"notes": pattern},
		})
	}
	if len(f.IDs) > 0 {
		q = q.Where(squirrel.Eq{"id": f.IDs})
	}
	return q
}

var sortable = map[string]bool{
	"number": true, "sequence": true, "issue_date": true, "due_date": true,
	"created_at": true, "status": true, "total_incl_tax": true,
}

func parseOrderBy(orderBy string) (string, error) {
	if orderBy == "" {
		return "created_at DESC", nil
	}
	direction := "ASC"
	field := orderBy
	if orderBy[0] == '-' {
		direction = "DESC"
		field = orderBy[1:]
	}
	if !sortable[field] {
		return "", apperror.NewValidation("invalid orderBy").WithDetail("orderBy", orderBy)
	}
	return field + " " + direction, nil
}

// markOverdueSQL runs across all garages; the worker has no request scope.
const markOverdueSQL = `
	UPDATE doc_documents
	SET status = 'overdue', version = version + 1, updated_at = now()
	WHERE category = 'invoice'
	  AND status = 'sent'
	  AND due_date < $1
	RETURNING id, garage_id, number`

// MarkOverdue flips sent invoices due before asOf.
func (r *BillingRepo) MarkOverdue(ctx context.Context, asOf time.Time) ([]billing.OverdueRef, error) {
	var refs []billing.OverdueRef
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &refs, markOverdueSQL, asOf); err != nil {
		return nil, fmt.Errorf("mark overdue: %w", err)
	}
	return refs, nil
}
