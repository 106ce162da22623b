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
	"garageflow/internal/domain"
	"garageflow/internal/domain/repairorder"
	"garageflow/internal/infrastructure/storage/postgres"
)

const repairOrderTable = "doc_repair_orders"

// repairOrderImmutable columns are never rewritten by Update.
var repairOrderImmutable = []string{"id", "garage_id", "version", "created_at", "created_by", "client_id", "vehicle_id"}

// RepairOrderRepo implements repairorder.Repository.
type RepairOrderRepo struct {
	txManager  *postgres.TxManager
	selectCols []string
}

var _ repairorder.Repository = (*RepairOrderRepo)(nil)

// NewRepairOrderRepo creates a new repair order repository.
func NewRepairOrderRepo(txManager *postgres.TxManager) *RepairOrderRepo {
	return &RepairOrderRepo{
		txManager:  txManager,
		selectCols: postgres.ExtractDBColumns[repairorder.RepairOrder](),
	}
}

func (r *RepairOrderRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Create inserts a repair order.
func (r *RepairOrderRepo) Create(ctx context.Context, o *repairorder.RepairOrder) error {
	sql, args, err := r.builder().
		Insert(repairOrderTable).
		SetMap(postgres.FilterColumns(postgres.StructToMap(o), r.selectCols)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.ForeignKeyViolation(err) {
			return apperror.NewValidation("client or vehicle does not exist").WithCause(err)
		}
		return fmt.Errorf("insert %s: %w", repairOrderTable, err)
	}
	return nil
}

func (r *RepairOrderRepo) scoped(ctx context.Context) (squirrel.SelectBuilder, error) {
	garageID, err := domain.GarageFromContext(ctx)
	if err != nil {
		return squirrel.SelectBuilder{}, err
	}
	return r.builder().
		Select(r.selectCols...).
		From(repairOrderTable).
		Where(squirrel.Eq{"garage_id": garageID}), nil
}

// GetByID retrieves a repair order.
func (r *RepairOrderRepo) GetByID(ctx context.Context, orderID id.ID) (*repairorder.RepairOrder, error) {
	q, err := r.scoped(ctx)
	if err != nil {
		return nil, err
	}
	return r.get(ctx, q.Where(squirrel.Eq{"id": orderID}), orderID)
}

// GetForUpdate retrieves a repair order and locks its row.
func (r *RepairOrderRepo) GetForUpdate(ctx context.Context, orderID id.ID) (*repairorder.RepairOrder, error) {
	q, err := r.scoped(ctx)
	if err != nil {
		return nil, err
	}
	return r.get(ctx, q.Where(squirrel.Eq{"id": orderID}).Suffix("FOR UPDATE"), orderID)
}

func (r *RepairOrderRepo) get(ctx context.Context, q squirrel.SelectBuilder, orderID id.ID) (*repairorder.RepairOrder, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var o repairorder.RepairOrder
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &o, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("repair_order", orderID.String())
		}
		return nil, fmt.Errorf("get repair order: %w", err)
	}
	return &o, nil
}

// Update writes the mutable columns with optimistic locking and bumps the version.
func (r *RepairOrderRepo) Update(ctx context.Context, o *repairorder.RepairOrder) error {
	sql, args, err := r.updateQuery(o, appctx.GetUserID(ctx), time.Now().UTC()).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", repairOrderTable, err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("repair_order", o.ID.String())
	}
	o.Touch()
	return nil
}

func (r *RepairOrderRepo) updateQuery(o *repairorder.RepairOrder, userID string, now time.Time) squirrel.UpdateBuilder {
	set := postgres.FilterColumns(postgres.StructToMap(o), r.selectCols, repairOrderImmutable...)
	set["updated_at"] = now
	set["updated_by"] = userID

	return r.builder().
		Update(repairOrderTable).
		SetMap(set).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": o.ID, "garage_id": o.GarageID, "version": o.Version})
}

// List returns a page of repair orders, newest first by default.
func (r *RepairOrderRepo) List(ctx context.Context, filter repairorder.ListFilter) (domain.ListResult[*repairorder.RepairOrder], error) {
	result := domain.ListResult[*repairorder.RepairOrder]{Limit: filter.Limit, Offset: filter.Offset}

	q, err := r.scoped(ctx)
	if err != nil {
		return result, err
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.VehicleID != nil {
		q = q.Where(squirrel.Eq{"vehicle_id": *filter.VehicleID})
	}
	if filter.Search != "" {
		q = q.Where(squirrel.ILike{"complaint": "%" + filter.Search + "%"})
	}

	querier := r.txManager.GetQuerier(ctx)
	countSQL, countArgs, err := r.builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	q = q.OrderBy("created_at DESC")
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
		return result, fmt.Errorf("list repair orders: %w", err)
	}
	return result, nil
}
