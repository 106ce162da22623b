// Package settings_repo stores per-garage settings in PostgreSQL.
package settings_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"garageflow/internal/core/apperror"
	"garageflow/internal/core/id"
	"garageflow/internal/domain/settings"
	"garageflow/internal/infrastructure/storage/postgres"
)

const settingsTable = "sys_garage_settings"

// Repo implements settings.Repository.
type Repo struct {
	txManager *postgres.TxManager
	columns   []string
}

var _ settings.Repository = (*Repo)(nil)

// New creates a settings repository.
func New(txManager *postgres.TxManager) *Repo {
	return &Repo{
		txManager: txManager,
		columns:   postgres.ExtractDBColumns[settings.Settings](),
	}
}

func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Get loads the settings row of a garage.
func (r *Repo) Get(ctx context.Context, garageID id.ID) (*settings.Settings, error) {
	sql, args, err := builder().
		Select(r.columns...).
		From(settingsTable).
		Where(squirrel.Eq{"garage_id": garageID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var s settings.Settings
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &s, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("settings", garageID.String())
		}
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return &s, nil
}

// Upsert inserts or replaces the settings row.
func (r *Repo) Upsert(ctx context.Context, s *settings.Settings) error {
	sql, args, err := upsertQuery(s, r.columns, time.Now().UTC()).ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}

func upsertQuery(s *settings.Settings, columns []string, now time.Time) squirrel.InsertBuilder {
	s.UpdatedAt = now
	data := postgres.StructToMap(s)

	values := make([]any, len(columns))
	var updates string
	for i, col := range columns {
		values[i] = data[col]
		if col == "garage_id" {
			continue
		}
		if updates != "" {
			updates += ", "
		}
		updates += col + " = EXCLUDED." + col
	}

	return builder().
		Insert(settingsTable).
		Columns(columns...).
		Values(values...).
		Suffix("ON CONFLICT (garage_id) DO UPDATE SET " + updates)
}
