// Package numerator provides the PostgreSQL counter behind document numbering.
// It implements core/numerator.Counter on the sys_sequences table.
package numerator

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"garageflow/internal/core/id"
	corenumerator "garageflow/internal/core/numerator"
	"garageflow/internal/infrastructure/storage/postgres"
)

// Querier interface for database operations.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// source resolves the querier bound to a request.
type source interface {
	querier(ctx context.Context) Querier
	inTransaction(ctx context.Context) bool
}

type staticSource struct{ q Querier }

func (s staticSource) querier(context.Context) Querier { return s.q }
func (s staticSource) inTransaction(context.Context) bool { return true }

type txSource struct{ m *postgres.TxManager }

func (s txSource) querier(ctx context.Context) Querier { return s.m.GetQuerier(ctx) }
func (s txSource) inTransaction(ctx context.Context) bool { return s.m.GetTx(ctx) != nil }

// Service is a Counter backed by one row per (garage, category).
type Service struct {
	src source
}

// Ensure compile-time interface compliance.
var _ corenumerator.Counter = (*Service)(nil)

// New creates a counter on a fixed querier. The caller owns transaction scope.
// Used by the CLI and in tests.
func New(querier Querier) *Service {
	return &Service{src: staticSource{q: querier}}
}

// NewFromTxManager creates a counter that runs inside the transaction stored in ctx
// when there is one, and on the pool otherwise.
func NewFromTxManager(m *postgres.TxManager) *Service {
	return &Service{src: txSource{m: m}}
}

const peekSQL = `
	SELECT next_value FROM sys_sequences
	WHERE garage_id = $1 AND category = $2`

// The no-op DO UPDATE takes the row lock even when the row already exists.
const lockSQL = `
	INSERT INTO sys_sequences (garage_id, category, next_value)
	VALUES ($1, $2, $3)
	ON CONFLICT (garage_id, category) DO UPDATE SET next_value = sys_sequences.next_value
	RETURNING next_value`

const commitSQL = `
	INSERT INTO sys_sequences (garage_id, category, next_value)
	VALUES ($1, $2, $3)
	ON CONFLICT (garage_id, category) DO UPDATE
	SET next_value = GREATEST(sys_sequences.next_value, EXCLUDED.next_value),
	    updated_at = NOW()
	RETURNING next_value`

const setSQL = `
	INSERT INTO sys_sequences (garage_id, category, next_value)
	VALUES ($1, $2, $3)
	ON CONFLICT (garage_id, category) DO UPDATE
	SET next_value = EXCLUDED.next_value, updated_at = NOW()
	RETURNING next_value`

// Peek returns the stored next value, FirstSequence when the garage never numbered cat.
func (s *Service) Peek(ctx context.Context, garageID id.ID, cat corenumerator.Category) (int64, error) {
	var next int64
	err := s.src.querier(ctx).QueryRow(ctx, peekSQL, garageID, string(cat)).Scan(&next)
	if errors.Is(err, pgx.ErrNoRows) {
		return corenumerator.FirstSequence, nil
	}
	if err != nil {
		return 0, fmt.Errorf("peek %s: %w", cat, err)
	}
	return next, nil
}

// Lock creates the counter row if missing and locks it until the transaction ends.
func (s *Service) Lock(ctx context.Context, garageID id.ID, cat corenumerator.Category) (int64, error) {
	if !s.src.inTransaction(ctx) {
		return 0, corenumerator.ErrNotInTransaction
	}
	var next int64
	err := s.src.querier(ctx).QueryRow(ctx, lockSQL, garageID, string(cat), corenumerator.FirstSequence).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("lock %s: %w", cat, err)
	}
	return next, nil
}

// Commit moves the counter past used. It never moves backwards.
func (s *Service) Commit(ctx context.Context, garageID id.ID, cat corenumerator.Category, used int64) (int64, error) {
	if used < corenumerator.FirstSequence {
		return 0, fmt.Errorf("commit %s: invalid sequence %d", cat, used)
	}
	var next int64
	err := s.src.querier(ctx).QueryRow(ctx, commitSQL, garageID, string(cat), used+1).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("commit %s: %w", cat, err)
	}
	return next, nil
}

// Set overwrites the next value (for migration purposes).
func (s *Service) Set(ctx context.Context, garageID id.ID, cat corenumerator.Category, next int64) error {
	if next < corenumerator.FirstSequence {
		return fmt.Errorf("set %s: next value must be >= %d", cat, corenumerator.FirstSequence)
	}
	var stored int64
	if err := s.src.querier(ctx).QueryRow(ctx, setSQL, garageID, string(cat), next).Scan(&stored); err != nil {
		return fmt.Errorf("set %s: %w", cat, err)
	}
	return nil
}
