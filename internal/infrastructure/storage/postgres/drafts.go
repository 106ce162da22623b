package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/klauspost/compress/zstd"

	"garageflow/internal/domain/draft"
)

const (
	loadDraftSQL = `
		SELECT payload, compression_algo, saved_at
		FROM sys_drafts
		WHERE garage_id = $1 AND user_id = $2 AND form_key = $3`

	saveDraftSQL = `
		INSERT INTO sys_drafts (garage_id, user_id, form_key, payload, compression_algo, saved_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (garage_id, user_id, form_key)
		DO UPDATE SET payload = EXCLUDED.payload,
		              compression_algo = EXCLUDED.compression_algo,
		              saved_at = EXCLUDED.saved_at`

	clearDraftSQL = `DELETE FROM sys_drafts WHERE garage_id = $1 AND user_id = $2 AND form_key = $3`
)

// DraftStore implements draft.Store. Snapshots are stored zstd-compressed.
type DraftStore struct {
	txManager *TxManager
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
}

var _ draft.Store = (*DraftStore)(nil)

// NewDraftStore creates a draft store.
func NewDraftStore(txManager *TxManager) (*DraftStore, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &DraftStore{txManager: txManager, encoder: encoder, decoder: decoder}, nil
}

func (s *DraftStore) Load(ctx context.Context, key draft.Key) (*draft.Draft, bool, error) {
	var (
		payload []byte
		algo    CompressionAlgo
		savedAt time.Time
	)
	err := s.txManager.GetQuerier(ctx).
		QueryRow(ctx, loadDraftSQL, key.GarageID, key.UserID, key.FormKey).
		Scan(&payload, &algo, &savedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load draft: %w", err)
	}

	raw, err := s.decode(payload, algo)
	if err != nil {
		return nil, false, err
	}
	return &draft.Draft{Key: key, Payload: raw, SavedAt: savedAt}, true, nil
}

func (s *DraftStore) Save(ctx context.Context, d *draft.Draft) error {
	savedAt := d.SavedAt
	if savedAt.IsZero() {
		savedAt = time.Now().UTC()
	}
	_, err := s.txManager.GetQuerier(ctx).Exec(ctx, saveDraftSQL,
		d.Key.GarageID, d.Key.UserID, d.Key.FormKey,
		s.encoder.EncodeAll(d.Payload, nil), CompressionZstd, savedAt)
	if err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

func (s *DraftStore) Clear(ctx context.Context, key draft.Key) error {
	if _, err := s.txManager.GetQuerier(ctx).Exec(ctx, clearDraftSQL, key.GarageID, key.UserID, key.FormKey); err != nil {
		return fmt.Errorf("clear draft: %w", err)
	}
	return nil
}

func (s *DraftStore) decode(payload []byte, algo CompressionAlgo) ([]byte, error) {
	if algo != CompressionZstd {
		return payload, nil
	}
	raw, err := s.decoder.DecodeAll(payload, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress draft: %w", err)
	}
	return raw, nil
}
