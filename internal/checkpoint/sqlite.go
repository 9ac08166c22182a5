package checkpoint

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/ederson/cardforge/internal/logger"
	"github.com/ederson/cardforge/internal/models"
)

// SQLiteStore keeps checkpoints in the scan_checkpoints table of the main
// database. Default backend when no Redis address is configured.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Save(ctx context.Context, key string, state models.AutoScanState) error {
	log := logger.FromContext(ctx).WithPrefix("checkpoint")

	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO scan_checkpoints (checkpoint_key, state, updated_at)
VALUES (?, ?, ?)
ON CONFLICT(checkpoint_key) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at
`, key, string(raw), time.Now())
	if err != nil {
		log.Error("failed to save checkpoint %s: %v", key, err)
	}
	return err
}

func (s *SQLiteStore) Load(ctx context.Context, key string) (*models.AutoScanState, error) {
	log := logger.FromContext(ctx).WithPrefix("checkpoint")

	var raw string
	err := s.db.QueryRowContext(ctx, `
SELECT state FROM scan_checkpoints WHERE checkpoint_key = ?
`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		log.Error("failed to load checkpoint %s: %v", key, err)
		return nil, err
	}

	var state models.AutoScanState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		log.Warn("discarding unreadable checkpoint %s: %v", key, err)
		return nil, nil
	}
	return &state, nil
}

func (s *SQLiteStore) Clear(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM scan_checkpoints WHERE checkpoint_key = ?`, key)
	return err
}
