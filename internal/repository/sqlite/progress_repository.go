package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/ederson/cardforge/internal/logger"
	"github.com/ederson/cardforge/internal/models"
	"github.com/ederson/cardforge/internal/repository"
)

type progressRepository struct {
	db *sql.DB
}

// NewProgressRepository creates a new ProgressRepository implementation
func NewProgressRepository(db *sql.DB) repository.ProgressRepository {
	return &progressRepository{db: db}
}

const progressColumns = `id, profile_id, card_id, deck_id, interval_days, ease_factor, next_review,
repetitions, correct_count, total_attempts, suspended, last_answered_at, created_at`

func scanProgress(row interface{ Scan(...any) error }) (models.CardProgress, error) {
	var p models.CardProgress
	var lastAnswered sql.NullTime
	err := row.Scan(&p.ID, &p.ProfileID, &p.CardID, &p.DeckID, &p.IntervalDays, &p.EaseFactor, &p.NextReview,
		&p.Repetitions, &p.CorrectCount, &p.TotalAttempts, &p.Suspended, &lastAnswered, &p.CreatedAt)
	if lastAnswered.Valid {
		p.LastAnsweredAt = lastAnswered.Time
	}
	return p, err
}

func (r *progressRepository) Get(ctx context.Context, profileID, cardID int64) (*models.CardProgress, error) {
	log := logger.FromContext(ctx).WithPrefix("progress_repo")

	p, err := scanProgress(r.db.QueryRowContext(ctx, `
SELECT `+progressColumns+`
FROM card_progress
WHERE profile_id = ? AND card_id = ?
`, profileID, cardID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get progress: %v", err)
		return nil, err
	}
	return &p, nil
}

// Upsert writes the scheduling state for one profile+card pair, creating the
// row on first answer and replacing it afterwards.
func (r *progressRepository) Upsert(ctx context.Context, p models.CardProgress) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("progress_repo")
	log.Debug("upserting progress: profile_id=%d, card_id=%d, interval=%d, ease=%.2f",
		p.ProfileID, p.CardID, p.IntervalDays, p.EaseFactor)

	res, err := r.db.ExecContext(ctx, `
INSERT INTO card_progress (profile_id, card_id, deck_id, interval_days, ease_factor, next_review,
    repetitions, correct_count, total_attempts, suspended, last_answered_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(profile_id, card_id) DO UPDATE SET
    interval_days = excluded.interval_days,
    ease_factor = excluded.ease_factor,
    next_review = excluded.next_review,
    repetitions = excluded.repetitions,
    correct_count = excluded.correct_count,
    total_attempts = excluded.total_attempts,
    suspended = excluded.suspended,
    last_answered_at = excluded.last_answered_at
`, p.ProfileID, p.CardID, p.DeckID, p.IntervalDays, p.EaseFactor, p.NextReview,
		p.Repetitions, p.CorrectCount, p.TotalAttempts, p.Suspended, p.LastAnsweredAt)
	if err != nil {
		log.Error("failed to upsert progress: %v", err)
		return 0, err
	}
	return res.LastInsertId()
}

func (r *progressRepository) ForDeck(ctx context.Context, profileID, deckID int64) ([]models.CardProgress, error) {
	log := logger.FromContext(ctx).WithPrefix("progress_repo")

	rows, err := r.db.QueryContext(ctx, `
SELECT `+progressColumns+`
FROM card_progress
WHERE profile_id = ? AND deck_id = ?
ORDER BY next_review
`, profileID, deckID)
	if err != nil {
		log.Error("failed to query progress: %v", err)
		return nil, err
	}
	defer rows.Close()

	var records []models.CardProgress
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			log.Error("failed to scan progress row: %v", err)
			return nil, err
		}
		records = append(records, p)
	}
	return records, rows.Err()
}

func (r *progressRepository) SetSuspended(ctx context.Context, profileID, cardID int64, suspended bool) error {
	log := logger.FromContext(ctx).WithPrefix("progress_repo")
	log.Debug("setting suspended=%v: profile_id=%d, card_id=%d", suspended, profileID, cardID)

	_, err := r.db.ExecContext(ctx, `
UPDATE card_progress SET suspended = ? WHERE profile_id = ? AND card_id = ?
`, suspended, profileID, cardID)
	if err != nil {
		log.Error("failed to set suspended: %v", err)
	}
	return err
}

func (r *progressRepository) DeckStats(ctx context.Context, profileID, deckID int64, now time.Time) (*models.DeckStudyStat, error) {
	log := logger.FromContext(ctx).WithPrefix("progress_repo")

	stat := models.DeckStudyStat{DeckID: deckID}
	err := r.db.QueryRowContext(ctx, `
SELECT
    (SELECT COUNT(*) FROM cards WHERE deck_id = ?) AS total_cards,
    COUNT(CASE WHEN p.suspended = 0 AND p.next_review <= ? THEN 1 END) AS due_cards,
    COUNT(CASE WHEN p.suspended = 1 THEN 1 END) AS suspended
FROM card_progress p
WHERE p.profile_id = ? AND p.deck_id = ?
`, deckID, now, profileID, deckID).Scan(&stat.TotalCards, &stat.DueCards, &stat.Suspended)
	if err != nil {
		log.Error("failed to load deck stats: %v", err)
		return nil, err
	}

	var tracked int
	err = r.db.QueryRowContext(ctx, `
SELECT COUNT(*) FROM card_progress WHERE profile_id = ? AND deck_id = ?
`, profileID, deckID).Scan(&tracked)
	if err != nil {
		log.Error("failed to count tracked cards: %v", err)
		return nil, err
	}
	stat.NewCards = stat.TotalCards - tracked
	if stat.NewCards < 0 {
		stat.NewCards = 0
	}
	return &stat, nil
}
