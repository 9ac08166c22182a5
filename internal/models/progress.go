package models

import "time"

// CardProgress is the per-profile scheduling state for one card. A card
// with no progress row has never been reviewed and counts as "new".
type CardProgress struct {
	ID             int64     `json:"id"`
	ProfileID      int64     `json:"profile_id"`
	CardID         int64     `json:"card_id"`
	DeckID         int64     `json:"deck_id"`
	IntervalDays   int       `json:"interval_days"`
	EaseFactor     float64   `json:"ease_factor"`
	NextReview     time.Time `json:"next_review"`
	Repetitions    int       `json:"repetitions"`
	CorrectCount   int       `json:"correct_count"`
	TotalAttempts  int       `json:"total_attempts"`
	Suspended      bool      `json:"suspended"`
	LastAnsweredAt time.Time `json:"last_answered_at"`
	CreatedAt      time.Time `json:"created_at"`
}

// Accuracy returns the fraction of correct answers, 0 when unanswered.
func (p CardProgress) Accuracy() float64 {
	if p.TotalAttempts == 0 {
		return 0
	}
	return float64(p.CorrectCount) / float64(p.TotalAttempts)
}

type DeckStudyStat struct {
	DeckID     int64 `json:"deck_id"`
	TotalCards int   `json:"total_cards"`
	DueCards   int   `json:"due_cards"`
	NewCards   int   `json:"new_cards"`
	Suspended  int   `json:"suspended"`
}
