package srs

import (
	"time"

	"github.com/ederson/cardforge/internal/models"
)

// Review quality grades.
const (
	QualityAgain = 0
	QualityHard  = 1
	QualityGood  = 2
	QualityEasy  = 3
)

const (
	minEase     = 1.3
	initialEase = 2.5
)

// ReviewOutcome is the scheduling triple produced by Review and consumed by
// MergeOutcome. Keeping the arithmetic separate from the persistence merge
// lets callers substitute their own scheduler.
type ReviewOutcome struct {
	Correct      bool
	IntervalDays int
	EaseFactor   float64
	NextReview   time.Time
}

// Review computes the next interval, ease factor and due date using an SM-2 variant.
// quality: 0=Again, 1=Hard, 2=Good, 3=Easy
func Review(p models.CardProgress, quality int, now time.Time) ReviewOutcome {
	ef := p.EaseFactor
	if ef == 0 {
		ef = initialEase
	}
	ef = ef + 0.1 - float64(3-quality)*(0.08+float64(3-quality)*0.02)
	if ef < minEase {
		ef = minEase
	}

	interval := 1
	switch {
	case quality < QualityGood:
		interval = 1
	case p.IntervalDays == 0:
		interval = 1
	case p.IntervalDays == 1:
		interval = 6
	default:
		interval = int(float64(p.IntervalDays) * ef)
	}

	return ReviewOutcome{
		Correct:      quality >= QualityGood,
		IntervalDays: interval,
		EaseFactor:   ef,
		NextReview:   now.Add(time.Duration(interval) * 24 * time.Hour),
	}
}

// MergeOutcome folds a caller-supplied review outcome into the persisted
// scheduling state. Passing nil for existing treats the card as new.
// Repetitions only advance when the outcome carries a positive interval,
// and answering always un-suspends the card.
func MergeOutcome(existing *models.CardProgress, outcome ReviewOutcome, now time.Time) models.CardProgress {
	var p models.CardProgress
	if existing != nil {
		p = *existing
	}

	p.IntervalDays = outcome.IntervalDays
	p.EaseFactor = outcome.EaseFactor
	p.NextReview = outcome.NextReview
	if outcome.IntervalDays > 0 {
		p.Repetitions++
	}
	p.TotalAttempts++
	if outcome.Correct {
		p.CorrectCount++
	}
	p.Suspended = false
	p.LastAnsweredAt = now
	return p
}
