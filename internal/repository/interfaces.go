package repository

import (
	"context"
	"time"

	"github.com/ederson/cardforge/internal/models"
)

// ProfileRepository handles profile data access
type ProfileRepository interface {
	Get(ctx context.Context, id int64) (*models.Profile, error)
	List(ctx context.Context) ([]models.Profile, error)
	Upsert(ctx context.Context, username string) (*models.Profile, error)
	Delete(ctx context.Context, id int64) error
}

// DeckRepository handles deck data access
type DeckRepository interface {
	Get(ctx context.Context, id int64) (*models.Deck, error)
	List(ctx context.Context, profileID int64) ([]models.Deck, error)
	Insert(ctx context.Context, deck models.Deck) (int64, error)
	Delete(ctx context.Context, id int64) error
}

// CardRepository handles card data access
type CardRepository interface {
	Get(ctx context.Context, id int64) (*models.Card, error)
	List(ctx context.Context, filter models.CardFilter) ([]models.Card, error)
	Count(ctx context.Context, filter models.CardFilter) (int, error)
	Insert(ctx context.Context, card models.Card) (int64, error)
	InsertBatch(ctx context.Context, cards []models.Card) ([]int64, error)
	IDsForDeck(ctx context.Context, deckID int64) ([]int64, error)
}

// ProgressRepository handles per-profile card scheduling state
type ProgressRepository interface {
	Get(ctx context.Context, profileID, cardID int64) (*models.CardProgress, error)
	Upsert(ctx context.Context, p models.CardProgress) (int64, error)
	ForDeck(ctx context.Context, profileID, deckID int64) ([]models.CardProgress, error)
	SetSuspended(ctx context.Context, profileID, cardID int64, suspended bool) error
	DeckStats(ctx context.Context, profileID, deckID int64, now time.Time) (*models.DeckStudyStat, error)
}

// ExamRepository handles exams and exam sessions
type ExamRepository interface {
	GetExam(ctx context.Context, id int64) (*models.Exam, error)
	ListExams(ctx context.Context, deckID int64) ([]models.Exam, error)
	InsertExam(ctx context.Context, exam models.Exam) (int64, error)
	InsertSession(ctx context.Context, s models.ExamSession) error
	UpdateSession(ctx context.Context, s models.ExamSession) error
	GetSession(ctx context.Context, id string) (*models.ExamSession, error)
	ActiveSession(ctx context.Context, profileID, examID int64) (*models.ExamSession, error)
	OverdueSessions(ctx context.Context, now time.Time) ([]models.ExamSession, error)
}
