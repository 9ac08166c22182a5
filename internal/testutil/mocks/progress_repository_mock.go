package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/ederson/cardforge/internal/models"
)

// MockProgressRepository is a mock implementation of repository.ProgressRepository
type MockProgressRepository struct {
	mock.Mock
}

func (m *MockProgressRepository) Get(ctx context.Context, profileID, cardID int64) (*models.CardProgress, error) {
	args := m.Called(ctx, profileID, cardID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CardProgress), args.Error(1)
}

func (m *MockProgressRepository) Upsert(ctx context.Context, p models.CardProgress) (int64, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProgressRepository) ForDeck(ctx context.Context, profileID, deckID int64) ([]models.CardProgress, error) {
	args := m.Called(ctx, profileID, deckID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CardProgress), args.Error(1)
}

func (m *MockProgressRepository) SetSuspended(ctx context.Context, profileID, cardID int64, suspended bool) error {
	args := m.Called(ctx, profileID, cardID, suspended)
	return args.Error(0)
}

func (m *MockProgressRepository) DeckStats(ctx context.Context, profileID, deckID int64, now time.Time) (*models.DeckStudyStat, error) {
	args := m.Called(ctx, profileID, deckID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DeckStudyStat), args.Error(1)
}
