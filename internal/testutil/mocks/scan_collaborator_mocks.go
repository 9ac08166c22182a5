package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ederson/cardforge/internal/autoscan"
	"github.com/ederson/cardforge/internal/drafting"
	"github.com/ederson/cardforge/internal/models"
)

// MockSourceReader is a mock implementation of services.SourceReader
type MockSourceReader struct {
	mock.Mock
}

func (m *MockSourceReader) ExtractPageText(ctx context.Context, sourceID string, pageNumber int) (string, error) {
	args := m.Called(ctx, sourceID, pageNumber)
	return args.String(0), args.Error(1)
}

func (m *MockSourceReader) TotalPages(ctx context.Context, sourceID string) (int, error) {
	args := m.Called(ctx, sourceID)
	return args.Int(0), args.Error(1)
}

// MockDrafter is a mock implementation of services.Drafter
type MockDrafter struct {
	mock.Mock
}

func (m *MockDrafter) Draft(ctx context.Context, text string, mode drafting.Mode, defaultTags []string) ([]models.CardDraft, error) {
	args := m.Called(ctx, text, mode, defaultTags)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CardDraft), args.Error(1)
}

// MockJobQueue is a mock implementation of jobs.JobQueue
type MockJobQueue struct {
	mock.Mock
}

func (m *MockJobQueue) EnqueueScan(scanner *autoscan.Scanner) error {
	args := m.Called(scanner)
	return args.Error(0)
}
