package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/ederson/cardforge/internal/models"
)

// MockExamRepository is a mock implementation of repository.ExamRepository
type MockExamRepository struct {
	mock.Mock
}

func (m *MockExamRepository) GetExam(ctx context.Context, id int64) (*models.Exam, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Exam), args.Error(1)
}

func (m *MockExamRepository) ListExams(ctx context.Context, deckID int64) ([]models.Exam, error) {
	args := m.Called(ctx, deckID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Exam), args.Error(1)
}

func (m *MockExamRepository) InsertExam(ctx context.Context, exam models.Exam) (int64, error) {
	args := m.Called(ctx, exam)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockExamRepository) InsertSession(ctx context.Context, s models.ExamSession) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockExamRepository) UpdateSession(ctx context.Context, s models.ExamSession) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockExamRepository) GetSession(ctx context.Context, id string) (*models.ExamSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ExamSession), args.Error(1)
}

func (m *MockExamRepository) ActiveSession(ctx context.Context, profileID, examID int64) (*models.ExamSession, error) {
	args := m.Called(ctx, profileID, examID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ExamSession), args.Error(1)
}

func (m *MockExamRepository) OverdueSessions(ctx context.Context, now time.Time) ([]models.ExamSession, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ExamSession), args.Error(1)
}
