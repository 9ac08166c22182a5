package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ederson/cardforge/internal/models"
	"github.com/ederson/cardforge/internal/services"
	"github.com/ederson/cardforge/internal/testutil/mocks"
)

func newExamFixture() (*mocks.MockExamRepository, *mocks.MockCardRepository, services.ExamService) {
	examRepo := new(mocks.MockExamRepository)
	cardRepo := new(mocks.MockCardRepository)
	svc := services.NewExamService(examRepo, cardRepo)
	return examRepo, cardRepo, svc
}

func deckCards(n int) []models.Card {
	cards := make([]models.Card, 0, n)
	for i := 1; i <= n; i++ {
		cards = append(cards, models.Card{
			ID:     int64(i),
			DeckID: 3,
			Front:  "front",
			Back:   "back-" + string(rune('a'+i-1)),
		})
	}
	return cards
}

func TestStartSession_CreatesSessionWithDeadline(t *testing.T) {
	examRepo, cardRepo, svc := newExamFixture()
	ctx := context.Background()

	examRepo.On("GetExam", ctx, int64(10)).Return(&models.Exam{
		ID: 10, DeckID: 3, TimeLimitSeconds: 600, PassScore: 70, QuestionCount: 4,
	}, nil)
	examRepo.On("ActiveSession", ctx, int64(1), int64(10)).Return(nil, nil)
	cardRepo.On("List", ctx, mock.Anything).Return(deckCards(6), nil)
	examRepo.On("InsertSession", ctx, mock.Anything).Return(nil)

	before := time.Now().UTC()
	session, err := svc.StartSession(ctx, 1, 10)
	require.NoError(t, err)
	require.NotNil(t, session)

	assert.NotEmpty(t, session.ID)
	assert.Equal(t, models.SessionInProgress, session.Status)
	assert.Len(t, session.Questions, 4)
	assert.Equal(t, 600, session.TimeRemainingSeconds)
	assert.False(t, session.DeadlineAt.Before(before.Add(600*time.Second)))

	for _, q := range session.Questions {
		require.NotEmpty(t, q.Options)
		assert.GreaterOrEqual(t, q.CorrectIndex, 0)
		assert.Less(t, q.CorrectIndex, len(q.Options))
	}
}

func TestStartSession_QuestionOptionsNeverRepeat(t *testing.T) {
	examRepo, cardRepo, svc := newExamFixture()
	ctx := context.Background()

	// Several cards share a back text; options within one question must
	// still be pairwise distinct.
	cards := []models.Card{
		{ID: 1, DeckID: 3, Front: "f1", Back: "mitochondria"},
		{ID: 2, DeckID: 3, Front: "f2", Back: "mitochondria"},
		{ID: 3, DeckID: 3, Front: "f3", Back: "ribosome"},
		{ID: 4, DeckID: 3, Front: "f4", Back: "mitochondria"},
		{ID: 5, DeckID: 3, Front: "f5", Back: "nucleus"},
	}
	examRepo.On("GetExam", ctx, int64(10)).Return(&models.Exam{
		ID: 10, DeckID: 3, TimeLimitSeconds: 600, PassScore: 70, QuestionCount: 5,
	}, nil)
	examRepo.On("ActiveSession", ctx, int64(1), int64(10)).Return(nil, nil)
	cardRepo.On("List", ctx, mock.Anything).Return(cards, nil)
	examRepo.On("InsertSession", ctx, mock.Anything).Return(nil)

	session, err := svc.StartSession(ctx, 1, 10)
	require.NoError(t, err)

	for _, q := range session.Questions {
		seen := make(map[string]bool, len(q.Options))
		for _, opt := range q.Options {
			assert.False(t, seen[opt], "question %s repeats option %q", q.ID, opt)
			seen[opt] = true
		}
	}
}

func TestStartSession_ReturnsActiveSession(t *testing.T) {
	examRepo, _, svc := newExamFixture()
	ctx := context.Background()

	active := &models.ExamSession{ID: "existing", ExamID: 10, ProfileID: 1, Status: models.SessionInProgress}
	examRepo.On("GetExam", ctx, int64(10)).Return(&models.Exam{ID: 10, DeckID: 3, TimeLimitSeconds: 600, QuestionCount: 4}, nil)
	examRepo.On("ActiveSession", ctx, int64(1), int64(10)).Return(active, nil)

	session, err := svc.StartSession(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, "existing", session.ID)
	examRepo.AssertNotCalled(t, "InsertSession", mock.Anything, mock.Anything)
}

func TestStartSession_RejectsClosedWindow(t *testing.T) {
	examRepo, _, svc := newExamFixture()
	ctx := context.Background()

	closed := time.Now().UTC().Add(-time.Hour)
	examRepo.On("GetExam", ctx, int64(10)).Return(&models.Exam{
		ID: 10, DeckID: 3, TimeLimitSeconds: 600, QuestionCount: 4, WindowClosesAt: &closed,
	}, nil)

	_, err := svc.StartSession(ctx, 1, 10)
	require.Error(t, err)
}

func TestStartSession_RejectsUnopenedWindow(t *testing.T) {
	examRepo, _, svc := newExamFixture()
	ctx := context.Background()

	opens := time.Now().UTC().Add(time.Hour)
	examRepo.On("GetExam", ctx, int64(10)).Return(&models.Exam{
		ID: 10, DeckID: 3, TimeLimitSeconds: 600, QuestionCount: 4, WindowOpensAt: &opens,
	}, nil)

	_, err := svc.StartSession(ctx, 1, 10)
	require.Error(t, err)
}

func TestSubmitAnswer_TerminalSessionRejected(t *testing.T) {
	examRepo, _, svc := newExamFixture()
	ctx := context.Background()

	examRepo.On("GetSession", ctx, "s1").Return(&models.ExamSession{
		ID: "s1", ProfileID: 1, Status: models.SessionCompleted,
	}, nil)

	_, err := svc.SubmitAnswer(ctx, 1, "s1", "q1", 0)
	require.Error(t, err)
	examRepo.AssertNotCalled(t, "UpdateSession", mock.Anything, mock.Anything)
}

func TestSubmitAnswer_WrongProfileLooksLikeMissing(t *testing.T) {
	examRepo, _, svc := newExamFixture()
	ctx := context.Background()

	examRepo.On("GetSession", ctx, "s1").Return(&models.ExamSession{
		ID: "s1", ProfileID: 2, Status: models.SessionInProgress,
	}, nil)

	_, err := svc.SubmitAnswer(ctx, 1, "s1", "q1", 0)
	require.Error(t, err)
}

func TestCompleteSession_ScoresAndPersists(t *testing.T) {
	examRepo, _, svc := newExamFixture()
	ctx := context.Background()

	session := &models.ExamSession{
		ID: "s1", ExamID: 10, ProfileID: 1, Status: models.SessionInProgress,
		Questions: []models.Question{
			{ID: "q1", Options: []string{"a", "b"}, CorrectIndex: 0},
			{ID: "q2", Options: []string{"a", "b"}, CorrectIndex: 1},
			{ID: "q3", Options: []string{"a", "b"}, CorrectIndex: 1},
		},
		Answers: map[string]int{"q1": 0, "q2": 1, "q3": 0},
	}
	examRepo.On("GetSession", ctx, "s1").Return(session, nil)
	examRepo.On("GetExam", ctx, int64(10)).Return(&models.Exam{ID: 10, PassScore: 60}, nil)
	examRepo.On("UpdateSession", ctx, mock.MatchedBy(func(s models.ExamSession) bool {
		return s.Status == models.SessionCompleted && s.Score == 67 && s.Passed
	})).Return(nil)

	got, err := svc.CompleteSession(ctx, 1, "s1")
	require.NoError(t, err)
	assert.Equal(t, 67, got.Score)
	assert.True(t, got.Passed)
	examRepo.AssertExpectations(t)
}

func TestCompleteSession_AlreadyTerminalNotPersisted(t *testing.T) {
	examRepo, _, svc := newExamFixture()
	ctx := context.Background()

	examRepo.On("GetSession", ctx, "s1").Return(&models.ExamSession{
		ID: "s1", ExamID: 10, ProfileID: 1, Status: models.SessionTimedOut, Score: 80,
	}, nil)
	examRepo.On("GetExam", ctx, int64(10)).Return(&models.Exam{ID: 10, PassScore: 60}, nil)

	got, err := svc.CompleteSession(ctx, 1, "s1")
	require.NoError(t, err)
	assert.Equal(t, models.SessionTimedOut, got.Status)
	assert.Equal(t, 0, got.Score)
	examRepo.AssertNotCalled(t, "UpdateSession", mock.Anything, mock.Anything)
}

func TestHeartbeat_TimesOutPastDeadline(t *testing.T) {
	examRepo, _, svc := newExamFixture()
	ctx := context.Background()

	examRepo.On("GetSession", ctx, "s1").Return(&models.ExamSession{
		ID: "s1", ExamID: 10, ProfileID: 1, Status: models.SessionInProgress,
		TimeRemainingSeconds: 30,
		DeadlineAt:           time.Now().UTC().Add(-time.Second),
	}, nil)
	examRepo.On("GetExam", ctx, int64(10)).Return(&models.Exam{ID: 10, TimeLimitSeconds: 600}, nil)
	examRepo.On("UpdateSession", ctx, mock.MatchedBy(func(s models.ExamSession) bool {
		return s.Status == models.SessionTimedOut && s.TimeRemainingSeconds == 0
	})).Return(nil)

	got, err := svc.Heartbeat(ctx, 1, "s1", 10)
	require.NoError(t, err)
	assert.Equal(t, models.SessionTimedOut, got.Status)
	examRepo.AssertExpectations(t)
}

func TestHeartbeat_CountsDown(t *testing.T) {
	examRepo, _, svc := newExamFixture()
	ctx := context.Background()

	examRepo.On("GetSession", ctx, "s1").Return(&models.ExamSession{
		ID: "s1", ProfileID: 1, Status: models.SessionInProgress,
		TimeRemainingSeconds: 30,
		DeadlineAt:           time.Now().UTC().Add(time.Minute),
	}, nil)
	examRepo.On("UpdateSession", ctx, mock.Anything).Return(nil)

	got, err := svc.Heartbeat(ctx, 1, "s1", 10)
	require.NoError(t, err)
	assert.Equal(t, models.SessionInProgress, got.Status)
	assert.Equal(t, 20, got.TimeRemainingSeconds)
}

func TestExpireOverdue_SweepsInProgress(t *testing.T) {
	examRepo, _, svc := newExamFixture()
	ctx := context.Background()

	deadline := time.Now().UTC().Add(-time.Hour)
	examRepo.On("OverdueSessions", ctx, mock.Anything).Return([]models.ExamSession{
		{ID: "s1", ExamID: 10, Status: models.SessionInProgress, DeadlineAt: deadline},
		{ID: "s2", ExamID: 10, Status: models.SessionInProgress, DeadlineAt: deadline},
	}, nil)
	examRepo.On("GetExam", ctx, int64(10)).Return(&models.Exam{ID: 10, TimeLimitSeconds: 600}, nil).Once()
	examRepo.On("UpdateSession", ctx, mock.MatchedBy(func(s models.ExamSession) bool {
		return s.Status == models.SessionTimedOut
	})).Return(nil).Twice()

	n, err := svc.ExpireOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	examRepo.AssertExpectations(t)
}

func TestExpireOverdue_WindowCloseMarksExpired(t *testing.T) {
	examRepo, _, svc := newExamFixture()
	ctx := context.Background()

	// The session's deadline was clamped to the window close at start.
	closed := time.Now().UTC().Add(-time.Minute)
	examRepo.On("OverdueSessions", ctx, mock.Anything).Return([]models.ExamSession{
		{ID: "s1", ExamID: 10, Status: models.SessionInProgress, DeadlineAt: closed},
	}, nil)
	examRepo.On("GetExam", ctx, int64(10)).Return(&models.Exam{
		ID: 10, TimeLimitSeconds: 600, WindowClosesAt: &closed,
	}, nil)
	examRepo.On("UpdateSession", ctx, mock.MatchedBy(func(s models.ExamSession) bool {
		return s.Status == models.SessionExpired && s.TimeRemainingSeconds == 0
	})).Return(nil)

	n, err := svc.ExpireOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	examRepo.AssertExpectations(t)
}

func TestHeartbeat_ClosedWindowMarksExpired(t *testing.T) {
	examRepo, _, svc := newExamFixture()
	ctx := context.Background()

	closed := time.Now().UTC().Add(-time.Second)
	examRepo.On("GetSession", ctx, "s1").Return(&models.ExamSession{
		ID: "s1", ExamID: 10, ProfileID: 1, Status: models.SessionInProgress,
		TimeRemainingSeconds: 30,
		DeadlineAt:           closed,
	}, nil)
	examRepo.On("GetExam", ctx, int64(10)).Return(&models.Exam{
		ID: 10, TimeLimitSeconds: 600, WindowClosesAt: &closed,
	}, nil)
	examRepo.On("UpdateSession", ctx, mock.MatchedBy(func(s models.ExamSession) bool {
		return s.Status == models.SessionExpired
	})).Return(nil)

	got, err := svc.Heartbeat(ctx, 1, "s1", 10)
	require.NoError(t, err)
	assert.Equal(t, models.SessionExpired, got.Status)
	examRepo.AssertExpectations(t)
}

func TestCreateExam_Validation(t *testing.T) {
	_, _, svc := newExamFixture()
	ctx := context.Background()

	cases := []struct {
		name string
		exam models.Exam
	}{
		{"empty title", models.Exam{TimeLimitSeconds: 600, PassScore: 70, QuestionCount: 5}},
		{"zero time limit", models.Exam{Title: "x", PassScore: 70, QuestionCount: 5}},
		{"pass score over 100", models.Exam{Title: "x", TimeLimitSeconds: 600, PassScore: 101, QuestionCount: 5}},
		{"zero questions", models.Exam{Title: "x", TimeLimitSeconds: 600, PassScore: 70}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateExam(ctx, tc.exam)
			require.Error(t, err)
		})
	}
}
