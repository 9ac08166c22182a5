package exam_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ederson/cardforge/internal/exam"
	"github.com/ederson/cardforge/internal/models"
)

func fourQuestions() []models.Question {
	return []models.Question{
		{ID: "q1", Prompt: "first", Options: []string{"a", "b", "c"}, CorrectIndex: 0},
		{ID: "q2", Prompt: "second", Options: []string{"a", "b", "c"}, CorrectIndex: 0},
		{ID: "q3", Prompt: "third", Options: []string{"a", "b", "c"}, CorrectIndex: 0},
		{ID: "q4", Prompt: "fourth", Options: []string{"a", "b", "c"}, CorrectIndex: 0},
	}
}

func newSession(t *testing.T) models.ExamSession {
	t.Helper()
	s := exam.NewSession("sess-1", 1, 1, fourQuestions(), 600, time.Now())
	require.Equal(t, models.SessionInProgress, s.Status)
	require.Empty(t, s.Answers)
	require.Equal(t, 600, s.TimeRemainingSeconds)
	require.Equal(t, 0, s.TabSwitchCount)
	return s
}

func TestNewSession_CopiesQuestions(t *testing.T) {
	questions := fourQuestions()
	s := exam.NewSession("sess-1", 1, 1, questions, 600, time.Now())

	questions[0].ID = "mutated"
	assert.Equal(t, "q1", s.Questions[0].ID, "session keeps its own question slice")
}

func TestSubmitAnswer_RecordsAndOverwrites(t *testing.T) {
	s := newSession(t)

	s = exam.SubmitAnswer(s, "q1", 1)
	assert.Equal(t, map[string]int{"q1": 1}, s.Answers)

	// Same answer again: size unchanged.
	s = exam.SubmitAnswer(s, "q1", 1)
	assert.Len(t, s.Answers, 1)

	// Different answer for the same question: overwrite, never duplicate.
	s = exam.SubmitAnswer(s, "q1", 2)
	assert.Len(t, s.Answers, 1)
	assert.Equal(t, 2, s.Answers["q1"])
}

func TestSubmitAnswer_RejectsUnknownQuestion(t *testing.T) {
	s := newSession(t)

	got := exam.SubmitAnswer(s, "nope", 0)

	assert.Equal(t, s, got)
	assert.Empty(t, got.Answers)
}

func TestSubmitAnswer_RejectsOutOfRangeIndex(t *testing.T) {
	s := newSession(t)

	assert.Empty(t, exam.SubmitAnswer(s, "q1", -1).Answers)
	assert.Empty(t, exam.SubmitAnswer(s, "q1", 3).Answers, "options are indexed 0..2")
}

func TestComplete_AllCorrect(t *testing.T) {
	s := newSession(t)
	for _, q := range s.Questions {
		s = exam.SubmitAnswer(s, q.ID, 0)
	}

	s = exam.Complete(s, 50, time.Now())

	assert.Equal(t, models.SessionCompleted, s.Status)
	assert.Equal(t, 100, s.Score)
	assert.True(t, s.Passed)
	require.NotNil(t, s.CompletedAt)
}

func TestComplete_NoAnswers(t *testing.T) {
	s := exam.Complete(newSession(t), 50, time.Now())

	assert.Equal(t, 0, s.Score)
	assert.False(t, s.Passed)
	assert.Equal(t, models.SessionCompleted, s.Status)
}

func TestComplete_ZeroThresholdPassesWithQuestions(t *testing.T) {
	s := exam.Complete(newSession(t), 0, time.Now())

	assert.Equal(t, 0, s.Score)
	assert.True(t, s.Passed, "0 >= 0 passes when questions exist")
}

func TestComplete_ZeroQuestionsNeverPasses(t *testing.T) {
	s := exam.NewSession("sess-1", 1, 1, nil, 600, time.Now())

	s = exam.Complete(s, 0, time.Now())

	assert.Equal(t, 0, s.Score)
	assert.False(t, s.Passed, "empty exams short-circuit to failed even at threshold 0")
}

func TestComplete_RoundsHalfUp(t *testing.T) {
	questions := []models.Question{
		{ID: "q1", Options: []string{"a", "b"}, CorrectIndex: 0},
		{ID: "q2", Options: []string{"a", "b"}, CorrectIndex: 0},
		{ID: "q3", Options: []string{"a", "b"}, CorrectIndex: 0},
	}
	s := exam.NewSession("sess-1", 1, 1, questions, 600, time.Now())
	s = exam.SubmitAnswer(s, "q1", 0)

	s = exam.Complete(s, 50, time.Now())

	assert.Equal(t, 33, s.Score, "1/3 rounds to 33")

	s2 := exam.NewSession("sess-2", 1, 1, questions, 600, time.Now())
	s2 = exam.SubmitAnswer(s2, "q1", 0)
	s2 = exam.SubmitAnswer(s2, "q2", 0)

	s2 = exam.Complete(s2, 50, time.Now())

	assert.Equal(t, 67, s2.Score, "2/3 rounds half up to 67")
}

func TestComplete_ScoreBounds(t *testing.T) {
	for answered := 0; answered <= 4; answered++ {
		s := newSession(t)
		for i := 0; i < answered; i++ {
			s = exam.SubmitAnswer(s, s.Questions[i].ID, 0)
		}
		s = exam.Complete(s, 50, time.Now())
		assert.GreaterOrEqual(t, s.Score, 0)
		assert.LessOrEqual(t, s.Score, 100)
	}
}

func TestComplete_OnTerminalSessionReportsZero(t *testing.T) {
	s := newSession(t)
	for _, q := range s.Questions {
		s = exam.SubmitAnswer(s, q.ID, 0)
	}
	s = exam.Complete(s, 50, time.Now())
	require.Equal(t, 100, s.Score)

	// Completing again does not recompute: score reads 0, status unchanged.
	again := exam.Complete(s, 50, time.Now())
	assert.Equal(t, models.SessionCompleted, again.Status)
	assert.Equal(t, 0, again.Score)
	assert.False(t, again.Passed)
}

func TestTerminalImmutability(t *testing.T) {
	s := newSession(t)
	s = exam.SubmitAnswer(s, "q1", 1)
	s = exam.RecordTabSwitch(s)
	s = exam.Complete(s, 50, time.Now())

	frozen := s
	s = exam.SubmitAnswer(s, "q2", 0)
	s = exam.RecordTabSwitch(s)
	s = exam.ExpireByTimeout(s)
	s = exam.Expire(s)
	s = exam.Tick(s, 30)

	assert.Equal(t, frozen.Answers, s.Answers)
	assert.Equal(t, frozen.TabSwitchCount, s.TabSwitchCount)
	assert.Equal(t, models.SessionCompleted, s.Status, "timeout after completion does not change status")
	assert.Equal(t, frozen.TimeRemainingSeconds, s.TimeRemainingSeconds)
}

func TestExpireByTimeout(t *testing.T) {
	s := newSession(t)
	s = exam.SubmitAnswer(s, "q1", 2)

	s = exam.ExpireByTimeout(s)

	assert.Equal(t, models.SessionTimedOut, s.Status)
	assert.Equal(t, 0, s.TimeRemainingSeconds)
	assert.Equal(t, map[string]int{"q1": 2}, s.Answers, "answers are preserved on timeout")
}

func TestExpire_WindowClose(t *testing.T) {
	s := exam.Expire(newSession(t))

	assert.Equal(t, models.SessionExpired, s.Status)
	assert.True(t, s.Status.Terminal())
}

func TestRecordTabSwitch_Monotonic(t *testing.T) {
	s := newSession(t)

	counts := []int{s.TabSwitchCount}
	for i := 0; i < 5; i++ {
		s = exam.RecordTabSwitch(s)
		counts = append(counts, s.TabSwitchCount)
	}

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, counts)
}

func TestTick_FloorsAtZero(t *testing.T) {
	s := newSession(t)

	s = exam.Tick(s, 500)
	assert.Equal(t, 100, s.TimeRemainingSeconds)

	s = exam.Tick(s, 500)
	assert.Equal(t, 0, s.TimeRemainingSeconds)
	assert.Equal(t, models.SessionInProgress, s.Status, "tick alone never times the session out")

	s = exam.Tick(s, -5)
	assert.Equal(t, 0, s.TimeRemainingSeconds)
}
