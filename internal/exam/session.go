// Package exam holds the assessment session state machine. Every transition
// takes a session value and returns the next one; invalid transitions return
// the input unchanged, so callers never need to pre-validate.
package exam

import (
	"math"
	"time"

	"github.com/ederson/cardforge/internal/models"
)

// NewSession starts an attempt with the given question order. Questions are
// copied and never reordered afterwards; any shuffling happens in the caller
// that selected them.
func NewSession(id string, examID, profileID int64, questions []models.Question, timeLimitSeconds int, now time.Time) models.ExamSession {
	qs := make([]models.Question, len(questions))
	copy(qs, questions)
	return models.ExamSession{
		ID:                   id,
		ExamID:               examID,
		ProfileID:            profileID,
		Status:               models.SessionInProgress,
		Questions:            qs,
		Answers:              make(map[string]int),
		TimeRemainingSeconds: timeLimitSeconds,
		TabSwitchCount:       0,
		StartedAt:            now,
	}
}

// SubmitAnswer records the selected option for a question. Unknown question
// ids, out-of-range option indexes and terminal sessions are all no-ops.
// Re-answering a question overwrites the previous selection.
func SubmitAnswer(s models.ExamSession, questionID string, selected int) models.ExamSession {
	if s.Status != models.SessionInProgress {
		return s
	}

	var question *models.Question
	for i := range s.Questions {
		if s.Questions[i].ID == questionID {
			question = &s.Questions[i]
			break
		}
	}
	if question == nil {
		return s
	}
	if selected < 0 || selected >= len(question.Options) {
		return s
	}

	answers := make(map[string]int, len(s.Answers)+1)
	for k, v := range s.Answers {
		answers[k] = v
	}
	answers[questionID] = selected
	s.Answers = answers
	return s
}

// Complete scores the attempt and moves it to the completed state. Score is
// the rounded percentage of questions answered correctly; a session with no
// questions scores 0 and never passes. Completing a session that already
// left in_progress reports score 0 rather than the recorded score; callers
// that need the original result must read the stored session instead.
func Complete(s models.ExamSession, passScore int, now time.Time) models.ExamSession {
	if s.Status != models.SessionInProgress {
		s.Score = 0
		s.Passed = false
		return s
	}

	correct := 0
	for _, q := range s.Questions {
		if idx, ok := s.Answers[q.ID]; ok && idx == q.CorrectIndex {
			correct++
		}
	}

	score := 0
	if len(s.Questions) > 0 {
		score = int(math.Round(float64(correct) / float64(len(s.Questions)) * 100))
	}

	s.Score = score
	s.Passed = len(s.Questions) > 0 && score >= passScore
	s.Status = models.SessionCompleted
	s.CompletedAt = &now
	return s
}

// ExpireByTimeout moves an in-progress attempt to timed_out, zeroing the
// clock and keeping every recorded answer.
func ExpireByTimeout(s models.ExamSession) models.ExamSession {
	if s.Status != models.SessionInProgress {
		return s
	}
	s.Status = models.SessionTimedOut
	s.TimeRemainingSeconds = 0
	return s
}

// Expire moves an in-progress attempt to expired when its schedule window
// closes. Identical to a timeout for mutation-freezing purposes.
func Expire(s models.ExamSession) models.ExamSession {
	if s.Status != models.SessionInProgress {
		return s
	}
	s.Status = models.SessionExpired
	s.TimeRemainingSeconds = 0
	return s
}

// RecordTabSwitch bumps the proctoring counter. Frozen once terminal.
func RecordTabSwitch(s models.ExamSession) models.ExamSession {
	if s.Status != models.SessionInProgress {
		return s
	}
	s.TabSwitchCount++
	return s
}

// Tick counts the clock down by the elapsed seconds, flooring at zero.
// Reaching zero does not itself time the session out; the caller decides
// when to invoke ExpireByTimeout.
func Tick(s models.ExamSession, elapsedSeconds int) models.ExamSession {
	if s.Status != models.SessionInProgress || elapsedSeconds <= 0 {
		return s
	}
	s.TimeRemainingSeconds -= elapsedSeconds
	if s.TimeRemainingSeconds < 0 {
		s.TimeRemainingSeconds = 0
	}
	return s
}
