package services

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/ederson/cardforge/internal/errors"
	"github.com/ederson/cardforge/internal/exam"
	"github.com/ederson/cardforge/internal/logger"
	"github.com/ederson/cardforge/internal/models"
	"github.com/ederson/cardforge/internal/repository"
)

const distractorsPerQuestion = 3

// ExamService handles timed assessment business logic
type ExamService interface {
	CreateExam(ctx context.Context, exam models.Exam) (*models.Exam, error)
	GetExam(ctx context.Context, id int64) (*models.Exam, error)
	ListExams(ctx context.Context, deckID int64) ([]models.Exam, error)
	StartSession(ctx context.Context, profileID, examID int64) (*models.ExamSession, error)
	GetSession(ctx context.Context, profileID int64, sessionID string) (*models.ExamSession, error)
	SubmitAnswer(ctx context.Context, profileID int64, sessionID, questionID string, selected int) (*models.ExamSession, error)
	CompleteSession(ctx context.Context, profileID int64, sessionID string) (*models.ExamSession, error)
	RecordTabSwitch(ctx context.Context, profileID int64, sessionID string) (*models.ExamSession, error)
	Heartbeat(ctx context.Context, profileID int64, sessionID string, elapsedSeconds int) (*models.ExamSession, error)
	ExpireOverdue(ctx context.Context) (int, error)
}

type examService struct {
	examRepo repository.ExamRepository
	cardRepo repository.CardRepository
}

// NewExamService creates a new ExamService
func NewExamService(examRepo repository.ExamRepository, cardRepo repository.CardRepository) ExamService {
	return &examService{examRepo: examRepo, cardRepo: cardRepo}
}

func (s *examService) CreateExam(ctx context.Context, e models.Exam) (*models.Exam, error) {
	log := logger.FromContext(ctx)

	if e.Title == "" {
		return nil, errors.NewValidationError("title", "cannot be empty")
	}
	if e.TimeLimitSeconds < 1 {
		return nil, errors.NewValidationError("time_limit_seconds", "must be at least 1")
	}
	if e.PassScore < 0 || e.PassScore > 100 {
		return nil, errors.NewValidationError("pass_score", "must be between 0 and 100")
	}
	if e.QuestionCount < 1 {
		return nil, errors.NewValidationError("question_count", "must be at least 1")
	}
	if e.WindowOpensAt != nil && e.WindowClosesAt != nil && !e.WindowClosesAt.After(*e.WindowOpensAt) {
		return nil, errors.NewValidationError("window_closes_at", "must be after window_opens_at")
	}

	id, err := s.examRepo.InsertExam(ctx, e)
	if err != nil {
		log.Error("failed to insert exam: %v", err)
		return nil, errors.NewInternalError(err)
	}
	e.ID = id
	log.Info("created exam %d for deck %d", id, e.DeckID)
	return &e, nil
}

func (s *examService) GetExam(ctx context.Context, id int64) (*models.Exam, error) {
	e, err := s.examRepo.GetExam(ctx, id)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	if e == nil {
		return nil, errors.NewNotFoundError("exam", id)
	}
	return e, nil
}

func (s *examService) ListExams(ctx context.Context, deckID int64) ([]models.Exam, error) {
	exams, err := s.examRepo.ListExams(ctx, deckID)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	return exams, nil
}

// StartSession opens an attempt at an exam. An in-progress attempt for the
// same profile and exam is returned as-is rather than restarted, so a page
// reload never loses the clock. A closed or not-yet-open exam window rejects
// the start.
func (s *examService) StartSession(ctx context.Context, profileID, examID int64) (*models.ExamSession, error) {
	log := logger.FromContext(ctx)
	log.Debug("starting exam session: profile_id=%d, exam_id=%d", profileID, examID)

	e, err := s.examRepo.GetExam(ctx, examID)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	if e == nil {
		return nil, errors.NewNotFoundError("exam", examID)
	}

	now := time.Now().UTC()
	if e.WindowOpensAt != nil && now.Before(*e.WindowOpensAt) {
		return nil, errors.NewConflictError(fmt.Sprintf("exam opens at %s", e.WindowOpensAt.Format(time.RFC3339)))
	}
	if e.WindowClosesAt != nil && now.After(*e.WindowClosesAt) {
		return nil, errors.NewConflictError("exam window has closed")
	}

	existing, err := s.examRepo.ActiveSession(ctx, profileID, examID)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	if existing != nil {
		log.Debug("resuming active session %s", existing.ID)
		return existing, nil
	}

	questions, err := s.buildQuestions(ctx, e)
	if err != nil {
		return nil, err
	}

	session := exam.NewSession(uuid.NewString(), examID, profileID, questions, e.TimeLimitSeconds, now)
	session.DeadlineAt = now.Add(time.Duration(e.TimeLimitSeconds) * time.Second)
	// The schedule window also bounds the attempt.
	if e.WindowClosesAt != nil && e.WindowClosesAt.Before(session.DeadlineAt) {
		session.DeadlineAt = *e.WindowClosesAt
	}

	if err := s.examRepo.InsertSession(ctx, session); err != nil {
		log.Error("failed to insert session: %v", err)
		return nil, errors.NewInternalError(err)
	}

	log.Info("started session %s for exam %d", session.ID, examID)
	return &session, nil
}

// buildQuestions draws question_count cards from the exam's deck. The card
// front is the prompt; the correct back is mixed with backs of other cards
// as distractors.
func (s *examService) buildQuestions(ctx context.Context, e *models.Exam) ([]models.Question, error) {
	log := logger.FromContext(ctx)

	cards, err := s.cardRepo.List(ctx, models.CardFilter{DeckID: e.DeckID, Limit: 1000})
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	if len(cards) < 2 {
		return nil, errors.NewConflictError("deck has too few cards for an exam")
	}

	rand.Shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })

	count := e.QuestionCount
	if count > len(cards) {
		count = len(cards)
		log.Warn("deck %d has only %d cards, shrinking exam to match", e.DeckID, count)
	}

	questions := make([]models.Question, 0, count)
	for i := 0; i < count; i++ {
		card := cards[i]

		options := []string{card.Back}
		seen := map[string]bool{card.Back: true}
		for j := 1; len(options) < distractorsPerQuestion+1 && j < len(cards); j++ {
			distractor := cards[(i+j)%len(cards)].Back
			if !seen[distractor] {
				seen[distractor] = true
				options = append(options, distractor)
			}
		}
		rand.Shuffle(len(options), func(a, b int) { options[a], options[b] = options[b], options[a] })

		correct := 0
		for idx, opt := range options {
			if opt == card.Back {
				correct = idx
				break
			}
		}

		questions = append(questions, models.Question{
			ID:           fmt.Sprintf("q%d-%d", card.ID, i+1),
			Prompt:       card.Front,
			Options:      options,
			CorrectIndex: correct,
		})
	}
	return questions, nil
}

func (s *examService) GetSession(ctx context.Context, profileID int64, sessionID string) (*models.ExamSession, error) {
	return s.loadOwnedSession(ctx, profileID, sessionID)
}

func (s *examService) SubmitAnswer(ctx context.Context, profileID int64, sessionID, questionID string, selected int) (*models.ExamSession, error) {
	log := logger.FromContext(ctx)

	session, err := s.loadOwnedSession(ctx, profileID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status.Terminal() {
		return nil, errors.NewConflictError("session is no longer in progress")
	}

	updated := exam.SubmitAnswer(*session, questionID, selected)
	if err := s.examRepo.UpdateSession(ctx, updated); err != nil {
		log.Error("failed to persist answer: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return &updated, nil
}

func (s *examService) CompleteSession(ctx context.Context, profileID int64, sessionID string) (*models.ExamSession, error) {
	log := logger.FromContext(ctx)

	session, err := s.loadOwnedSession(ctx, profileID, sessionID)
	if err != nil {
		return nil, err
	}

	e, err := s.examRepo.GetExam(ctx, session.ExamID)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	if e == nil {
		return nil, errors.NewNotFoundError("exam", session.ExamID)
	}

	wasTerminal := session.Status.Terminal()
	updated := exam.Complete(*session, e.PassScore, time.Now().UTC())
	if !wasTerminal {
		if err := s.examRepo.UpdateSession(ctx, updated); err != nil {
			log.Error("failed to persist completion: %v", err)
			return nil, errors.NewInternalError(err)
		}
		log.Info("session %s completed: score=%d, passed=%v", sessionID, updated.Score, updated.Passed)
	}
	return &updated, nil
}

func (s *examService) RecordTabSwitch(ctx context.Context, profileID int64, sessionID string) (*models.ExamSession, error) {
	log := logger.FromContext(ctx)

	session, err := s.loadOwnedSession(ctx, profileID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status.Terminal() {
		return session, nil
	}

	updated := exam.RecordTabSwitch(*session)
	if err := s.examRepo.UpdateSession(ctx, updated); err != nil {
		log.Error("failed to persist tab switch: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return &updated, nil
}

// Heartbeat counts the session clock down and times the attempt out once the
// server-side deadline passes. The client-reported elapsed seconds only move
// the display clock; the deadline decides the actual cutoff.
func (s *examService) Heartbeat(ctx context.Context, profileID int64, sessionID string, elapsedSeconds int) (*models.ExamSession, error) {
	log := logger.FromContext(ctx)

	session, err := s.loadOwnedSession(ctx, profileID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status.Terminal() {
		return session, nil
	}

	updated := exam.Tick(*session, elapsedSeconds)
	if !time.Now().UTC().Before(updated.DeadlineAt) {
		e, err := s.examRepo.GetExam(ctx, updated.ExamID)
		if err != nil {
			return nil, errors.NewInternalError(err)
		}
		updated = expireAtDeadline(updated, e)
		log.Info("session %s ended at deadline: status=%s", sessionID, updated.Status)
	}

	if err := s.examRepo.UpdateSession(ctx, updated); err != nil {
		log.Error("failed to persist heartbeat: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return &updated, nil
}

// ExpireOverdue sweeps in-progress sessions whose deadline passed. Sessions
// cut off by their exam's schedule window move to expired, the rest to
// timed_out. Runs on a schedule so abandoned attempts still settle.
func (s *examService) ExpireOverdue(ctx context.Context) (int, error) {
	log := logger.FromContext(ctx)

	overdue, err := s.examRepo.OverdueSessions(ctx, time.Now().UTC())
	if err != nil {
		log.Error("failed to load overdue sessions: %v", err)
		return 0, errors.NewInternalError(err)
	}

	exams := make(map[int64]*models.Exam)
	expired := 0
	for _, session := range overdue {
		e, ok := exams[session.ExamID]
		if !ok {
			e, err = s.examRepo.GetExam(ctx, session.ExamID)
			if err != nil {
				log.Error("failed to load exam %d for session %s: %v", session.ExamID, session.ID, err)
				continue
			}
			exams[session.ExamID] = e
		}

		updated := expireAtDeadline(session, e)
		if err := s.examRepo.UpdateSession(ctx, updated); err != nil {
			log.Error("failed to expire session %s: %v", session.ID, err)
			continue
		}
		expired++
	}
	return expired, nil
}

// expireAtDeadline picks the terminal state for a session whose deadline
// passed. The deadline was clamped to the exam's window close at start when
// the window was the tighter bound, so a deadline at or past the close means
// the schedule window ended the attempt, not the candidate's clock.
func expireAtDeadline(session models.ExamSession, e *models.Exam) models.ExamSession {
	if e != nil && e.WindowClosesAt != nil && !session.DeadlineAt.Before(*e.WindowClosesAt) {
		return exam.Expire(session)
	}
	return exam.ExpireByTimeout(session)
}

func (s *examService) loadOwnedSession(ctx context.Context, profileID int64, sessionID string) (*models.ExamSession, error) {
	session, err := s.examRepo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	if session == nil || session.ProfileID != profileID {
		return nil, errors.NewNotFoundError("session", sessionID)
	}
	return session, nil
}
