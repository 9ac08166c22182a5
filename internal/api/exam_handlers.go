package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ederson/cardforge/internal/errors"
	"github.com/ederson/cardforge/internal/logger"
	"github.com/ederson/cardforge/internal/models"
)

func (s *Server) handleListExams(w http.ResponseWriter, r *http.Request) {
	deckID, err := idParam(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}

	exams, err := s.ExamService.ListExams(r.Context(), deckID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, exams)
}

func (s *Server) handleCreateExam(w http.ResponseWriter, r *http.Request) {
	deckID, err := idParam(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}

	var body struct {
		Title            string     `json:"title"`
		TimeLimitSeconds int        `json:"time_limit_seconds"`
		PassScore        int        `json:"pass_score"`
		QuestionCount    int        `json:"question_count"`
		WindowOpensAt    *time.Time `json:"window_opens_at"`
		WindowClosesAt   *time.Time `json:"window_closes_at"`
	}
	if err := decodeJSON(r, &body); err != nil {
		handleError(w, r, err)
		return
	}

	exam, err := s.ExamService.CreateExam(r.Context(), models.Exam{
		DeckID:           deckID,
		Title:            body.Title,
		TimeLimitSeconds: body.TimeLimitSeconds,
		PassScore:        body.PassScore,
		QuestionCount:    body.QuestionCount,
		WindowOpensAt:    body.WindowOpensAt,
		WindowClosesAt:   body.WindowClosesAt,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, exam)
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	profile := profileFromContext(r.Context())
	if profile == nil {
		handleError(w, r, errors.NewBadRequestError("select a profile first"))
		return
	}

	examID, err := idParam(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}

	session, err := s.ExamService.StartSession(r.Context(), profile.ID, examID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	log.Info("session %s opened for exam %d", session.ID, examID)
	respondJSON(w, r, http.StatusCreated, sessionView(session))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	profile := profileFromContext(r.Context())
	if profile == nil {
		handleError(w, r, errors.NewBadRequestError("select a profile first"))
		return
	}

	session, err := s.ExamService.GetSession(r.Context(), profile.ID, chi.URLParam(r, "sessionID"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, sessionView(session))
}

func (s *Server) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	profile := profileFromContext(r.Context())
	if profile == nil {
		handleError(w, r, errors.NewBadRequestError("select a profile first"))
		return
	}

	var body struct {
		QuestionID string `json:"question_id"`
		Selected   int    `json:"selected"`
	}
	if err := decodeJSON(r, &body); err != nil {
		handleError(w, r, err)
		return
	}

	session, err := s.ExamService.SubmitAnswer(r.Context(), profile.ID, chi.URLParam(r, "sessionID"), body.QuestionID, body.Selected)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, sessionView(session))
}

func (s *Server) handleCompleteSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	profile := profileFromContext(r.Context())
	if profile == nil {
		handleError(w, r, errors.NewBadRequestError("select a profile first"))
		return
	}

	session, err := s.ExamService.CompleteSession(r.Context(), profile.ID, chi.URLParam(r, "sessionID"))
	if err != nil {
		handleError(w, r, err)
		return
	}

	log.Info("session %s completed: score=%d, passed=%v", session.ID, session.Score, session.Passed)
	respondJSON(w, r, http.StatusOK, session)
}

func (s *Server) handleTabSwitch(w http.ResponseWriter, r *http.Request) {
	profile := profileFromContext(r.Context())
	if profile == nil {
		handleError(w, r, errors.NewBadRequestError("select a profile first"))
		return
	}

	session, err := s.ExamService.RecordTabSwitch(r.Context(), profile.ID, chi.URLParam(r, "sessionID"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{
		"tab_switch_count": session.TabSwitchCount,
		"status":           session.Status,
	})
}

func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	profile := profileFromContext(r.Context())
	if profile == nil {
		handleError(w, r, errors.NewBadRequestError("select a profile first"))
		return
	}

	var body struct {
		ElapsedSeconds int `json:"elapsed_seconds"`
	}
	if err := decodeJSON(r, &body); err != nil {
		handleError(w, r, err)
		return
	}

	session, err := s.ExamService.Heartbeat(r.Context(), profile.ID, chi.URLParam(r, "sessionID"), body.ElapsedSeconds)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{
		"time_remaining_seconds": session.TimeRemainingSeconds,
		"status":                 session.Status,
	})
}

// sessionQuestionView is a question with the correct answer withheld.
type sessionQuestionView struct {
	ID      string   `json:"id"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
}

type sessionResponse struct {
	ID                   string                `json:"id"`
	ExamID               int64                 `json:"exam_id"`
	Status               models.SessionStatus  `json:"status"`
	Questions            []sessionQuestionView `json:"questions"`
	Answers              map[string]int        `json:"answers"`
	TimeRemainingSeconds int                   `json:"time_remaining_seconds"`
	TabSwitchCount       int                   `json:"tab_switch_count"`
	StartedAt            time.Time             `json:"started_at"`
	DeadlineAt           time.Time             `json:"deadline_at"`
}

// sessionView strips correct-answer indexes from an in-flight session. The
// full session (with score) only goes out from the complete endpoint.
func sessionView(s *models.ExamSession) sessionResponse {
	questions := make([]sessionQuestionView, 0, len(s.Questions))
	for _, q := range s.Questions {
		questions = append(questions, sessionQuestionView{ID: q.ID, Prompt: q.Prompt, Options: q.Options})
	}
	return sessionResponse{
		ID:                   s.ID,
		ExamID:               s.ExamID,
		Status:               s.Status,
		Questions:            questions,
		Answers:              s.Answers,
		TimeRemainingSeconds: s.TimeRemainingSeconds,
		TabSwitchCount:       s.TabSwitchCount,
		StartedAt:            s.StartedAt,
		DeadlineAt:           s.DeadlineAt,
	}
}
