package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ederson/cardforge/internal/logger"
	"github.com/ederson/cardforge/internal/models"
	"github.com/ederson/cardforge/internal/repository"
)

type examRepository struct {
	db *sql.DB
}

// NewExamRepository creates a new ExamRepository implementation
func NewExamRepository(db *sql.DB) repository.ExamRepository {
	return &examRepository{db: db}
}

func (r *examRepository) GetExam(ctx context.Context, id int64) (*models.Exam, error) {
	log := logger.FromContext(ctx).WithPrefix("exam_repo")

	var e models.Exam
	err := r.db.QueryRowContext(ctx, `
SELECT id, deck_id, title, time_limit_seconds, pass_score, question_count,
    window_opens_at, window_closes_at, created_at
FROM exams WHERE id = ?
`, id).Scan(&e.ID, &e.DeckID, &e.Title, &e.TimeLimitSeconds, &e.PassScore, &e.QuestionCount,
		&e.WindowOpensAt, &e.WindowClosesAt, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get exam: %v", err)
		return nil, err
	}
	return &e, nil
}

func (r *examRepository) ListExams(ctx context.Context, deckID int64) ([]models.Exam, error) {
	log := logger.FromContext(ctx).WithPrefix("exam_repo")

	rows, err := r.db.QueryContext(ctx, `
SELECT id, deck_id, title, time_limit_seconds, pass_score, question_count,
    window_opens_at, window_closes_at, created_at
FROM exams WHERE deck_id = ?
ORDER BY created_at DESC
`, deckID)
	if err != nil {
		log.Error("failed to list exams: %v", err)
		return nil, err
	}
	defer rows.Close()

	var exams []models.Exam
	for rows.Next() {
		var e models.Exam
		if err := rows.Scan(&e.ID, &e.DeckID, &e.Title, &e.TimeLimitSeconds, &e.PassScore, &e.QuestionCount,
			&e.WindowOpensAt, &e.WindowClosesAt, &e.CreatedAt); err != nil {
			log.Error("failed to scan exam row: %v", err)
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

func (r *examRepository) InsertExam(ctx context.Context, exam models.Exam) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("exam_repo")
	log.Debug("inserting exam: deck_id=%d, title=%q", exam.DeckID, exam.Title)

	res, err := r.db.ExecContext(ctx, `
INSERT INTO exams (deck_id, title, time_limit_seconds, pass_score, question_count, window_opens_at, window_closes_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, exam.DeckID, exam.Title, exam.TimeLimitSeconds, exam.PassScore, exam.QuestionCount,
		exam.WindowOpensAt, exam.WindowClosesAt)
	if err != nil {
		log.Error("failed to insert exam: %v", err)
		return 0, err
	}
	return res.LastInsertId()
}

func (r *examRepository) InsertSession(ctx context.Context, s models.ExamSession) error {
	log := logger.FromContext(ctx).WithPrefix("exam_repo")
	log.Debug("inserting session: id=%s, exam_id=%d, profile_id=%d", s.ID, s.ExamID, s.ProfileID)

	questions, answers, err := encodeSessionBlobs(s)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO exam_sessions (id, exam_id, profile_id, status, questions, answers,
    time_remaining_seconds, tab_switch_count, score, passed, started_at, deadline_at, completed_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, s.ID, s.ExamID, s.ProfileID, string(s.Status), questions, answers,
		s.TimeRemainingSeconds, s.TabSwitchCount, s.Score, s.Passed, s.StartedAt, s.DeadlineAt, s.CompletedAt)
	if err != nil {
		log.Error("failed to insert session: %v", err)
	}
	return err
}

func (r *examRepository) UpdateSession(ctx context.Context, s models.ExamSession) error {
	log := logger.FromContext(ctx).WithPrefix("exam_repo")

	questions, answers, err := encodeSessionBlobs(s)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
UPDATE exam_sessions SET status = ?, questions = ?, answers = ?, time_remaining_seconds = ?,
    tab_switch_count = ?, score = ?, passed = ?, completed_at = ?
WHERE id = ?
`, string(s.Status), questions, answers, s.TimeRemainingSeconds,
		s.TabSwitchCount, s.Score, s.Passed, s.CompletedAt, s.ID)
	if err != nil {
		log.Error("failed to update session: %v", err)
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("session %s not found", s.ID)
	}
	return nil
}

func (r *examRepository) GetSession(ctx context.Context, id string) (*models.ExamSession, error) {
	log := logger.FromContext(ctx).WithPrefix("exam_repo")

	s, err := r.scanSession(r.db.QueryRowContext(ctx, `
SELECT id, exam_id, profile_id, status, questions, answers, time_remaining_seconds,
    tab_switch_count, score, passed, started_at, deadline_at, completed_at
FROM exam_sessions WHERE id = ?
`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get session: %v", err)
		return nil, err
	}
	return s, nil
}

func (r *examRepository) ActiveSession(ctx context.Context, profileID, examID int64) (*models.ExamSession, error) {
	log := logger.FromContext(ctx).WithPrefix("exam_repo")

	s, err := r.scanSession(r.db.QueryRowContext(ctx, `
SELECT id, exam_id, profile_id, status, questions, answers, time_remaining_seconds,
    tab_switch_count, score, passed, started_at, deadline_at, completed_at
FROM exam_sessions
WHERE profile_id = ? AND exam_id = ? AND status = ?
ORDER BY started_at DESC
LIMIT 1
`, profileID, examID, string(models.SessionInProgress)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get active session: %v", err)
		return nil, err
	}
	return s, nil
}

// OverdueSessions returns in-progress sessions whose server-side deadline has
// passed, for the expiry sweeper.
func (r *examRepository) OverdueSessions(ctx context.Context, now time.Time) ([]models.ExamSession, error) {
	log := logger.FromContext(ctx).WithPrefix("exam_repo")

	rows, err := r.db.QueryContext(ctx, `
SELECT id, exam_id, profile_id, status, questions, answers, time_remaining_seconds,
    tab_switch_count, score, passed, started_at, deadline_at, completed_at
FROM exam_sessions
WHERE status = ? AND deadline_at <= ?
`, string(models.SessionInProgress), now)
	if err != nil {
		log.Error("failed to query overdue sessions: %v", err)
		return nil, err
	}
	defer rows.Close()

	var sessions []models.ExamSession
	for rows.Next() {
		s, err := r.scanSession(rows)
		if err != nil {
			log.Error("failed to scan session row: %v", err)
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

func encodeSessionBlobs(s models.ExamSession) (string, string, error) {
	questions, err := json.Marshal(s.Questions)
	if err != nil {
		return "", "", fmt.Errorf("marshal questions: %w", err)
	}
	if s.Answers == nil {
		s.Answers = map[string]int{}
	}
	answers, err := json.Marshal(s.Answers)
	if err != nil {
		return "", "", fmt.Errorf("marshal answers: %w", err)
	}
	return string(questions), string(answers), nil
}

func (r *examRepository) scanSession(row interface{ Scan(...any) error }) (*models.ExamSession, error) {
	var s models.ExamSession
	var status, questions, answers string
	err := row.Scan(&s.ID, &s.ExamID, &s.ProfileID, &status, &questions, &answers,
		&s.TimeRemainingSeconds, &s.TabSwitchCount, &s.Score, &s.Passed,
		&s.StartedAt, &s.DeadlineAt, &s.CompletedAt)
	if err != nil {
		return nil, err
	}
	s.Status = models.SessionStatus(status)
	if err := json.Unmarshal([]byte(questions), &s.Questions); err != nil {
		return nil, fmt.Errorf("unmarshal questions: %w", err)
	}
	if err := json.Unmarshal([]byte(answers), &s.Answers); err != nil {
		return nil, fmt.Errorf("unmarshal answers: %w", err)
	}
	return &s, nil
}
