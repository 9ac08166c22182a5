package models

import "time"

// SessionStatus enumerates exam session states.
type SessionStatus string

const (
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
	SessionTimedOut   SessionStatus = "timed_out"
	SessionExpired    SessionStatus = "expired"
)

// Terminal reports whether no further answer or tab-switch mutation is
// permitted in this status.
func (s SessionStatus) Terminal() bool {
	return s == SessionCompleted || s == SessionTimedOut || s == SessionExpired
}

type Exam struct {
	ID               int64      `json:"id"`
	DeckID           int64      `json:"deck_id"`
	Title            string     `json:"title"`
	TimeLimitSeconds int        `json:"time_limit_seconds"`
	PassScore        int        `json:"pass_score"` // percentage threshold
	QuestionCount    int        `json:"question_count"`
	WindowOpensAt    *time.Time `json:"window_opens_at"`
	WindowClosesAt   *time.Time `json:"window_closes_at"`
	CreatedAt        time.Time  `json:"created_at"`
}

type Question struct {
	ID           string   `json:"id"`
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
}

// ExamSession is one candidate's attempt at a timed exam. Question order is
// fixed at creation; answers map question id to the selected option index.
type ExamSession struct {
	ID                   string         `json:"id"`
	ExamID               int64          `json:"exam_id"`
	ProfileID            int64          `json:"profile_id"`
	Status               SessionStatus  `json:"status"`
	Questions            []Question     `json:"questions"`
	Answers              map[string]int `json:"answers"`
	TimeRemainingSeconds int            `json:"time_remaining_seconds"`
	TabSwitchCount       int            `json:"tab_switch_count"`
	Score                int            `json:"score"`
	Passed               bool           `json:"passed"`
	StartedAt            time.Time      `json:"started_at"`
	DeadlineAt           time.Time      `json:"deadline_at"` // authoritative server-side cutoff
	CompletedAt          *time.Time     `json:"completed_at"`
}
