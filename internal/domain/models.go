package domain

import (
	"time"

	"github.com/google/uuid"
)

// QuestionBudget is the time a participant has to answer a single question.
const QuestionBudget = 10 * time.Second

// SettingsID is the fixed primary key of the quiz_settings singleton row.
const SettingsID = 1

// Registration is the subset of a registrant record the quiz needs.
type Registration struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Participant identifies the person playing a session.
type Participant struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// QuizSettings is the shared switch that opens and closes a round.
// Round increases by one every time the quiz is activated.
type QuizSettings struct {
	IsActive  bool      `json:"isActive"`
	Round     int64     `json:"round"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// QuizResult is the persisted outcome of one completed session.
type QuizResult struct {
	ID            uuid.UUID `json:"id"`
	Round         int64     `json:"round"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Score         int       `json:"score"`
	TotalTimeMs   int64     `json:"totalTimeMs"`
	QuestionTimes []int64   `json:"questionTimes"`
	CompletedAt   time.Time `json:"completedAt"`
}

// SessionStatus is the state of a participant's quiz session.
type SessionStatus string

const (
	StatusWaiting  SessionStatus = "waiting"
	StatusActive   SessionStatus = "active"
	StatusFinished SessionStatus = "finished"
)

// QuestionView is a question as shown to participants, without the answer.
type QuestionView struct {
	ID      int       `json:"id"`
	Prompt  string    `json:"prompt"`
	Options [4]string `json:"options"`
}

// Outcome describes how the most recent question was resolved.
type Outcome struct {
	QuestionIndex int   `json:"questionIndex"`
	Selected      int   `json:"selected"` // -1 when the countdown expired
	Correct       bool  `json:"correct"`
	ElapsedMs     int64 `json:"elapsedMs"`
	TimedOut      bool  `json:"timedOut"`
}

// SessionSnapshot is an immutable copy of a session's observable state.
type SessionSnapshot struct {
	SessionID     string        `json:"sessionId"`
	Participant   Participant   `json:"participant"`
	Status        SessionStatus `json:"status"`
	Round         int64         `json:"round"`
	QuestionIndex int           `json:"questionIndex"`
	QuestionCount int           `json:"questionCount"`
	Question      *QuestionView `json:"question,omitempty"`
	RemainingMs   int64         `json:"remainingMs"`
	Score         int           `json:"score"`
	TotalTimeMs   int64         `json:"totalTimeMs"`
	QuestionTimes []int64       `json:"questionTimes"`
	LastOutcome   *Outcome      `json:"lastOutcome,omitempty"`
}

// LeaderboardEntry is a ranked quiz result.
type LeaderboardEntry struct {
	Rank   int        `json:"rank"`
	Result QuizResult `json:"result"`
}

// Leaderboard is the full ranked order of the current result set.
type Leaderboard struct {
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// Version orders settings states: within a round the activation precedes the
// close, and every later round supersedes both.
func (s QuizSettings) Version() int64 {
	v := s.Round * 2
	if !s.IsActive {
		v++
	}
	return v
}
