package domain

import "time"

// Role of an authenticated user.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// User is an account known to the service.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Principal is the caller of an operation, resolved from its bearer token.
type Principal struct {
	UserID string
	Role   Role
}

// IsAdmin reports whether the principal holds the admin role.
func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// Category groups questions.
type Category struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	QuestionCount int    `json:"questionCount"`
}

// Mode switches between browsable questions (game) and hidden questions (battle).
type Mode string

const (
	ModeGame   Mode = "game"
	ModeBattle Mode = "battle"
)

// BattleConfig tunes battle mode sessions.
type BattleConfig struct {
	DurationMinutes int `json:"durationMinutes,omitempty"`
	QuestionCount   int `json:"questionCount,omitempty"`
}

// ModeState is the current service mode.
type ModeState struct {
	Mode         Mode          `json:"mode"`
	BattleConfig *BattleConfig `json:"battleConfig"`
}

// DifficultySettings are per-user overrides applied to battle mode sessions.
type DifficultySettings struct {
	UserID        string     `json:"userId"`
	Difficulty    Difficulty `json:"difficulty,omitempty"`
	QuestionCount int        `json:"questionCount,omitempty"`
	CategoryIDs   []string   `json:"categoryIds"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	UpdatedBy     string     `json:"updatedBy"`
}

// SessionStatus is the lifecycle state of a session. completed is terminal.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
)

// Session is one quiz attempt with a fixed snapshot of questions.
type Session struct {
	SessionID      string        `json:"sessionId"`
	UserID         string        `json:"userId"`
	Status         SessionStatus `json:"status"`
	Mode           Mode          `json:"mode"`
	QuestionIDs    []string      `json:"questionIds"`
	TotalQuestions int           `json:"totalQuestions"`
	AnsweredCount  int           `json:"answeredCount"`
	MaxScore       float64       `json:"maxScore"`
	CurrentScore   float64       `json:"currentScore"`
	CreatedAt      time.Time     `json:"createdAt"`
	CompletedAt    *time.Time    `json:"completedAt"`
	ExpiresAt      *time.Time    `json:"expiresAt"`
}

// Contains reports whether questionID is part of the session snapshot.
func (s Session) Contains(questionID string) bool {
	for _, id := range s.QuestionIDs {
		if id == questionID {
			return true
		}
	}
	return false
}

// Expired reports whether a timed session is past its deadline at now.
func (s Session) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && !now.Before(*s.ExpiresAt)
}

// AnswerStatus is the grading outcome of an answer.
type AnswerStatus string

const (
	AnswerCorrect   AnswerStatus = "correct"
	AnswerPartial   AnswerStatus = "partial"
	AnswerIncorrect AnswerStatus = "incorrect"
	AnswerPending   AnswerStatus = "pending"
)

// RubricScore is the grade awarded for one rubric criterion.
type RubricScore struct {
	Criterion    string  `json:"criterion"`
	EarnedPoints float64 `json:"earnedPoints"`
	MaxPoints    float64 `json:"maxPoints"`
	Comment      string  `json:"comment,omitempty"`
}

// Answer is the single response to one session question.
type Answer struct {
	AnswerID        string        `json:"answerId"`
	SessionID       string        `json:"sessionId"`
	QuestionID      string        `json:"questionId"`
	UserID          string        `json:"userId"`
	Kind            QuestionType  `json:"kind"`
	SelectedOptions []int         `json:"selectedOptions,omitempty"`
	Text            string        `json:"text,omitempty"`
	Status          AnswerStatus  `json:"status"`
	PointsEarned    float64       `json:"pointsEarned"`
	MaxPoints       float64       `json:"maxPoints"`
	Feedback        string        `json:"feedback,omitempty"`
	RubricScores    []RubricScore `json:"rubricScores,omitempty"`
	GradedBy        string        `json:"gradedBy,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
	GradedAt        *time.Time    `json:"gradedAt,omitempty"`
}

// SessionProgress is pushed to subscribers whenever a session changes.
type SessionProgress struct {
	SessionID      string        `json:"sessionId"`
	UserID         string        `json:"userId"`
	Status         SessionStatus `json:"status"`
	Event          string        `json:"event"`
	AnswerID       string        `json:"answerId,omitempty"`
	TotalQuestions int           `json:"totalQuestions"`
	AnsweredCount  int           `json:"answeredCount"`
	CurrentScore   float64       `json:"currentScore"`
	MaxScore       float64       `json:"maxScore"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

// Progress events.
const (
	EventSnapshot  = "snapshot"
	EventAnswered  = "answered"
	EventGraded    = "graded"
	EventCompleted = "completed"
)

// ProgressOf snapshots s for subscribers.
func ProgressOf(s Session, event string, at time.Time) SessionProgress {
	return SessionProgress{
		SessionID:      s.SessionID,
		UserID:         s.UserID,
		Status:         s.Status,
		Event:          event,
		TotalQuestions: s.TotalQuestions,
		AnsweredCount:  s.AnsweredCount,
		CurrentScore:   s.CurrentScore,
		MaxScore:       s.MaxScore,
		UpdatedAt:      at,
	}
}
