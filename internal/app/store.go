package app

import (
	"context"

	"quiz-session-service/internal/domain"
)

// QuestionRepository stores question records.
type QuestionRepository interface {
	// ListQuestions returns every question matching the filter in a stable order.
	ListQuestions(ctx context.Context, filter domain.QuestionFilter) ([]domain.Question, error)
	GetQuestion(ctx context.Context, id string) (domain.Question, error)
	// CreateQuestion inserts q and bumps the question counter of its category.
	CreateQuestion(ctx context.Context, q domain.Question) error
}

// CategoryRepository stores question categories.
type CategoryRepository interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	CreateCategory(ctx context.Context, c domain.Category) error
}

// SessionRepository stores sessions and their answers.
type SessionRepository interface {
	CreateSession(ctx context.Context, s domain.Session) error
	GetSession(ctx context.Context, id string) (domain.Session, error)
	UpdateSession(ctx context.Context, s domain.Session) error
	ListSessionsByUser(ctx context.Context, userID string) ([]domain.Session, error)

	// RecordAnswer inserts a and stores s atomically. It fails with
	// domain.ErrAlreadyAnswered when the session question already has an answer.
	RecordAnswer(ctx context.Context, a domain.Answer, s domain.Session) error
	// RecordGrade replaces a pending answer with its graded form and stores s atomically.
	// It fails with domain.ErrAlreadyGraded when the stored answer is no longer pending.
	RecordGrade(ctx context.Context, a domain.Answer, s domain.Session) error
	GetAnswer(ctx context.Context, id string) (domain.Answer, error)
	ListAnswersBySession(ctx context.Context, sessionID string) ([]domain.Answer, error)
	ListAnswersByStatus(ctx context.Context, status domain.AnswerStatus) ([]domain.Answer, error)
}

// UserRepository stores accounts, per-user settings and the service mode.
type UserRepository interface {
	GetUser(ctx context.Context, id string) (domain.User, error)
	// ListUsers returns users with the given role, or all users when role is empty.
	ListUsers(ctx context.Context, role domain.Role) ([]domain.User, error)
	GetDifficultySettings(ctx context.Context, userID string) (domain.DifficultySettings, bool, error)
	PutDifficultySettings(ctx context.Context, s domain.DifficultySettings) error
	GetMode(ctx context.Context) (domain.ModeState, error)
	SetMode(ctx context.Context, m domain.ModeState) error
}

// Store bundles every collection of the backing document.
type Store interface {
	QuestionRepository
	CategoryRepository
	SessionRepository
	UserRepository
}

// Locker serializes mutations of one key (a session id) across callers.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// EventPublisher forwards session progress to external consumers.
type EventPublisher interface {
	Publish(ctx context.Context, progress domain.SessionProgress) error
}
