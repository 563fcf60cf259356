package app

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"quiz-session-service/internal/domain"
)

// UserStats aggregates the sessions of one user.
type UserStats struct {
	TotalSessions     int        `json:"totalSessions"`
	CompletedSessions int        `json:"completedSessions"`
	AverageScore      float64    `json:"averageScore"`
	LastSessionAt     *time.Time `json:"lastSessionAt"`
}

// UserSummary is a student as seen by admins.
type UserSummary struct {
	domain.User
	Stats              UserStats                  `json:"stats"`
	DifficultySettings *domain.DifficultySettings `json:"difficultySettings"`
}

// UserResults lists every session report of one user.
type UserResults struct {
	UserID   string      `json:"userId"`
	User     domain.User `json:"user"`
	Sessions []Report    `json:"sessions"`
}

// ListStudents returns a page of students with their session statistics.
func (s *QuizService) ListStudents(ctx context.Context, p domain.Principal, page domain.Page) ([]UserSummary, int, error) {
	if err := requireAdmin(p); err != nil {
		return nil, 0, err
	}
	page, err := normalizePage(page, defaultAdminLimit)
	if err != nil {
		return nil, 0, err
	}
	students, err := s.store.ListUsers(ctx, domain.RoleStudent)
	if err != nil {
		return nil, 0, err
	}
	start, end := page.Apply(len(students))
	out := make([]UserSummary, 0, end-start)
	for _, u := range students[start:end] {
		summary, err := s.summarize(ctx, u)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, summary)
	}
	return out, len(students), nil
}

func (s *QuizService) summarize(ctx context.Context, u domain.User) (UserSummary, error) {
	sessions, err := s.store.ListSessionsByUser(ctx, u.ID)
	if err != nil {
		return UserSummary{}, err
	}
	stats := UserStats{TotalSessions: len(sessions)}
	sum := decimal.Zero
	for _, sess := range sessions {
		if stats.LastSessionAt == nil || sess.CreatedAt.After(*stats.LastSessionAt) {
			created := sess.CreatedAt
			stats.LastSessionAt = &created
		}
		if sess.Status != domain.SessionCompleted {
			continue
		}
		stats.CompletedSessions++
		if sess.MaxScore > 0 {
			sum = sum.Add(decimal.NewFromFloat(sess.CurrentScore).Div(decimal.NewFromFloat(sess.MaxScore)).Mul(decimal.NewFromInt(100)))
		}
	}
	if stats.CompletedSessions > 0 {
		stats.AverageScore = sum.Div(decimal.NewFromInt(int64(stats.CompletedSessions))).Round(1).InexactFloat64()
	}

	summary := UserSummary{User: u, Stats: stats}
	settings, ok, err := s.store.GetDifficultySettings(ctx, u.ID)
	if err != nil {
		return UserSummary{}, err
	}
	if ok {
		summary.DifficultySettings = &settings
	}
	return summary, nil
}

// SetDifficulty stores the battle mode overrides of one user.
func (s *QuizService) SetDifficulty(ctx context.Context, p domain.Principal, userID string, settings domain.DifficultySettings) (domain.DifficultySettings, error) {
	if err := requireAdmin(p); err != nil {
		return domain.DifficultySettings{}, err
	}
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return domain.DifficultySettings{}, err
	}
	if settings.Difficulty != "" && !settings.Difficulty.Valid() {
		return domain.DifficultySettings{}, fmt.Errorf("%w: unknown difficulty %q", domain.ErrInvalidRequest, settings.Difficulty)
	}
	if settings.QuestionCount < 0 || (s.settings.MaxQuestionCount > 0 && settings.QuestionCount > s.settings.MaxQuestionCount) {
		return domain.DifficultySettings{}, fmt.Errorf("%w: questionCount must be between 0 and %d", domain.ErrInvalidRequest, s.settings.MaxQuestionCount)
	}
	settings.UserID = userID
	settings.UpdatedAt = s.now()
	settings.UpdatedBy = p.UserID
	if err := s.store.PutDifficultySettings(ctx, settings); err != nil {
		return domain.DifficultySettings{}, err
	}
	return settings, nil
}

// UserResults returns the reports of every session of one user.
func (s *QuizService) UserResults(ctx context.Context, p domain.Principal, userID string) (UserResults, error) {
	if err := requireAdmin(p); err != nil {
		return UserResults{}, err
	}
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return UserResults{}, err
	}
	sessions, err := s.store.ListSessionsByUser(ctx, userID)
	if err != nil {
		return UserResults{}, err
	}
	out := UserResults{UserID: userID, User: user, Sessions: make([]Report, 0, len(sessions))}
	for _, sess := range sessions {
		report, err := s.buildReport(ctx, sess)
		if err != nil {
			return UserResults{}, err
		}
		out.Sessions = append(out.Sessions, report)
	}
	return out, nil
}

// CurrentUser returns the account of the caller.
func (s *QuizService) CurrentUser(ctx context.Context, p domain.Principal) (domain.User, error) {
	return s.store.GetUser(ctx, p.UserID)
}

// FirstStudent backs the mock OAuth callback, which always signs in the first student.
func (s *QuizService) FirstStudent(ctx context.Context) (domain.User, error) {
	students, err := s.store.ListUsers(ctx, domain.RoleStudent)
	if err != nil {
		return domain.User{}, err
	}
	if len(students) == 0 {
		return domain.User{}, domain.ErrUserNotFound
	}
	return students[0], nil
}
