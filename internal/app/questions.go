package app

import (
	"context"
	"fmt"
	"strings"

	"quiz-session-service/internal/domain"
)

const (
	defaultPreviewLimit = 20
	defaultAdminLimit   = 50
)

// QuestionPage is a window of question previews.
type QuestionPage struct {
	Questions []domain.QuestionPreview `json:"questions"`
	Total     int                      `json:"total"`
	Limit     int                      `json:"limit"`
	Offset    int                      `json:"offset"`
}

// AdminQuestionPage is a window of full question records.
type AdminQuestionPage struct {
	Questions []domain.Question `json:"questions"`
	Total     int               `json:"total"`
	Limit     int               `json:"limit"`
	Offset    int               `json:"offset"`
}

// ListQuestions returns previews of questions. Battle mode hides them entirely.
func (s *QuizService) ListQuestions(ctx context.Context, _ domain.Principal, filter domain.QuestionFilter, page domain.Page) (QuestionPage, error) {
	mode, err := s.store.GetMode(ctx)
	if err != nil {
		return QuestionPage{}, err
	}
	if mode.Mode == domain.ModeBattle {
		return QuestionPage{}, domain.ErrQuestionsHidden
	}
	page, err = normalizePage(page, defaultPreviewLimit)
	if err != nil {
		return QuestionPage{}, err
	}
	all, err := s.store.ListQuestions(ctx, filter)
	if err != nil {
		return QuestionPage{}, err
	}
	start, end := page.Apply(len(all))
	previews := make([]domain.QuestionPreview, 0, end-start)
	for _, q := range all[start:end] {
		previews = append(previews, q.Preview())
	}
	return QuestionPage{Questions: previews, Total: len(all), Limit: page.Limit, Offset: page.Offset}, nil
}

// AdminListQuestions returns full question records, correctness data included.
func (s *QuizService) AdminListQuestions(ctx context.Context, p domain.Principal, filter domain.QuestionFilter, page domain.Page) (AdminQuestionPage, error) {
	if err := requireAdmin(p); err != nil {
		return AdminQuestionPage{}, err
	}
	page, err := normalizePage(page, defaultAdminLimit)
	if err != nil {
		return AdminQuestionPage{}, err
	}
	all, err := s.store.ListQuestions(ctx, filter)
	if err != nil {
		return AdminQuestionPage{}, err
	}
	start, end := page.Apply(len(all))
	return AdminQuestionPage{Questions: all[start:end], Total: len(all), Limit: page.Limit, Offset: page.Offset}, nil
}

// AdminGetQuestion returns one full question record.
func (s *QuizService) AdminGetQuestion(ctx context.Context, p domain.Principal, id string) (domain.Question, error) {
	if err := requireAdmin(p); err != nil {
		return domain.Question{}, err
	}
	return s.store.GetQuestion(ctx, id)
}

// CreateQuestion validates q, assigns its identity and computes MaxPoints.
func (s *QuizService) CreateQuestion(ctx context.Context, p domain.Principal, q domain.Question) (domain.Question, error) {
	if err := requireAdmin(p); err != nil {
		return domain.Question{}, err
	}
	if err := q.Validate(); err != nil {
		return domain.Question{}, err
	}
	now := s.now()
	q.ID = s.newID("q")
	q.CreatedAt = now
	q.UpdatedAt = now
	q.ComputeMaxPoints()
	if err := s.store.CreateQuestion(ctx, q); err != nil {
		return domain.Question{}, fmt.Errorf("create question: %w", err)
	}
	return q, nil
}

// ListCategories returns every category.
func (s *QuizService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.store.ListCategories(ctx)
}

// CreateCategory adds an empty category.
func (s *QuizService) CreateCategory(ctx context.Context, p domain.Principal, c domain.Category) (domain.Category, error) {
	if err := requireAdmin(p); err != nil {
		return domain.Category{}, err
	}
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return domain.Category{}, fmt.Errorf("%w: category name is required", domain.ErrInvalidRequest)
	}
	c.ID = s.newID("cat")
	c.QuestionCount = 0
	if err := s.store.CreateCategory(ctx, c); err != nil {
		return domain.Category{}, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

// Mode returns the current service mode.
func (s *QuizService) Mode(ctx context.Context) (domain.ModeState, error) {
	return s.store.GetMode(ctx)
}

// SetMode switches the service mode. The battle config is kept only in battle mode.
func (s *QuizService) SetMode(ctx context.Context, p domain.Principal, m domain.ModeState) (domain.ModeState, error) {
	if err := requireAdmin(p); err != nil {
		return domain.ModeState{}, err
	}
	switch m.Mode {
	case domain.ModeGame:
		m.BattleConfig = nil
	case domain.ModeBattle:
		if m.BattleConfig != nil && (m.BattleConfig.DurationMinutes < 0 || m.BattleConfig.QuestionCount < 0) {
			return domain.ModeState{}, fmt.Errorf("%w: battle config values must not be negative", domain.ErrInvalidRequest)
		}
	default:
		return domain.ModeState{}, fmt.Errorf("%w: unknown mode %q", domain.ErrInvalidRequest, m.Mode)
	}
	if err := s.store.SetMode(ctx, m); err != nil {
		return domain.ModeState{}, err
	}
	return m, nil
}

func normalizePage(p domain.Page, defaultLimit int) (domain.Page, error) {
	if p.Limit < 0 || p.Offset < 0 {
		return p, fmt.Errorf("%w: limit and offset must not be negative", domain.ErrInvalidRequest)
	}
	if p.Limit == 0 {
		p.Limit = defaultLimit
	}
	return p, nil
}
