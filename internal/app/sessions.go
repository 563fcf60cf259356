package app

import (
	"context"
	"fmt"
	"time"

	"quiz-session-service/internal/domain"
)

// CreateSessionRequest selects the question pool of a new session. Filters apply in game mode only.
type CreateSessionRequest struct {
	CategoryIDs   []string          `json:"categoryIds,omitempty"`
	Difficulty    domain.Difficulty `json:"difficulty,omitempty"`
	QuestionCount int               `json:"questionCount,omitempty"`
}

// SessionView is a session together with previews of its questions.
type SessionView struct {
	domain.Session
	Questions []domain.QuestionPreview `json:"questions"`
}

// CreateSession samples questions for the caller and persists a new active session.
// Short pools are not padded: the session holds every matching question when fewer than requested.
func (s *QuizService) CreateSession(ctx context.Context, p domain.Principal, req CreateSessionRequest) (SessionView, error) {
	mode, err := s.store.GetMode(ctx)
	if err != nil {
		return SessionView{}, err
	}

	filter, count, err := s.poolFor(ctx, p, mode, req)
	if err != nil {
		return SessionView{}, err
	}

	pool, err := s.store.ListQuestions(ctx, filter)
	if err != nil {
		return SessionView{}, err
	}
	if len(pool) == 0 {
		return SessionView{}, domain.ErrNoQuestionsAvailable
	}
	s.shuffle(pool)
	if count < len(pool) {
		pool = pool[:count]
	}

	now := s.now()
	session := domain.Session{
		SessionID:      s.newID("sess"),
		UserID:         p.UserID,
		Status:         domain.SessionActive,
		Mode:           mode.Mode,
		QuestionIDs:    make([]string, len(pool)),
		TotalQuestions: len(pool),
		CreatedAt:      now,
	}
	previews := make([]domain.QuestionPreview, len(pool))
	for i, q := range pool {
		session.QuestionIDs[i] = q.ID
		session.MaxScore += q.MaxPoints
		previews[i] = q.Preview()
	}
	if mode.Mode == domain.ModeBattle {
		expires := now.Add(s.battleDuration(mode))
		session.ExpiresAt = &expires
	}

	if err := s.store.CreateSession(ctx, session); err != nil {
		return SessionView{}, fmt.Errorf("create session: %w", err)
	}
	return SessionView{Session: session, Questions: previews}, nil
}

// poolFor resolves the question filter and desired count for the current mode.
func (s *QuizService) poolFor(ctx context.Context, p domain.Principal, mode domain.ModeState, req CreateSessionRequest) (domain.QuestionFilter, int, error) {
	var filter domain.QuestionFilter
	count := req.QuestionCount

	switch mode.Mode {
	case domain.ModeBattle:
		settings, ok, err := s.store.GetDifficultySettings(ctx, p.UserID)
		if err != nil {
			return filter, 0, err
		}
		if ok {
			filter.Difficulty = settings.Difficulty
			filter.CategoryIDs = settings.CategoryIDs
			if settings.QuestionCount > 0 {
				count = settings.QuestionCount
			}
		}
		if (!ok || settings.QuestionCount == 0) && mode.BattleConfig != nil && mode.BattleConfig.QuestionCount > 0 {
			count = mode.BattleConfig.QuestionCount
		}
	default:
		if req.Difficulty != "" && !req.Difficulty.Valid() {
			return filter, 0, fmt.Errorf("%w: unknown difficulty %q", domain.ErrInvalidRequest, req.Difficulty)
		}
		filter.CategoryIDs = req.CategoryIDs
		filter.Difficulty = req.Difficulty
	}

	if count == 0 {
		count = s.settings.DefaultQuestionCount
	}
	if count < 1 || (s.settings.MaxQuestionCount > 0 && count > s.settings.MaxQuestionCount) {
		return filter, 0, fmt.Errorf("%w: questionCount must be between 1 and %d", domain.ErrInvalidRequest, s.settings.MaxQuestionCount)
	}
	return filter, count, nil
}

func (s *QuizService) battleDuration(mode domain.ModeState) time.Duration {
	if mode.BattleConfig != nil && mode.BattleConfig.DurationMinutes > 0 {
		return time.Duration(mode.BattleConfig.DurationMinutes) * time.Minute
	}
	return s.settings.BattleDuration
}

// GetSession returns a session with its question previews to its owner or an admin.
func (s *QuizService) GetSession(ctx context.Context, p domain.Principal, sessionID string) (SessionView, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return SessionView{}, err
	}
	if session.UserID != p.UserID && !p.IsAdmin() {
		return SessionView{}, domain.ErrForbidden
	}
	previews := make([]domain.QuestionPreview, 0, len(session.QuestionIDs))
	for _, id := range session.QuestionIDs {
		q, err := s.store.GetQuestion(ctx, id)
		if err != nil {
			return SessionView{}, fmt.Errorf("session question %s: %w", id, err)
		}
		previews = append(previews, q.Preview())
	}
	return SessionView{Session: session, Questions: previews}, nil
}

// SubmitSession completes a session and returns its results. A second submit fails with ErrAlreadyCompleted.
func (s *QuizService) SubmitSession(ctx context.Context, p domain.Principal, sessionID string) (Report, error) {
	unlock, err := s.locks.Lock(ctx, sessionID)
	if err != nil {
		return Report{}, err
	}
	defer unlock()

	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return Report{}, err
	}
	if session.UserID != p.UserID {
		return Report{}, domain.ErrForbidden
	}
	if session.Status == domain.SessionCompleted {
		return Report{}, domain.ErrAlreadyCompleted
	}

	now := s.now()
	session.Status = domain.SessionCompleted
	session.CompletedAt = &now
	if err := s.store.UpdateSession(ctx, session); err != nil {
		return Report{}, fmt.Errorf("complete session: %w", err)
	}
	s.publish(ctx, domain.ProgressOf(session, domain.EventCompleted, now))

	return s.buildReport(ctx, session)
}
