package app

import (
	"context"
	"fmt"

	"quiz-session-service/internal/domain"
	"quiz-session-service/internal/scoring"
)

// GradeRequest carries the rubric grade of one essay answer.
type GradeRequest struct {
	RubricScores    []domain.RubricScore `json:"rubricScores"`
	GeneralFeedback string               `json:"generalFeedback"`
}

// GradedAnswer is the result of a manual grade.
type GradedAnswer struct {
	AnswerID     string               `json:"answerId"`
	QuestionID   string               `json:"questionId"`
	Status       domain.AnswerStatus  `json:"status"`
	PointsEarned float64              `json:"pointsEarned"`
	MaxPoints    float64              `json:"maxPoints"`
	RubricScores []domain.RubricScore `json:"rubricScores"`
	Feedback     string               `json:"feedback"`
}

// GradeAnswer resolves a pending essay answer and adds its points to the session score.
// Each answer is graded once, by an admin other than its owner.
func (s *QuizService) GradeAnswer(ctx context.Context, p domain.Principal, answerID string, req GradeRequest) (GradedAnswer, error) {
	if err := requireAdmin(p); err != nil {
		return GradedAnswer{}, err
	}

	answer, err := s.store.GetAnswer(ctx, answerID)
	if err != nil {
		return GradedAnswer{}, err
	}

	unlock, err := s.locks.Lock(ctx, answer.SessionID)
	if err != nil {
		return GradedAnswer{}, err
	}
	defer unlock()

	// Re-read under the session lock so a concurrent grade is observed.
	answer, err = s.store.GetAnswer(ctx, answerID)
	if err != nil {
		return GradedAnswer{}, err
	}
	if answer.UserID == p.UserID {
		return GradedAnswer{}, domain.ErrSelfGrading
	}
	if answer.Kind != domain.TypeEssay {
		return GradedAnswer{}, fmt.Errorf("%w: only essay answers are graded manually", domain.ErrInvalidGrade)
	}
	if answer.Status != domain.AnswerPending {
		return GradedAnswer{}, domain.ErrAlreadyGraded
	}

	question, err := s.store.GetQuestion(ctx, answer.QuestionID)
	if err != nil {
		return GradedAnswer{}, err
	}
	if question.Essay == nil {
		return GradedAnswer{}, fmt.Errorf("%w: question %s has no rubric", domain.ErrInvalidGrade, question.ID)
	}
	total, scores, err := scoring.TotalRubric(question.Rubric, req.RubricScores)
	if err != nil {
		return GradedAnswer{}, err
	}

	session, err := s.store.GetSession(ctx, answer.SessionID)
	if err != nil {
		return GradedAnswer{}, err
	}

	now := s.now()
	answer.Status = scoring.EssayStatus(total)
	answer.PointsEarned = total
	answer.RubricScores = scores
	answer.Feedback = req.GeneralFeedback
	answer.GradedBy = p.UserID
	answer.GradedAt = &now
	session.CurrentScore += total

	if err := s.store.RecordGrade(ctx, answer, session); err != nil {
		return GradedAnswer{}, err
	}
	progress := domain.ProgressOf(session, domain.EventGraded, now)
	progress.AnswerID = answer.AnswerID
	s.publish(ctx, progress)

	return GradedAnswer{
		AnswerID:     answer.AnswerID,
		QuestionID:   answer.QuestionID,
		Status:       answer.Status,
		PointsEarned: total,
		MaxPoints:    answer.MaxPoints,
		RubricScores: scores,
		Feedback:     answer.Feedback,
	}, nil
}

// PendingAnswerItem is an answer awaiting review together with its question.
type PendingAnswerItem struct {
	domain.Answer
	Question domain.Question `json:"question"`
}

// PendingAnswers lists essay answers that still need a grade, oldest first.
func (s *QuizService) PendingAnswers(ctx context.Context, p domain.Principal, page domain.Page) ([]PendingAnswerItem, int, error) {
	if err := requireAdmin(p); err != nil {
		return nil, 0, err
	}
	page, err := normalizePage(page, defaultAdminLimit)
	if err != nil {
		return nil, 0, err
	}
	pending, err := s.store.ListAnswersByStatus(ctx, domain.AnswerPending)
	if err != nil {
		return nil, 0, err
	}
	start, end := page.Apply(len(pending))
	items := make([]PendingAnswerItem, 0, end-start)
	for _, a := range pending[start:end] {
		q, err := s.store.GetQuestion(ctx, a.QuestionID)
		if err != nil {
			return nil, 0, fmt.Errorf("pending answer %s: %w", a.AnswerID, err)
		}
		items = append(items, PendingAnswerItem{Answer: a, Question: q})
	}
	return items, len(pending), nil
}
