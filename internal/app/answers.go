package app

import (
	"context"
	"fmt"
	"math"
	"unicode/utf8"

	"quiz-session-service/internal/domain"
	"quiz-session-service/internal/scoring"
)

// AnswerPayload is one submitted answer. SelectedOptions applies to multiple-select
// questions, Text to essays.
type AnswerPayload struct {
	QuestionID      string `json:"questionId"`
	SelectedOptions []int  `json:"selectedOptions,omitempty"`
	Text            string `json:"text,omitempty"`
}

// ScoredAnswer is returned for auto-graded answers.
type ScoredAnswer struct {
	AnswerID       string              `json:"answerId"`
	QuestionID     string              `json:"questionId"`
	Status         domain.AnswerStatus `json:"status"`
	PointsEarned   float64             `json:"pointsEarned"`
	MaxPoints      float64             `json:"maxPoints"`
	Feedback       string              `json:"feedback"`
	CorrectOptions []int               `json:"correctOptions"`
	Breakdown      scoring.Breakdown   `json:"breakdown"`
}

// PendingAnswer is returned for answers that wait for manual review.
type PendingAnswer struct {
	AnswerID   string              `json:"answerId"`
	QuestionID string              `json:"questionId"`
	Status     domain.AnswerStatus `json:"status"`
	Message    string              `json:"message"`
}

// AnswerOutcome holds exactly one of Scored or Pending.
type AnswerOutcome struct {
	Scored  *ScoredAnswer
	Pending *PendingAnswer
}

// SubmitAnswer records the caller's answer to one question of their session.
// Multiple-select answers are scored immediately; essays are stored as pending.
func (s *QuizService) SubmitAnswer(ctx context.Context, p domain.Principal, sessionID string, payload AnswerPayload) (AnswerOutcome, error) {
	unlock, err := s.locks.Lock(ctx, sessionID)
	if err != nil {
		return AnswerOutcome{}, err
	}
	defer unlock()

	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return AnswerOutcome{}, err
	}
	if session.UserID != p.UserID {
		return AnswerOutcome{}, domain.ErrForbidden
	}
	if session.Status == domain.SessionCompleted {
		return AnswerOutcome{}, domain.ErrAlreadyCompleted
	}
	now := s.now()
	if session.Expired(now) {
		return AnswerOutcome{}, domain.ErrSessionExpired
	}
	if !session.Contains(payload.QuestionID) {
		return AnswerOutcome{}, fmt.Errorf("%w: %q is not part of this session", domain.ErrQuestionNotFound, payload.QuestionID)
	}
	if session.AnsweredCount >= session.TotalQuestions {
		return AnswerOutcome{}, domain.ErrAlreadyAnswered
	}

	question, err := s.store.GetQuestion(ctx, payload.QuestionID)
	if err != nil {
		return AnswerOutcome{}, err
	}

	answer := domain.Answer{
		AnswerID:   s.newID("ans"),
		SessionID:  session.SessionID,
		QuestionID: question.ID,
		UserID:     p.UserID,
		Kind:       question.Type,
		MaxPoints:  question.MaxPoints,
		CreatedAt:  now,
	}

	if err := question.Validate(); err != nil {
		return AnswerOutcome{}, fmt.Errorf("stored question %s is malformed: %v", question.ID, err)
	}

	var outcome AnswerOutcome
	switch question.Type {
	case domain.TypeMultipleSelect:
		if err := scoring.ValidateSelection(*question.MultiSelect, payload.SelectedOptions); err != nil {
			return AnswerOutcome{}, err
		}
		res := scoring.ScoreMultiSelect(*question.MultiSelect, payload.SelectedOptions)
		answer.SelectedOptions = uniqueIndices(payload.SelectedOptions)
		answer.Status = res.Status
		answer.PointsEarned = res.PointsEarned
		answer.Feedback = fmt.Sprintf("You scored %g of %g points.", res.PointsEarned, question.MaxPoints)

		session.AnsweredCount++
		// A negative floor lowers the answer's own points but never the session total.
		session.CurrentScore += math.Max(0, res.PointsEarned)
		outcome.Scored = &ScoredAnswer{
			AnswerID:       answer.AnswerID,
			QuestionID:     question.ID,
			Status:         res.Status,
			PointsEarned:   res.PointsEarned,
			MaxPoints:      question.MaxPoints,
			Feedback:       answer.Feedback,
			CorrectOptions: res.CorrectOptions,
			Breakdown:      res.Breakdown,
		}
	case domain.TypeEssay:
		if err := checkEssayLength(*question.Essay, payload.Text); err != nil {
			return AnswerOutcome{}, err
		}
		answer.Text = payload.Text
		answer.Status = domain.AnswerPending

		session.AnsweredCount++
		outcome.Pending = &PendingAnswer{
			AnswerID:   answer.AnswerID,
			QuestionID: question.ID,
			Status:     domain.AnswerPending,
			Message:    "Answer saved and awaiting review.",
		}
	default:
		return AnswerOutcome{}, fmt.Errorf("%w: unsupported question type %q", domain.ErrInvalidQuestion, question.Type)
	}

	if err := s.store.RecordAnswer(ctx, answer, session); err != nil {
		return AnswerOutcome{}, err
	}
	progress := domain.ProgressOf(session, domain.EventAnswered, now)
	progress.AnswerID = answer.AnswerID
	s.publish(ctx, progress)
	return outcome, nil
}

// checkEssayLength enforces the configured bounds, counted in characters. Zero bounds are open.
func checkEssayLength(e domain.Essay, text string) error {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return fmt.Errorf("%w: essay text is required", domain.ErrInvalidAnswer)
	}
	if e.MinLength > 0 && n < e.MinLength {
		return fmt.Errorf("%w: essay must be at least %d characters", domain.ErrInvalidAnswer, e.MinLength)
	}
	if e.MaxLength > 0 && n > e.MaxLength {
		return fmt.Errorf("%w: essay must be at most %d characters", domain.ErrInvalidAnswer, e.MaxLength)
	}
	return nil
}

func uniqueIndices(in []int) []int {
	seen := make(map[int]struct{}, len(in))
	out := make([]int, 0, len(in))
	for _, idx := range in {
		if _, ok := seen[idx]; ok {
			continue
		}
		seen[idx] = struct{}{}
		out = append(out, idx)
	}
	return out
}
