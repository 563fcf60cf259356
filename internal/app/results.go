package app

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"quiz-session-service/internal/domain"
)

// ReportStatus is completed once no answer of the session waits for review.
type ReportStatus string

const (
	ReportCompleted ReportStatus = "completed"
	ReportPartial   ReportStatus = "partial"
)

// Score summarizes the points of a session.
type Score struct {
	Earned     float64 `json:"earned"`
	Max        float64 `json:"max"`
	Percentage float64 `json:"percentage"`
}

// AnswerDetail is one answer merged with its question preview.
type AnswerDetail struct {
	AnswerID       string                 `json:"answerId"`
	QuestionID     string                 `json:"questionId"`
	Question       domain.QuestionPreview `json:"question"`
	Status         domain.AnswerStatus    `json:"status"`
	PointsEarned   float64                `json:"pointsEarned"`
	MaxPoints      float64                `json:"maxPoints"`
	Feedback       string                 `json:"feedback,omitempty"`
	UserAnswer     any                    `json:"userAnswer"`
	CorrectOptions []int                  `json:"correctOptions,omitempty"`
	RubricScores   []domain.RubricScore   `json:"rubricScores,omitempty"`
}

// Report is the full result view of a session.
type Report struct {
	SessionID         string               `json:"sessionId"`
	UserID            string               `json:"userId"`
	Status            ReportStatus         `json:"status"`
	SessionStatus     domain.SessionStatus `json:"sessionStatus"`
	Mode              domain.Mode          `json:"mode"`
	TotalQuestions    int                  `json:"totalQuestions"`
	AnsweredQuestions int                  `json:"answeredQuestions"`
	Score             Score                `json:"score"`
	Answers           []AnswerDetail       `json:"answers"`
	CreatedAt         time.Time            `json:"createdAt"`
	CompletedAt       *time.Time           `json:"completedAt"`
	TimeSpent         *int64               `json:"timeSpent"`
}

// Results assembles the report of a session for its owner or an admin.
func (s *QuizService) Results(ctx context.Context, p domain.Principal, sessionID string) (Report, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return Report{}, err
	}
	if session.UserID != p.UserID && !p.IsAdmin() {
		return Report{}, domain.ErrForbidden
	}
	return s.buildReport(ctx, session)
}

func (s *QuizService) buildReport(ctx context.Context, session domain.Session) (Report, error) {
	answers, err := s.store.ListAnswersBySession(ctx, session.SessionID)
	if err != nil {
		return Report{}, err
	}
	byQuestion := make(map[string]domain.Answer, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a
	}

	report := Report{
		SessionID:         session.SessionID,
		UserID:            session.UserID,
		Status:            ReportCompleted,
		SessionStatus:     session.Status,
		Mode:              session.Mode,
		TotalQuestions:    session.TotalQuestions,
		AnsweredQuestions: session.AnsweredCount,
		Score: Score{
			Earned:     session.CurrentScore,
			Max:        session.MaxScore,
			Percentage: Percentage(session.CurrentScore, session.MaxScore),
		},
		Answers:     make([]AnswerDetail, 0, len(answers)),
		CreatedAt:   session.CreatedAt,
		CompletedAt: session.CompletedAt,
	}
	if session.CompletedAt != nil {
		spent := int64(session.CompletedAt.Sub(session.CreatedAt) / time.Second)
		report.TimeSpent = &spent
	}

	for _, qid := range session.QuestionIDs {
		answer, ok := byQuestion[qid]
		if !ok {
			continue
		}
		if answer.Status == domain.AnswerPending {
			report.Status = ReportPartial
		}
		question, err := s.store.GetQuestion(ctx, qid)
		if err != nil {
			return Report{}, fmt.Errorf("report question %s: %w", qid, err)
		}
		report.Answers = append(report.Answers, detailOf(answer, question))
	}
	return report, nil
}

func detailOf(a domain.Answer, q domain.Question) AnswerDetail {
	d := AnswerDetail{
		AnswerID:     a.AnswerID,
		QuestionID:   a.QuestionID,
		Question:     q.Preview(),
		Status:       a.Status,
		PointsEarned: a.PointsEarned,
		MaxPoints:    a.MaxPoints,
		Feedback:     a.Feedback,
	}
	switch a.Kind {
	case domain.TypeMultipleSelect:
		selected := a.SelectedOptions
		if selected == nil {
			selected = []int{}
		}
		d.UserAnswer = selected
		d.CorrectOptions = q.CorrectOptions()
	case domain.TypeEssay:
		d.UserAnswer = a.Text
		d.RubricScores = a.RubricScores
	}
	return d
}

// Percentage returns earned/max as a percentage rounded to one decimal, or 0 when max is 0.
func Percentage(earned, max float64) float64 {
	if max == 0 {
		return 0
	}
	pct := decimal.NewFromFloat(earned).Div(decimal.NewFromFloat(max)).Mul(decimal.NewFromInt(100))
	return pct.Round(1).InexactFloat64()
}
