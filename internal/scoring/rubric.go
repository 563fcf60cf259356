package scoring

import (
	"fmt"

	"quiz-session-service/internal/domain"
)

// TotalRubric checks scores against the rubric and returns their sum together with
// the scores normalized to carry each criterion's name and maximum.
// Scores are matched to criteria by position and must cover the whole rubric.
func TotalRubric(rubric []domain.Criterion, scores []domain.RubricScore) (float64, []domain.RubricScore, error) {
	if len(scores) != len(rubric) {
		return 0, nil, fmt.Errorf("%w: expected %d rubric scores, got %d", domain.ErrInvalidGrade, len(rubric), len(scores))
	}
	total := 0.0
	out := make([]domain.RubricScore, len(scores))
	for i, c := range rubric {
		s := scores[i]
		if s.Criterion != "" && s.Criterion != c.Name {
			return 0, nil, fmt.Errorf("%w: score %d is for %q, expected %q", domain.ErrInvalidGrade, i, s.Criterion, c.Name)
		}
		if s.EarnedPoints < 0 || s.EarnedPoints > c.MaxPoints {
			return 0, nil, fmt.Errorf("%w: %q must be between 0 and %g", domain.ErrInvalidGrade, c.Name, c.MaxPoints)
		}
		total += s.EarnedPoints
		out[i] = domain.RubricScore{
			Criterion:    c.Name,
			EarnedPoints: s.EarnedPoints,
			MaxPoints:    c.MaxPoints,
			Comment:      s.Comment,
		}
	}
	return total, out, nil
}

// EssayStatus maps a rubric total onto an answer status.
// Essays resolve to partial or incorrect only; a full score is still partial.
func EssayStatus(total float64) domain.AnswerStatus {
	if total > 0 {
		return domain.AnswerPartial
	}
	return domain.AnswerIncorrect
}
