// Package scoring grades answers. Everything here is pure and storage-free.
package scoring

import (
	"fmt"
	"math"

	"quiz-session-service/internal/domain"
)

// Breakdown records the intermediate sums of a multiple-select score.
type Breakdown struct {
	CorrectSelected      int     `json:"correctSelected"`
	IncorrectSelected    int     `json:"incorrectSelected"`
	PointsFromCorrect    float64 `json:"pointsFromCorrect"`
	PenaltyFromIncorrect float64 `json:"penaltyFromIncorrect"`
	TotalBeforeMin       float64 `json:"totalBeforeMin"`
}

// Result is the outcome of scoring one multiple-select answer.
type Result struct {
	PointsEarned   float64             `json:"pointsEarned"`
	Status         domain.AnswerStatus `json:"status"`
	CorrectOptions []int               `json:"correctOptions"`
	Breakdown      Breakdown           `json:"breakdown"`
}

// ValidateSelection rejects indices outside the option list.
func ValidateSelection(q domain.MultiSelect, selected []int) error {
	for _, idx := range selected {
		if idx < 0 || idx >= len(q.Options) {
			return fmt.Errorf("%w: option index %d out of range", domain.ErrInvalidAnswer, idx)
		}
	}
	return nil
}

// ScoreMultiSelect scores the selected option indices against q.
// Duplicate indices count once and out-of-range indices are ignored; call
// ValidateSelection first to reject them instead.
func ScoreMultiSelect(q domain.MultiSelect, selected []int) Result {
	chosen := make(map[int]struct{}, len(selected))
	for _, idx := range selected {
		chosen[idx] = struct{}{}
	}

	var (
		b            Breakdown
		totalCorrect int
		correct      = make([]int, 0, len(q.Options))
	)
	for i, opt := range q.Options {
		_, picked := chosen[i]
		if opt.IsCorrect {
			totalCorrect++
			correct = append(correct, i)
			if picked {
				b.PointsFromCorrect += opt.Points
				b.CorrectSelected++
			}
		} else if picked {
			b.IncorrectSelected++
		}
	}

	b.PenaltyFromIncorrect = float64(b.IncorrectSelected) * -math.Abs(q.PenaltyPerWrong)
	if b.PenaltyFromIncorrect == 0 {
		b.PenaltyFromIncorrect = 0 // normalize -0
	}
	b.TotalBeforeMin = b.PointsFromCorrect + b.PenaltyFromIncorrect

	var status domain.AnswerStatus
	switch {
	case b.CorrectSelected == totalCorrect && b.IncorrectSelected == 0:
		status = domain.AnswerCorrect
	case b.CorrectSelected > 0:
		status = domain.AnswerPartial
	default:
		status = domain.AnswerIncorrect
	}

	return Result{
		PointsEarned:   math.Max(b.TotalBeforeMin, q.MinScore),
		Status:         status,
		CorrectOptions: correct,
		Breakdown:      b,
	}
}
