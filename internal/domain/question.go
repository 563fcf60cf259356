package domain

import (
	"fmt"
	"time"
)

// QuestionType tags the body carried by a Question.
type QuestionType string

const (
	TypeMultipleSelect QuestionType = "multiple-select"
	TypeEssay          QuestionType = "essay"
)

// Difficulty grades how hard a question is.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is a known difficulty.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Option is one selectable answer of a multiple-select question.
type Option struct {
	Text      string  `json:"text"`
	IsCorrect bool    `json:"isCorrect"`
	Points    float64 `json:"points"`
}

// MultiSelect is the body of an auto-graded question.
type MultiSelect struct {
	Options []Option `json:"options"`
	// PenaltyPerWrong is subtracted per incorrectly selected option; its sign is ignored.
	PenaltyPerWrong float64 `json:"penaltyPerWrong"`
	MinScore        float64 `json:"minScore"`
}

// Criterion is one line of an essay rubric.
type Criterion struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	MaxPoints   float64 `json:"maxPoints"`
}

// Essay is the body of a manually graded question.
type Essay struct {
	MinLength int         `json:"minLength"`
	MaxLength int         `json:"maxLength"`
	Rubric    []Criterion `json:"rubric"`
}

// Question is a tagged union: Type selects which of the embedded bodies is set.
// The bodies are embedded so the JSON form stays flat.
type Question struct {
	ID         string       `json:"id"`
	Type       QuestionType `json:"type"`
	Question   string       `json:"question"`
	Difficulty Difficulty   `json:"difficulty"`
	CategoryID string       `json:"categoryId"`
	MaxPoints  float64      `json:"maxPoints"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`

	*MultiSelect
	*Essay
}

// Validate checks that the tag matches exactly one populated body.
func (q Question) Validate() error {
	if q.Question == "" {
		return fmt.Errorf("%w: question text is required", ErrInvalidQuestion)
	}
	if !q.Difficulty.Valid() {
		return fmt.Errorf("%w: unknown difficulty %q", ErrInvalidQuestion, q.Difficulty)
	}
	switch q.Type {
	case TypeMultipleSelect:
		if q.MultiSelect == nil || q.Essay != nil {
			return fmt.Errorf("%w: multiple-select question needs options only", ErrInvalidQuestion)
		}
		if len(q.Options) == 0 {
			return fmt.Errorf("%w: multiple-select question has no options", ErrInvalidQuestion)
		}
		correct := 0
		for i, o := range q.Options {
			if o.Points < 0 {
				return fmt.Errorf("%w: option %d has negative points", ErrInvalidQuestion, i)
			}
			if o.IsCorrect {
				correct++
			}
		}
		if correct == 0 {
			return fmt.Errorf("%w: no correct option", ErrInvalidQuestion)
		}
	case TypeEssay:
		if q.Essay == nil || q.MultiSelect != nil {
			return fmt.Errorf("%w: essay question needs a rubric only", ErrInvalidQuestion)
		}
		if len(q.Rubric) == 0 {
			return fmt.Errorf("%w: essay question has no rubric", ErrInvalidQuestion)
		}
		if q.MinLength < 0 || (q.MaxLength > 0 && q.MaxLength < q.MinLength) {
			return fmt.Errorf("%w: bad length bounds", ErrInvalidQuestion)
		}
		for i, c := range q.Rubric {
			if c.MaxPoints < 0 {
				return fmt.Errorf("%w: criterion %d has negative max points", ErrInvalidQuestion, i)
			}
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidQuestion, q.Type)
	}
	return nil
}

// ComputeMaxPoints derives MaxPoints from the body. It is called once, when the question is created.
func (q *Question) ComputeMaxPoints() {
	total := 0.0
	switch {
	case q.Type == TypeMultipleSelect && q.MultiSelect != nil:
		for _, o := range q.Options {
			if o.IsCorrect {
				total += o.Points
			}
		}
	case q.Type == TypeEssay && q.Essay != nil:
		for _, c := range q.Rubric {
			total += c.MaxPoints
		}
	}
	q.MaxPoints = total
}

// CorrectOptions lists the indices of the correct options of a multiple-select question.
func (q Question) CorrectOptions() []int {
	if q.MultiSelect == nil {
		return nil
	}
	out := make([]int, 0, len(q.Options))
	for i, o := range q.Options {
		if o.IsCorrect {
			out = append(out, i)
		}
	}
	return out
}

// QuestionPreview is the projection shown to quiz takers. It never carries correctness data.
type QuestionPreview struct {
	ID         string       `json:"id"`
	Type       QuestionType `json:"type"`
	Question   string       `json:"question"`
	Difficulty Difficulty   `json:"difficulty"`
	CategoryID string       `json:"categoryId"`
	MaxPoints  float64      `json:"maxPoints"`
	Options    []string     `json:"options,omitempty"`
	MinLength  *int         `json:"minLength,omitempty"`
	MaxLength  *int         `json:"maxLength,omitempty"`
}

// Preview strips answer-revealing fields.
func (q Question) Preview() QuestionPreview {
	p := QuestionPreview{
		ID:         q.ID,
		Type:       q.Type,
		Question:   q.Question,
		Difficulty: q.Difficulty,
		CategoryID: q.CategoryID,
		MaxPoints:  q.MaxPoints,
	}
	switch q.Type {
	case TypeMultipleSelect:
		if q.MultiSelect != nil {
			p.Options = make([]string, len(q.Options))
			for i, o := range q.Options {
				p.Options[i] = o.Text
			}
		}
	case TypeEssay:
		if q.Essay != nil {
			minLen, maxLen := q.MinLength, q.MaxLength
			p.MinLength = &minLen
			p.MaxLength = &maxLen
		}
	}
	return p
}

// QuestionFilter narrows question listings. Empty fields match everything.
type QuestionFilter struct {
	CategoryID  string
	CategoryIDs []string
	Difficulty  Difficulty
	Type        QuestionType
}

// Matches reports whether q passes the filter.
func (f QuestionFilter) Matches(q Question) bool {
	if f.CategoryID != "" && q.CategoryID != f.CategoryID {
		return false
	}
	if len(f.CategoryIDs) > 0 {
		found := false
		for _, id := range f.CategoryIDs {
			if id == q.CategoryID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Difficulty != "" && q.Difficulty != f.Difficulty {
		return false
	}
	if f.Type != "" && q.Type != f.Type {
		return false
	}
	return true
}

// Page selects a window of a listing.
type Page struct {
	Limit  int
	Offset int
}

// Apply returns the bounds of the page over n items.
func (p Page) Apply(n int) (start, end int) {
	start = p.Offset
	if start > n {
		start = n
	}
	end = n
	if p.Limit > 0 && p.Limit < n-start {
		end = start + p.Limit
	}
	return start, end
}
