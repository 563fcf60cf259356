package memory

import (
	"errors"
	"strings"
	"testing"

	"quiz-session-service/internal/domain"
)

const sampleDocument = `{
  "users": [{"id": "user_1", "username": "student1", "name": "Student", "role": "student"}],
  "categories": [{"id": "cat_1", "name": "Go", "questionCount": 1}],
  "questions": [{
    "id": "q_1", "type": "essay", "question": "Explain channels.", "difficulty": "medium",
    "categoryId": "cat_1", "minLength": 10, "maxLength": 500,
    "rubric": [{"name": "Accuracy", "maxPoints": 6}, {"name": "Clarity", "maxPoints": 4}]
  }],
  "sessions": [], "answers": [], "userDifficultySettings": []
}`

func TestDecodeDocumentComputesMaxPoints(t *testing.T) {
	doc, err := DecodeDocument(strings.NewReader(sampleDocument))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(doc.Questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(doc.Questions))
	}
	q := doc.Questions[0]
	if q.Essay == nil || q.MaxPoints != 10 {
		t.Fatalf("expected essay with 10 max points, got %+v", q)
	}
	if doc.Mode.Mode != domain.ModeGame {
		t.Fatalf("expected game mode default, got %q", doc.Mode.Mode)
	}
}

func TestDecodeDocumentRejectsBadQuestion(t *testing.T) {
	bad := `{"questions": [{"id": "q", "type": "essay", "question": "x", "difficulty": "easy"}]}`
	_, err := DecodeDocument(strings.NewReader(bad))
	if !errors.Is(err, domain.ErrInvalidQuestion) {
		t.Fatalf("expected ErrInvalidQuestion, got %v", err)
	}
}
