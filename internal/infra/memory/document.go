package memory

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"quiz-session-service/internal/domain"
)

// Document is the flat JSON layout of the whole dataset, one collection per key.
type Document struct {
	Users                  []domain.User               `json:"users"`
	Categories             []domain.Category           `json:"categories"`
	Questions              []domain.Question           `json:"questions"`
	Sessions               []domain.Session            `json:"sessions"`
	Answers                []domain.Answer             `json:"answers"`
	UserDifficultySettings []domain.DifficultySettings `json:"userDifficultySettings"`
	Mode                   domain.ModeState            `json:"mode"`
}

// DecodeDocument reads a document and validates its questions.
func DecodeDocument(r io.Reader) (Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("decode document: %w", err)
	}
	for i := range doc.Questions {
		q := &doc.Questions[i]
		if err := q.Validate(); err != nil {
			return Document{}, fmt.Errorf("question %s: %w", q.ID, err)
		}
		if q.MaxPoints == 0 {
			q.ComputeMaxPoints()
		}
	}
	if doc.Mode.Mode == "" {
		doc.Mode.Mode = domain.ModeGame
	}
	return doc, nil
}

// LoadDocument reads a document from path.
func LoadDocument(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, err
	}
	defer f.Close()
	return DecodeDocument(f)
}
