package app_test

import (
	"context"
	"testing"
	"time"

	"quiz-session-service/internal/app"
	"quiz-session-service/internal/domain"
	"quiz-session-service/internal/infra/memory"
)

type countingStore struct {
	*memory.Store
	gets int
}

func (s *countingStore) GetQuestion(ctx context.Context, id string) (domain.Question, error) {
	s.gets++
	return s.Store.GetQuestion(ctx, id)
}

func TestQuestionCacheServesSessionReads(t *testing.T) {
	base := &countingStore{Store: memory.NewStoreFromDocument(memory.Document{
		Questions: []domain.Question{multiQuestion("q1", "cat_1", domain.DifficultyEasy)},
		Mode:      domain.ModeState{Mode: domain.ModeGame},
	})}
	store := app.WithQuestionCache(base, memory.NewQuestionCache(base, time.Minute))
	service := app.NewQuizService(store, memory.NewKeyedLocker())
	ctx := context.Background()

	view, err := service.CreateSession(ctx, student, app.CreateSessionRequest{})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := service.GetSession(ctx, student, view.SessionID); err != nil {
			t.Fatalf("get session: %v", err)
		}
	}
	if base.gets != 1 {
		t.Fatalf("expected one store read through the cache, got %d", base.gets)
	}
	if app.WithQuestionCache(base, nil) != app.Store(base) {
		t.Fatalf("nil cache must return the store unchanged")
	}
}
