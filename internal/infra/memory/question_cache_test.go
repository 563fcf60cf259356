package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"quiz-session-service/internal/domain"
)

func TestQuestionCacheCaches(t *testing.T) {
	store := NewStore()
	_ = store.CreateQuestion(context.Background(), sampleQuestion("q1"))
	loader := &countingLoader{QuestionLoader: store}
	cache := NewQuestionCache(loader, time.Minute)

	if _, err := cache.GetQuestion(context.Background(), "q1"); err != nil {
		t.Fatalf("get question: %v", err)
	}
	if loader.count() != 1 {
		t.Fatalf("expected loader once, got %d", loader.count())
	}
	if _, err := cache.GetQuestion(context.Background(), "q1"); err != nil {
		t.Fatalf("get question 2: %v", err)
	}
	if loader.count() != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.count())
	}
}

func TestQuestionCacheExpires(t *testing.T) {
	store := NewStore()
	_ = store.CreateQuestion(context.Background(), sampleQuestion("q1"))
	loader := &countingLoader{QuestionLoader: store}
	cache := NewQuestionCache(loader, time.Minute)
	now := time.Now()
	cache.clock = func() time.Time { return now }

	_, _ = cache.GetQuestion(context.Background(), "q1")
	now = now.Add(2 * time.Minute)
	_, _ = cache.GetQuestion(context.Background(), "q1")
	if loader.count() != 2 {
		t.Fatalf("expected reload after expiry, loader calls %d", loader.count())
	}
}

func TestQuestionCacheDoesNotCacheMisses(t *testing.T) {
	loader := &countingLoader{QuestionLoader: NewStore()}
	cache := NewQuestionCache(loader, time.Minute)
	for i := 0; i < 2; i++ {
		if _, err := cache.GetQuestion(context.Background(), "nope"); !errors.Is(err, domain.ErrQuestionNotFound) {
			t.Fatalf("expected ErrQuestionNotFound, got %v", err)
		}
	}
	if loader.count() != 2 {
		t.Fatalf("expected misses to reach the loader, calls %d", loader.count())
	}
}

type countingLoader struct {
	QuestionLoader
	mu    sync.Mutex
	calls int
}

func (l *countingLoader) GetQuestion(ctx context.Context, id string) (domain.Question, error) {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
	return l.QuestionLoader.GetQuestion(ctx, id)
}

func (l *countingLoader) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}
