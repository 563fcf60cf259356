package app

import (
	"context"

	"quiz-session-service/internal/domain"
)

// QuestionGetter resolves single questions, typically through a cache.
type QuestionGetter interface {
	GetQuestion(ctx context.Context, id string) (domain.Question, error)
}

type cachedStore struct {
	Store
	questions QuestionGetter
}

// WithQuestionCache routes GetQuestion of store through cache. Every other call goes to store.
func WithQuestionCache(store Store, cache QuestionGetter) Store {
	if cache == nil {
		return store
	}
	return &cachedStore{Store: store, questions: cache}
}

func (s *cachedStore) GetQuestion(ctx context.Context, id string) (domain.Question, error) {
	return s.questions.GetQuestion(ctx, id)
}
