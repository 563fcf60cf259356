package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quiz-session-service/internal/domain"
)

// QuestionLoader fetches a question from the backing store.
type QuestionLoader interface {
	GetQuestion(ctx context.Context, id string) (domain.Question, error)
}

// QuestionCache keeps questions in Redis as JSON and falls back to a loader on cache miss.
// Questions are stored as: SET quiz:question:{id} {json} EX ttl
type QuestionCache struct {
	client *redis.Client
	loader QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewQuestionCache(client *redis.Client, loader QuestionLoader, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCache) GetQuestion(ctx context.Context, id string) (domain.Question, error) {
	if q, ok := c.cached(ctx, id); ok {
		return q, nil
	}

	result, err, _ := c.sf.Do(id, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if q, ok := c.cached(ctx, id); ok {
			return q, nil
		}
		q, err := c.loader.GetQuestion(ctx, id)
		if err != nil {
			return domain.Question{}, err
		}
		raw, err := json.Marshal(q)
		if err != nil {
			return domain.Question{}, err
		}
		if err := c.client.Set(ctx, questionKey(id), raw, c.ttlWithJitter()).Err(); err != nil {
			log.Printf("cache question %s: %v", id, err)
		}
		return q, nil
	})
	if err != nil {
		return domain.Question{}, err
	}
	return result.(domain.Question), nil
}

// cached treats Redis failures as misses so the loader stays authoritative.
func (c *QuestionCache) cached(ctx context.Context, id string) (domain.Question, bool) {
	raw, err := c.client.Get(ctx, questionKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("read cached question %s: %v", id, err)
		}
		return domain.Question{}, false
	}
	var q domain.Question
	if err := json.Unmarshal(raw, &q); err != nil {
		return domain.Question{}, false
	}
	return q, true
}

func questionKey(id string) string {
	return "quiz:question:" + id
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
