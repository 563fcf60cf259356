package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quiz-session-service/internal/domain"
)

// QuestionLoader fetches a question from the backing store.
type QuestionLoader interface {
	GetQuestion(ctx context.Context, id string) (domain.Question, error)
}

// QuestionCache keeps questions in process memory with a TTL to avoid repeated store hits.
// Questions never change after creation, so entries are only dropped on expiry.
type QuestionCache struct {
	loader QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedQuestion
}

type cachedQuestion struct {
	question  domain.Question
	expiresAt time.Time
}

func NewQuestionCache(loader QuestionLoader, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedQuestion),
	}
}

func (c *QuestionCache) GetQuestion(ctx context.Context, id string) (domain.Question, error) {
	if q, ok := c.lookup(id); ok {
		return cloneQuestion(q), nil
	}

	result, err, _ := c.sf.Do(id, func() (interface{}, error) {
		if q, ok := c.lookup(id); ok {
			return q, nil
		}
		q, err := c.loader.GetQuestion(ctx, id)
		if err != nil {
			return domain.Question{}, err
		}
		c.mu.Lock()
		c.cache[id] = cachedQuestion{question: q, expiresAt: c.clock().Add(c.ttlWithJitter())}
		c.mu.Unlock()
		return q, nil
	})
	if err != nil {
		return domain.Question{}, err
	}
	return cloneQuestion(result.(domain.Question)), nil
}

func (c *QuestionCache) lookup(id string) (domain.Question, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[id]
	if !ok || !entry.expiresAt.After(c.clock()) {
		return domain.Question{}, false
	}
	return entry.question, true
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter spreads expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
