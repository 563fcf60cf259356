package app

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"quiz-session-service/internal/domain"
)

// Settings tunes session creation.
type Settings struct {
	DefaultQuestionCount int
	MaxQuestionCount     int
	// BattleDuration bounds battle sessions when the mode carries no duration of its own.
	BattleDuration time.Duration
}

// DefaultSettings mirrors the defaults of the configuration file.
func DefaultSettings() Settings {
	return Settings{
		DefaultQuestionCount: 10,
		MaxQuestionCount:     100,
		BattleDuration:       90 * time.Minute,
	}
}

// QuizService contains the core quiz use cases.
type QuizService struct {
	store     Store
	locks     Locker
	hub       *ProgressHub
	publisher EventPublisher
	settings  Settings

	now   func() time.Time
	newID func(prefix string) string

	rndMu sync.Mutex
	rnd   *rand.Rand
}

// Option customizes a QuizService.
type Option func(*QuizService)

// WithSettings overrides DefaultSettings.
func WithSettings(s Settings) Option { return func(q *QuizService) { q.settings = s } }

// WithClock is used by tests for deterministic timestamps.
func WithClock(now func() time.Time) Option { return func(q *QuizService) { q.now = now } }

// WithRand fixes the question shuffle source.
func WithRand(r *rand.Rand) Option { return func(q *QuizService) { q.rnd = r } }

// WithIDGenerator replaces the uuid based id generator.
func WithIDGenerator(f func(prefix string) string) Option { return func(q *QuizService) { q.newID = f } }

// WithPublisher forwards progress events to an external sink besides local subscribers.
func WithPublisher(p EventPublisher) Option { return func(q *QuizService) { q.publisher = p } }

func NewQuizService(store Store, locks Locker, opts ...Option) *QuizService {
	s := &QuizService{
		store:    store,
		locks:    locks,
		hub:      NewProgressHub(),
		settings: DefaultSettings(),
		now:      time.Now,
		newID:    func(prefix string) string { return prefix + "_" + uuid.NewString() },
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe returns a channel receiving progress updates of one session, starting with a snapshot.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *QuizService) Subscribe(ctx context.Context, p domain.Principal, sessionID string) (<-chan domain.SessionProgress, func(), error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if session.UserID != p.UserID && !p.IsAdmin() {
		return nil, nil, domain.ErrForbidden
	}
	ch, cancel := s.hub.Subscribe(sessionID, domain.ProgressOf(session, domain.EventSnapshot, s.now()))
	return ch, cancel, nil
}

func (s *QuizService) publish(ctx context.Context, progress domain.SessionProgress) {
	s.hub.Publish(progress)
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, progress); err != nil {
		log.Printf("publish %s event for session %s: %v", progress.Event, progress.SessionID, err)
	}
}

func (s *QuizService) shuffle(questions []domain.Question) {
	s.rndMu.Lock()
	defer s.rndMu.Unlock()
	s.rnd.Shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})
}

func requireAdmin(p domain.Principal) error {
	if !p.IsAdmin() {
		return domain.ErrAdminRequired
	}
	return nil
}
