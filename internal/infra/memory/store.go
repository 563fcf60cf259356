package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"quiz-session-service/internal/domain"
)

// Store is an in-memory implementation of app.Store, indexed by id per collection.
// Records are copied on the way in and out so callers never share slices with the store.
type Store struct {
	mu sync.RWMutex

	users      map[string]domain.User
	userOrder  []string
	categories []domain.Category
	questions  map[string]domain.Question
	qOrder     []string
	sessions   map[string]domain.Session
	sessOrder  []string
	answers    map[string]domain.Answer
	ansOrder   []string
	answered   map[answerKey]string
	settings   map[string]domain.DifficultySettings
	mode       domain.ModeState

	// persist, when set, is called with the full document after every write.
	persist func(Document) error
}

type answerKey struct {
	sessionID  string
	questionID string
}

func NewStore() *Store {
	return NewStoreFromDocument(Document{Mode: domain.ModeState{Mode: domain.ModeGame}})
}

// NewStoreFromDocument builds a store holding the records of doc.
func NewStoreFromDocument(doc Document) *Store {
	s := &Store{
		users:     make(map[string]domain.User),
		questions: make(map[string]domain.Question),
		sessions:  make(map[string]domain.Session),
		answers:   make(map[string]domain.Answer),
		answered:  make(map[answerKey]string),
		settings:  make(map[string]domain.DifficultySettings),
		mode:      cloneMode(doc.Mode),
	}
	if s.mode.Mode == "" {
		s.mode.Mode = domain.ModeGame
	}
	for _, u := range doc.Users {
		s.putUserLocked(u)
	}
	s.categories = append(s.categories, doc.Categories...)
	for _, q := range doc.Questions {
		if _, ok := s.questions[q.ID]; !ok {
			s.qOrder = append(s.qOrder, q.ID)
		}
		s.questions[q.ID] = cloneQuestion(q)
	}
	for _, sess := range doc.Sessions {
		if _, ok := s.sessions[sess.SessionID]; !ok {
			s.sessOrder = append(s.sessOrder, sess.SessionID)
		}
		s.sessions[sess.SessionID] = cloneSession(sess)
	}
	for _, a := range doc.Answers {
		if _, ok := s.answers[a.AnswerID]; !ok {
			s.ansOrder = append(s.ansOrder, a.AnswerID)
		}
		s.answers[a.AnswerID] = cloneAnswer(a)
		s.answered[answerKey{a.SessionID, a.QuestionID}] = a.AnswerID
	}
	for _, st := range doc.UserDifficultySettings {
		s.settings[st.UserID] = cloneSettings(st)
	}
	return s
}

// SetPersister installs a hook receiving the full document after every write.
func (s *Store) SetPersister(persist func(Document) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persist = persist
}

// Document snapshots every collection.
func (s *Store) Document() Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.documentLocked()
}

func (s *Store) documentLocked() Document {
	doc := Document{
		Users:                  make([]domain.User, 0, len(s.userOrder)),
		Categories:             append([]domain.Category{}, s.categories...),
		Questions:              make([]domain.Question, 0, len(s.qOrder)),
		Sessions:               make([]domain.Session, 0, len(s.sessOrder)),
		Answers:                make([]domain.Answer, 0, len(s.ansOrder)),
		UserDifficultySettings: make([]domain.DifficultySettings, 0, len(s.settings)),
		Mode:                   cloneMode(s.mode),
	}
	for _, id := range s.userOrder {
		doc.Users = append(doc.Users, s.users[id])
	}
	for _, id := range s.qOrder {
		doc.Questions = append(doc.Questions, cloneQuestion(s.questions[id]))
	}
	for _, id := range s.sessOrder {
		doc.Sessions = append(doc.Sessions, cloneSession(s.sessions[id]))
	}
	for _, id := range s.ansOrder {
		doc.Answers = append(doc.Answers, cloneAnswer(s.answers[id]))
	}
	for _, st := range s.settings {
		doc.UserDifficultySettings = append(doc.UserDifficultySettings, cloneSettings(st))
	}
	sort.Slice(doc.UserDifficultySettings, func(i, j int) bool {
		return doc.UserDifficultySettings[i].UserID < doc.UserDifficultySettings[j].UserID
	})
	return doc
}

// commitLocked runs the persistence hook; callers hold the write lock.
// When the hook fails, undo restores the records the caller replaced so memory
// never holds state the document does not.
func (s *Store) commitLocked(undo func()) error {
	if s.persist == nil {
		return nil
	}
	if err := s.persist(s.documentLocked()); err != nil {
		undo()
		return fmt.Errorf("persist document: %w", err)
	}
	return nil
}

// PutUser inserts or replaces a user.
func (s *Store) PutUser(_ context.Context, u domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, existed := s.users[u.ID]
	orderLen := len(s.userOrder)
	s.putUserLocked(u)
	return s.commitLocked(func() {
		if existed {
			s.users[u.ID] = prev
			return
		}
		delete(s.users, u.ID)
		s.userOrder = s.userOrder[:orderLen]
	})
}

func (s *Store) putUserLocked(u domain.User) {
	if _, ok := s.users[u.ID]; !ok {
		s.userOrder = append(s.userOrder, u.ID)
	}
	s.users[u.ID] = u
}

func (s *Store) GetUser(_ context.Context, id string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return u, nil
}

func (s *Store) ListUsers(_ context.Context, role domain.Role) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.User, 0, len(s.userOrder))
	for _, id := range s.userOrder {
		u := s.users[id]
		if role == "" || u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *Store) GetDifficultySettings(_ context.Context, userID string) (domain.DifficultySettings, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.settings[userID]
	return cloneSettings(st), ok, nil
}

func (s *Store) PutDifficultySettings(_ context.Context, st domain.DifficultySettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, existed := s.settings[st.UserID]
	s.settings[st.UserID] = cloneSettings(st)
	return s.commitLocked(func() {
		if existed {
			s.settings[st.UserID] = prev
			return
		}
		delete(s.settings, st.UserID)
	})
}

func (s *Store) GetMode(_ context.Context) (domain.ModeState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneMode(s.mode), nil
}

func (s *Store) SetMode(_ context.Context, m domain.ModeState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.mode
	s.mode = cloneMode(m)
	return s.commitLocked(func() { s.mode = prev })
}

func (s *Store) ListCategories(_ context.Context) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Category{}, s.categories...), nil
}

func (s *Store) CreateCategory(_ context.Context, c domain.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.categories)
	s.categories = append(s.categories, c)
	return s.commitLocked(func() { s.categories = s.categories[:n] })
}

func (s *Store) ListQuestions(_ context.Context, filter domain.QuestionFilter) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Question, 0, len(s.qOrder))
	for _, id := range s.qOrder {
		q := s.questions[id]
		if filter.Matches(q) {
			out = append(out, cloneQuestion(q))
		}
	}
	return out, nil
}

func (s *Store) GetQuestion(_ context.Context, id string) (domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.questions[id]
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return cloneQuestion(q), nil
}

func (s *Store) CreateQuestion(_ context.Context, q domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questions[q.ID]; ok {
		return fmt.Errorf("question %s already exists", q.ID)
	}
	orderLen := len(s.qOrder)
	s.questions[q.ID] = cloneQuestion(q)
	s.qOrder = append(s.qOrder, q.ID)
	bumped := -1
	for i := range s.categories {
		if s.categories[i].ID == q.CategoryID {
			s.categories[i].QuestionCount++
			bumped = i
			break
		}
	}
	return s.commitLocked(func() {
		delete(s.questions, q.ID)
		s.qOrder = s.qOrder[:orderLen]
		if bumped >= 0 {
			s.categories[bumped].QuestionCount--
		}
	})
}

func (s *Store) CreateSession(_ context.Context, sess domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.SessionID]; ok {
		return fmt.Errorf("session %s already exists", sess.SessionID)
	}
	orderLen := len(s.sessOrder)
	s.sessions[sess.SessionID] = cloneSession(sess)
	s.sessOrder = append(s.sessOrder, sess.SessionID)
	return s.commitLocked(func() {
		delete(s.sessions, sess.SessionID)
		s.sessOrder = s.sessOrder[:orderLen]
	})
}

func (s *Store) GetSession(_ context.Context, id string) (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return cloneSession(sess), nil
}

func (s *Store) UpdateSession(_ context.Context, sess domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.sessions[sess.SessionID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	s.sessions[sess.SessionID] = cloneSession(sess)
	return s.commitLocked(func() { s.sessions[sess.SessionID] = prev })
}

func (s *Store) ListSessionsByUser(_ context.Context, userID string) ([]domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Session
	for _, id := range s.sessOrder {
		if sess := s.sessions[id]; sess.UserID == userID {
			out = append(out, cloneSession(sess))
		}
	}
	return out, nil
}

func (s *Store) RecordAnswer(_ context.Context, a domain.Answer, sess domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prevSession, ok := s.sessions[sess.SessionID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	key := answerKey{a.SessionID, a.QuestionID}
	if _, ok := s.answered[key]; ok {
		return domain.ErrAlreadyAnswered
	}
	orderLen := len(s.ansOrder)
	s.answers[a.AnswerID] = cloneAnswer(a)
	s.ansOrder = append(s.ansOrder, a.AnswerID)
	s.answered[key] = a.AnswerID
	s.sessions[sess.SessionID] = cloneSession(sess)
	return s.commitLocked(func() {
		delete(s.answers, a.AnswerID)
		delete(s.answered, key)
		s.ansOrder = s.ansOrder[:orderLen]
		s.sessions[sess.SessionID] = prevSession
	})
}

func (s *Store) RecordGrade(_ context.Context, a domain.Answer, sess domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.answers[a.AnswerID]
	if !ok {
		return domain.ErrAnswerNotFound
	}
	if current.Status != domain.AnswerPending {
		return domain.ErrAlreadyGraded
	}
	prevSession, ok := s.sessions[sess.SessionID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	s.answers[a.AnswerID] = cloneAnswer(a)
	s.sessions[sess.SessionID] = cloneSession(sess)
	return s.commitLocked(func() {
		s.answers[a.AnswerID] = current
		s.sessions[sess.SessionID] = prevSession
	})
}

func (s *Store) GetAnswer(_ context.Context, id string) (domain.Answer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.answers[id]
	if !ok {
		return domain.Answer{}, domain.ErrAnswerNotFound
	}
	return cloneAnswer(a), nil
}

func (s *Store) ListAnswersBySession(_ context.Context, sessionID string) ([]domain.Answer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Answer
	for _, id := range s.ansOrder {
		if a := s.answers[id]; a.SessionID == sessionID {
			out = append(out, cloneAnswer(a))
		}
	}
	return out, nil
}

func (s *Store) ListAnswersByStatus(_ context.Context, status domain.AnswerStatus) ([]domain.Answer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Answer
	for _, id := range s.ansOrder {
		if a := s.answers[id]; a.Status == status {
			out = append(out, cloneAnswer(a))
		}
	}
	return out, nil
}

func cloneQuestion(q domain.Question) domain.Question {
	if q.MultiSelect != nil {
		ms := *q.MultiSelect
		ms.Options = append([]domain.Option(nil), ms.Options...)
		q.MultiSelect = &ms
	}
	if q.Essay != nil {
		e := *q.Essay
		e.Rubric = append([]domain.Criterion(nil), e.Rubric...)
		q.Essay = &e
	}
	return q
}

func cloneSession(s domain.Session) domain.Session {
	s.QuestionIDs = append([]string(nil), s.QuestionIDs...)
	s.CompletedAt = cloneTime(s.CompletedAt)
	s.ExpiresAt = cloneTime(s.ExpiresAt)
	return s
}

func cloneAnswer(a domain.Answer) domain.Answer {
	if a.SelectedOptions != nil {
		a.SelectedOptions = append([]int{}, a.SelectedOptions...)
	}
	if a.RubricScores != nil {
		a.RubricScores = append([]domain.RubricScore{}, a.RubricScores...)
	}
	a.GradedAt = cloneTime(a.GradedAt)
	return a
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func cloneSettings(st domain.DifficultySettings) domain.DifficultySettings {
	if st.CategoryIDs != nil {
		st.CategoryIDs = append([]string{}, st.CategoryIDs...)
	}
	return st
}

func cloneMode(m domain.ModeState) domain.ModeState {
	if m.BattleConfig != nil {
		bc := *m.BattleConfig
		m.BattleConfig = &bc
	}
	return m
}
