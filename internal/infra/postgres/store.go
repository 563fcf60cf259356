package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-session-service/internal/domain"
	"quiz-session-service/internal/infra/memory"
)

const uniqueViolation = "23505"

// Store keeps every collection in Postgres. Records live in JSONB columns next to the
// columns used for filtering; seq keeps insertion order stable.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) GetUser(ctx context.Context, id string) (domain.User, error) {
	var u domain.User
	err := s.getJSON(ctx, &u, `SELECT data FROM users WHERE id=$1`, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	return u, err
}

func (s *Store) ListUsers(ctx context.Context, role domain.Role) ([]domain.User, error) {
	rows, err := s.pool.Query(ctx, `SELECT data FROM users WHERE $1 = '' OR role = $1 ORDER BY seq`, string(role))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return collect[domain.User](rows)
}

// PutUser inserts or replaces a user.
func (s *Store) PutUser(ctx context.Context, u domain.User) error {
	raw, err := json.Marshal(u)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `INSERT INTO users (id, role, data) VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (id) DO UPDATE SET role=EXCLUDED.role, data=EXCLUDED.data`, u.ID, string(u.Role), string(raw))
	if err != nil {
		return fmt.Errorf("put user: %w", err)
	}
	return nil
}

func (s *Store) GetDifficultySettings(ctx context.Context, userID string) (domain.DifficultySettings, bool, error) {
	var st domain.DifficultySettings
	err := s.getJSON(ctx, &st, `SELECT data FROM user_difficulty_settings WHERE user_id=$1`, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.DifficultySettings{}, false, nil
	}
	if err != nil {
		return domain.DifficultySettings{}, false, err
	}
	return st, true, nil
}

func (s *Store) PutDifficultySettings(ctx context.Context, st domain.DifficultySettings) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `INSERT INTO user_difficulty_settings (user_id, data) VALUES ($1, $2::jsonb)
		ON CONFLICT (user_id) DO UPDATE SET data=EXCLUDED.data`, st.UserID, string(raw))
	if err != nil {
		return fmt.Errorf("put difficulty settings: %w", err)
	}
	return nil
}

func (s *Store) GetMode(ctx context.Context) (domain.ModeState, error) {
	var m domain.ModeState
	err := s.getJSON(ctx, &m, `SELECT data FROM quiz_mode WHERE id=1`)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ModeState{Mode: domain.ModeGame}, nil
	}
	return m, err
}

func (s *Store) SetMode(ctx context.Context, m domain.ModeState) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `INSERT INTO quiz_mode (id, data) VALUES (1, $1::jsonb)
		ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data`, string(raw))
	if err != nil {
		return fmt.Errorf("set mode: %w", err)
	}
	return nil
}

func (s *Store) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, description, question_count FROM categories ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()
	var out []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.QuestionCount); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) CreateCategory(ctx context.Context, c domain.Category) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO categories (id, name, description, question_count) VALUES ($1, $2, $3, $4)`,
		c.ID, c.Name, c.Description, c.QuestionCount)
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

func (s *Store) ListQuestions(ctx context.Context, f domain.QuestionFilter) ([]domain.Question, error) {
	rows, err := s.pool.Query(ctx, `SELECT data FROM questions
		WHERE ($1 = '' OR category_id = $1)
		  AND (cardinality($2::text[]) = 0 OR category_id = ANY($2::text[]))
		  AND ($3 = '' OR difficulty = $3)
		  AND ($4 = '' OR type = $4)
		ORDER BY seq`, f.CategoryID, nonNil(f.CategoryIDs), string(f.Difficulty), string(f.Type))
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return collect[domain.Question](rows)
}

func (s *Store) GetQuestion(ctx context.Context, id string) (domain.Question, error) {
	var q domain.Question
	err := s.getJSON(ctx, &q, `SELECT data FROM questions WHERE id=$1`, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	if err != nil {
		return domain.Question{}, fmt.Errorf("load question: %w", err)
	}
	return q, nil
}

func (s *Store) CreateQuestion(ctx context.Context, q domain.Question) error {
	raw, err := json.Marshal(q)
	if err != nil {
		return err
	}
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `INSERT INTO questions (id, category_id, difficulty, type, data) VALUES ($1, $2, $3, $4, $5::jsonb)`,
			q.ID, q.CategoryID, string(q.Difficulty), string(q.Type), string(raw)); err != nil {
			return fmt.Errorf("create question: %w", err)
		}
		_, err := tx.Exec(ctx, `UPDATE categories SET question_count = question_count + 1 WHERE id=$1`, q.CategoryID)
		return err
	})
}

func (s *Store) CreateSession(ctx context.Context, sess domain.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `INSERT INTO sessions (id, user_id, status, data) VALUES ($1, $2, $3, $4::jsonb)`,
		sess.SessionID, sess.UserID, string(sess.Status), string(raw))
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, id string) (domain.Session, error) {
	var sess domain.Session
	err := s.getJSON(ctx, &sess, `SELECT data FROM sessions WHERE id=$1`, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return sess, err
}

func (s *Store) UpdateSession(ctx context.Context, sess domain.Session) error {
	return updateSession(ctx, s.pool, sess)
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

func updateSession(ctx context.Context, db execer, sess domain.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	tag, err := db.Exec(ctx, `UPDATE sessions SET status=$2, data=$3::jsonb WHERE id=$1`,
		sess.SessionID, string(sess.Status), string(raw))
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (s *Store) ListSessionsByUser(ctx context.Context, userID string) ([]domain.Session, error) {
	rows, err := s.pool.Query(ctx, `SELECT data FROM sessions WHERE user_id=$1 ORDER BY seq`, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return collect[domain.Session](rows)
}

func (s *Store) RecordAnswer(ctx context.Context, a domain.Answer, sess domain.Session) error {
	raw, err := json.Marshal(a)
	if err != nil {
		return err
	}
	return s.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `INSERT INTO answers (id, session_id, question_id, status, data) VALUES ($1, $2, $3, $4, $5::jsonb)`,
			a.AnswerID, a.SessionID, a.QuestionID, string(a.Status), string(raw))
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return domain.ErrAlreadyAnswered
			}
			return fmt.Errorf("insert answer: %w", err)
		}
		return updateSession(ctx, tx, sess)
	})
}

func (s *Store) RecordGrade(ctx context.Context, a domain.Answer, sess domain.Session) error {
	raw, err := json.Marshal(a)
	if err != nil {
		return err
	}
	return s.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE answers SET status=$2, data=$3::jsonb WHERE id=$1 AND status='pending'`,
			a.AnswerID, string(a.Status), string(raw))
		if err != nil {
			return fmt.Errorf("grade answer: %w", err)
		}
		if tag.RowsAffected() == 0 {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM answers WHERE id=$1)`, a.AnswerID).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return domain.ErrAnswerNotFound
			}
			return domain.ErrAlreadyGraded
		}
		return updateSession(ctx, tx, sess)
	})
}

func (s *Store) GetAnswer(ctx context.Context, id string) (domain.Answer, error) {
	var a domain.Answer
	err := s.getJSON(ctx, &a, `SELECT data FROM answers WHERE id=$1`, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Answer{}, domain.ErrAnswerNotFound
	}
	return a, err
}

func (s *Store) ListAnswersBySession(ctx context.Context, sessionID string) ([]domain.Answer, error) {
	rows, err := s.pool.Query(ctx, `SELECT data FROM answers WHERE session_id=$1 ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	return collect[domain.Answer](rows)
}

func (s *Store) ListAnswersByStatus(ctx context.Context, status domain.AnswerStatus) ([]domain.Answer, error) {
	rows, err := s.pool.Query(ctx, `SELECT data FROM answers WHERE status=$1 ORDER BY seq`, string(status))
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	return collect[domain.Answer](rows)
}

// Import loads a whole document, skipping records whose ids already exist.
func (s *Store) Import(ctx context.Context, doc memory.Document) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		for _, u := range doc.Users {
			if err := insertJSON(ctx, tx, `INSERT INTO users (id, role, data) VALUES ($1, $2, $3::jsonb) ON CONFLICT (id) DO NOTHING`, u, u.ID, string(u.Role)); err != nil {
				return fmt.Errorf("import user %s: %w", u.ID, err)
			}
		}
		for _, c := range doc.Categories {
			if _, err := tx.Exec(ctx, `INSERT INTO categories (id, name, description, question_count) VALUES ($1, $2, $3, $4) ON CONFLICT (id) DO NOTHING`,
				c.ID, c.Name, c.Description, c.QuestionCount); err != nil {
				return fmt.Errorf("import category %s: %w", c.ID, err)
			}
		}
		for _, q := range doc.Questions {
			if err := insertJSON(ctx, tx, `INSERT INTO questions (id, category_id, difficulty, type, data) VALUES ($1, $2, $3, $4, $5::jsonb) ON CONFLICT (id) DO NOTHING`,
				q, q.ID, q.CategoryID, string(q.Difficulty), string(q.Type)); err != nil {
				return fmt.Errorf("import question %s: %w", q.ID, err)
			}
		}
		for _, sess := range doc.Sessions {
			if err := insertJSON(ctx, tx, `INSERT INTO sessions (id, user_id, status, data) VALUES ($1, $2, $3, $4::jsonb) ON CONFLICT (id) DO NOTHING`,
				sess, sess.SessionID, sess.UserID, string(sess.Status)); err != nil {
				return fmt.Errorf("import session %s: %w", sess.SessionID, err)
			}
		}
		for _, a := range doc.Answers {
			if err := insertJSON(ctx, tx, `INSERT INTO answers (id, session_id, question_id, status, data) VALUES ($1, $2, $3, $4, $5::jsonb) ON CONFLICT DO NOTHING`,
				a, a.AnswerID, a.SessionID, a.QuestionID, string(a.Status)); err != nil {
				return fmt.Errorf("import answer %s: %w", a.AnswerID, err)
			}
		}
		for _, st := range doc.UserDifficultySettings {
			if err := insertJSON(ctx, tx, `INSERT INTO user_difficulty_settings (user_id, data) VALUES ($1, $2::jsonb) ON CONFLICT (user_id) DO NOTHING`,
				st, st.UserID); err != nil {
				return fmt.Errorf("import settings %s: %w", st.UserID, err)
			}
		}
		return insertJSON(ctx, tx, `INSERT INTO quiz_mode (id, data) VALUES (1, $1::jsonb) ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data`, doc.Mode)
	})
}

// insertJSON appends the JSON form of record as the last argument of query.
func insertJSON(ctx context.Context, db execer, query string, record interface{}, args ...interface{}) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx, query, append(args, string(raw))...)
	return err
}

func (s *Store) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) getJSON(ctx context.Context, dst interface{}, query string, args ...interface{}) error {
	var raw []byte
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&raw); err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("unmarshal record: %w", err)
	}
	return nil
}

func collect[T any](rows pgx.Rows) ([]T, error) {
	defer rows.Close()
	var out []T
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("unmarshal record: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
