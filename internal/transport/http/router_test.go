package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"quiz-session-service/internal/app"
	"quiz-session-service/internal/auth"
	"quiz-session-service/internal/domain"
	"quiz-session-service/internal/infra/memory"
)

type testEnv struct {
	server *httptest.Server
	tokens *auth.TokenService
	store  *memory.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStoreFromDocument(seedDocument())
	service := app.NewQuizService(store, memory.NewKeyedLocker())
	tokens := auth.NewTokenService("test-secret", "quiz-test", time.Hour)
	server := httptest.NewServer(NewRouter(service, tokens, RouterOptions{}))
	t.Cleanup(server.Close)
	return &testEnv{server: server, tokens: tokens, store: store}
}

func seedDocument() memory.Document {
	multi := domain.Question{
		ID:         "q_multi",
		Type:       domain.TypeMultipleSelect,
		Question:   "Pick the even numbers",
		Difficulty: domain.DifficultyEasy,
		CategoryID: "cat_1",
		MultiSelect: &domain.MultiSelect{
			Options: []domain.Option{
				{Text: "2", IsCorrect: true, Points: 5},
				{Text: "4", IsCorrect: true, Points: 5},
				{Text: "5"},
			},
			PenaltyPerWrong: -2,
		},
	}
	multi.ComputeMaxPoints()
	essay := domain.Question{
		ID:         "q_essay",
		Type:       domain.TypeEssay,
		Question:   "Explain goroutines",
		Difficulty: domain.DifficultyMedium,
		CategoryID: "cat_1",
		Essay: &domain.Essay{
			MinLength: 10,
			MaxLength: 500,
			Rubric: []domain.Criterion{
				{Name: "Accuracy", MaxPoints: 6},
				{Name: "Clarity", MaxPoints: 4},
			},
		},
	}
	essay.ComputeMaxPoints()
	return memory.Document{
		Users: []domain.User{
			{ID: "user_1", Username: "student1", Name: "Student One", Role: domain.RoleStudent},
			{ID: "user_2", Username: "student2", Name: "Student Two", Role: domain.RoleStudent},
			{ID: "admin_1", Username: "admin", Name: "Admin", Role: domain.RoleAdmin},
		},
		Categories: []domain.Category{{ID: "cat_1", Name: "Go", QuestionCount: 2}},
		Questions:  []domain.Question{multi, essay},
		Mode:       domain.ModeState{Mode: domain.ModeGame},
	}
}

func (e *testEnv) token(t *testing.T, userID string) string {
	t.Helper()
	u, err := e.store.GetUser(context.Background(), userID)
	require.NoError(t, err)
	raw, err := e.tokens.Issue(u)
	require.NoError(t, err)
	return raw
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

func TestMockLoginIssuesTokenForFirstStudent(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodGet, "/api/auth/github/callback?code=mock_code", "", nil)
	require.Equal(t, http.StatusOK, status)
	login := decode[loginResponse](t, body)
	require.Equal(t, "user_1", login.User.ID)

	status, body = env.do(t, http.MethodGet, "/api/auth/me", login.Token, nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "student1", decode[domain.User](t, body).Username)
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	student := env.token(t, "user_1")
	admin := env.token(t, "admin_1")

	status, body := env.do(t, http.MethodPost, "/api/sessions", student, app.CreateSessionRequest{QuestionCount: 2})
	require.Equal(t, http.StatusCreated, status, string(body))
	require.NotContains(t, string(body), "isCorrect")
	view := decode[app.SessionView](t, body)
	require.Equal(t, 2, view.TotalQuestions)
	require.Equal(t, 20.0, view.MaxScore)
	sessionPath := "/api/sessions/" + view.SessionID

	status, body = env.do(t, http.MethodPost, sessionPath+"/answers", student, app.AnswerPayload{
		QuestionID: "q_multi", SelectedOptions: []int{0, 2},
	})
	require.Equal(t, http.StatusOK, status, string(body))
	scored := decode[app.ScoredAnswer](t, body)
	require.Equal(t, domain.AnswerPartial, scored.Status)
	require.Equal(t, 3.0, scored.PointsEarned)

	status, _ = env.do(t, http.MethodPost, sessionPath+"/answers", student, app.AnswerPayload{
		QuestionID: "q_multi", SelectedOptions: []int{0, 1},
	})
	require.Equal(t, http.StatusConflict, status)

	status, body = env.do(t, http.MethodPost, sessionPath+"/answers", student, app.AnswerPayload{
		QuestionID: "q_essay", Text: "Goroutines are lightweight threads managed by the Go runtime.",
	})
	require.Equal(t, http.StatusAccepted, status, string(body))
	pending := decode[app.PendingAnswer](t, body)
	require.Equal(t, domain.AnswerPending, pending.Status)

	status, body = env.do(t, http.MethodGet, sessionPath+"/results", student, nil)
	require.Equal(t, http.StatusOK, status)
	report := decode[app.Report](t, body)
	require.Equal(t, app.ReportPartial, report.Status)
	require.Equal(t, 15.0, report.Score.Percentage)

	status, body = env.do(t, http.MethodGet, "/api/admin/answers/pending", admin, nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, 1, decode[pendingResponse](t, body).Total)

	grade := app.GradeRequest{
		RubricScores: []domain.RubricScore{
			{Criterion: "Accuracy", EarnedPoints: 5},
			{Criterion: "Clarity", EarnedPoints: 3},
		},
		GeneralFeedback: "Solid answer",
	}
	status, body = env.do(t, http.MethodPost, "/api/admin/answers/"+pending.AnswerID+"/grade", admin, grade)
	require.Equal(t, http.StatusOK, status, string(body))
	require.Equal(t, 8.0, decode[app.GradedAnswer](t, body).PointsEarned)

	status, _ = env.do(t, http.MethodPost, "/api/admin/answers/"+pending.AnswerID+"/grade", admin, grade)
	require.Equal(t, http.StatusConflict, status)

	status, body = env.do(t, http.MethodPost, sessionPath+"/submit", student, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	report = decode[app.Report](t, body)
	require.Equal(t, app.ReportCompleted, report.Status)
	require.Equal(t, domain.SessionCompleted, report.SessionStatus)
	require.Equal(t, 11.0, report.Score.Earned)
	require.Equal(t, 55.0, report.Score.Percentage)
	require.NotNil(t, report.TimeSpent)

	status, _ = env.do(t, http.MethodPost, sessionPath+"/submit", student, nil)
	require.Equal(t, http.StatusConflict, status)

	other := env.token(t, "user_2")
	status, body = env.do(t, http.MethodGet, sessionPath+"/results", other, nil)
	require.Equal(t, http.StatusForbidden, status)
	require.Equal(t, domain.KindForbidden, decode[errorBody](t, body).Error)

	status, body = env.do(t, http.MethodGet, "/api/admin/users", admin, nil)
	require.Equal(t, http.StatusOK, status)
	users := decode[usersResponse](t, body)
	require.Equal(t, 2, users.Total)
	require.Equal(t, 1, users.Users[0].Stats.CompletedSessions)
	require.Equal(t, 55.0, users.Users[0].Stats.AverageScore)
}

func TestErrorStatuses(t *testing.T) {
	env := newTestEnv(t)
	student := env.token(t, "user_1")
	admin := env.token(t, "admin_1")

	status, body := env.do(t, http.MethodGet, "/api/questions", "", nil)
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, domain.KindUnauthorized, decode[errorBody](t, body).Error)

	status, _ = env.do(t, http.MethodGet, "/api/questions", "garbage", nil)
	require.Equal(t, http.StatusUnauthorized, status)

	status, _ = env.do(t, http.MethodGet, "/api/admin/users", student, nil)
	require.Equal(t, http.StatusForbidden, status)

	status, _ = env.do(t, http.MethodGet, "/api/sessions/sess_missing", student, nil)
	require.Equal(t, http.StatusNotFound, status)

	status, _ = env.do(t, http.MethodPost, "/api/sessions", student, app.CreateSessionRequest{Difficulty: domain.DifficultyHard})
	require.Equal(t, http.StatusBadRequest, status)

	status, _ = env.do(t, http.MethodPost, "/api/categories", student, domain.Category{Name: "History"})
	require.Equal(t, http.StatusForbidden, status)

	status, body = env.do(t, http.MethodGet, "/api/questions", student, nil)
	require.Equal(t, http.StatusOK, status)
	require.NotContains(t, string(body), "isCorrect")
	require.Equal(t, 2, decode[app.QuestionPage](t, body).Total)

	status, _ = env.do(t, http.MethodPut, "/api/mode", admin, domain.ModeState{Mode: domain.ModeBattle})
	require.Equal(t, http.StatusOK, status)
	status, body = env.do(t, http.MethodGet, "/api/questions", student, nil)
	require.Equal(t, http.StatusForbidden, status)
	require.Equal(t, domain.KindForbidden, decode[errorBody](t, body).Error)
}

func TestAdminQuestionCreationBumpsCategory(t *testing.T) {
	env := newTestEnv(t)
	admin := env.token(t, "admin_1")

	payload := map[string]any{
		"type":       "multiple-select",
		"question":   "Which are Go keywords?",
		"difficulty": "hard",
		"categoryId": "cat_1",
		"options": []map[string]any{
			{"text": "defer", "isCorrect": true, "points": 4},
			{"text": "yield", "isCorrect": false, "points": 0},
		},
		"penaltyPerWrong": 1,
		"minScore":        0,
	}
	status, body := env.do(t, http.MethodPost, "/api/admin/questions", admin, payload)
	require.Equal(t, http.StatusCreated, status, string(body))
	created := decode[domain.Question](t, body)
	require.Equal(t, 4.0, created.MaxPoints)
	require.NotEmpty(t, created.ID)

	status, body = env.do(t, http.MethodGet, "/api/admin/questions/"+created.ID, admin, nil)
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, string(body), "isCorrect")

	status, body = env.do(t, http.MethodGet, "/api/categories", "", nil)
	require.Equal(t, http.StatusOK, status)
	categories := decode[map[string][]domain.Category](t, body)["categories"]
	require.Equal(t, 3, categories[0].QuestionCount)
}

func TestDifficultyOverrideShapesBattleSessions(t *testing.T) {
	env := newTestEnv(t)
	admin := env.token(t, "admin_1")
	student := env.token(t, "user_1")

	status, body := env.do(t, http.MethodPut, "/api/admin/users/user_1/difficulty", admin, domain.DifficultySettings{
		Difficulty: domain.DifficultyMedium, QuestionCount: 5,
	})
	require.Equal(t, http.StatusOK, status, string(body))
	require.Equal(t, "admin_1", decode[domain.DifficultySettings](t, body).UpdatedBy)

	status, _ = env.do(t, http.MethodPut, "/api/admin/users/nobody/difficulty", admin, domain.DifficultySettings{})
	require.Equal(t, http.StatusNotFound, status)

	status, _ = env.do(t, http.MethodPut, "/api/mode", admin, domain.ModeState{Mode: domain.ModeBattle})
	require.Equal(t, http.StatusOK, status)

	status, body = env.do(t, http.MethodPost, "/api/sessions", student, app.CreateSessionRequest{Difficulty: domain.DifficultyEasy})
	require.Equal(t, http.StatusCreated, status, string(body))
	view := decode[app.SessionView](t, body)
	require.Equal(t, []string{"q_essay"}, view.QuestionIDs)
	require.Equal(t, domain.ModeBattle, view.Mode)
	require.NotNil(t, view.ExpiresAt)
	require.WithinDuration(t, view.CreatedAt.Add(90*time.Minute), *view.ExpiresAt, time.Second)

	status, body = env.do(t, http.MethodGet, "/api/admin/users/user_1/results", admin, nil)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, decode[app.UserResults](t, body).Sessions, 1)
}

func TestQuestionListPaging(t *testing.T) {
	env := newTestEnv(t)
	student := env.token(t, "user_1")

	status, body := env.do(t, http.MethodGet, "/api/questions?limit=1&offset=1", student, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	page := decode[app.QuestionPage](t, body)
	require.Equal(t, 2, page.Total)
	require.Equal(t, 1, page.Limit)
	require.Equal(t, 1, page.Offset)
	require.Len(t, page.Questions, 1)
	require.Equal(t, "q_essay", page.Questions[0].ID)

	status, body = env.do(t, http.MethodGet, "/api/questions?limit=9223372036854775807&offset=1", student, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	page = decode[app.QuestionPage](t, body)
	require.Equal(t, 2, page.Total)
	require.Len(t, page.Questions, 1)

	status, body = env.do(t, http.MethodGet, "/api/questions?offset=5", student, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	page = decode[app.QuestionPage](t, body)
	require.Empty(t, page.Questions)

	status, _ = env.do(t, http.MethodGet, "/api/questions?limit=-1", student, nil)
	require.Equal(t, http.StatusBadRequest, status)
}
