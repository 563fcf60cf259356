package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"quiz-session-service/internal/app"
	"quiz-session-service/internal/domain"
	"quiz-session-service/internal/infra/memory"
	pgstore "quiz-session-service/internal/infra/postgres"
	pgmigrations "quiz-session-service/internal/infra/postgres/migrations"
	infraredis "quiz-session-service/internal/infra/redis"
)

func TestSessionLifecycleEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	migrateDB(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	store := pgstore.NewStore(pool)
	if err := store.Import(ctx, sampleDocument()); err != nil {
		t.Fatalf("import: %v", err)
	}

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	cached := app.WithQuestionCache(store, infraredis.NewQuestionCache(redisClient, store, 5*time.Minute))
	service := app.NewQuizService(cached, infraredis.NewLocker(redisClient, 5*time.Second))

	student := domain.Principal{UserID: "u1", Role: domain.RoleStudent}
	admin := domain.Principal{UserID: "admin", Role: domain.RoleAdmin}

	view, err := service.CreateSession(ctx, student, app.CreateSessionRequest{CategoryIDs: []string{"cat_1"}, QuestionCount: 2})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if view.TotalQuestions != 2 || view.MaxScore != 20 {
		t.Fatalf("unexpected session %+v", view.Session)
	}

	scored, err := service.SubmitAnswer(ctx, student, view.SessionID, app.AnswerPayload{QuestionID: "q_multi", SelectedOptions: []int{0, 1}})
	if err != nil {
		t.Fatalf("submit multi: %v", err)
	}
	if scored.Scored == nil || scored.Scored.PointsEarned != 10 || scored.Scored.Status != domain.AnswerCorrect {
		t.Fatalf("unexpected multi outcome %+v", scored.Scored)
	}
	if _, err := service.SubmitAnswer(ctx, student, view.SessionID, app.AnswerPayload{QuestionID: "q_multi", SelectedOptions: []int{0}}); err == nil {
		t.Fatalf("expected duplicate answer to fail")
	}

	pending, err := service.SubmitAnswer(ctx, student, view.SessionID, app.AnswerPayload{QuestionID: "q_essay", Text: "Goroutines are cheap threads."})
	if err != nil {
		t.Fatalf("submit essay: %v", err)
	}
	if pending.Pending == nil {
		t.Fatalf("expected pending essay")
	}

	report, err := service.SubmitSession(ctx, student, view.SessionID)
	if err != nil {
		t.Fatalf("submit session: %v", err)
	}
	if report.Status != app.ReportPartial || report.Score.Earned != 10 {
		t.Fatalf("unexpected report before grading %+v", report)
	}

	graded, err := service.GradeAnswer(ctx, admin, pending.Pending.AnswerID, app.GradeRequest{
		RubricScores: []domain.RubricScore{
			{Criterion: "Content", EarnedPoints: 5},
			{Criterion: "Style", EarnedPoints: 3},
		},
	})
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if graded.PointsEarned != 8 || graded.Status != domain.AnswerPartial {
		t.Fatalf("unexpected grade %+v", graded)
	}

	final, err := service.Results(ctx, student, view.SessionID)
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	if final.Status != app.ReportCompleted || final.Score.Earned != 18 || final.Score.Percentage != 90 {
		t.Fatalf("unexpected final report %+v", final.Score)
	}

	keys, err := redisClient.Keys(ctx, "quiz:question:*").Result()
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if len(keys) == 0 {
		t.Fatalf("expected questions to be cached in redis")
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func migrateDB(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func sampleDocument() memory.Document {
	created := time.Date(2024, 11, 22, 9, 0, 0, 0, time.UTC)
	return memory.Document{
		Users: []domain.User{
			{ID: "u1", Username: "alice", Name: "Alice", Role: domain.RoleStudent, CreatedAt: created},
			{ID: "admin", Username: "root", Name: "Admin", Role: domain.RoleAdmin, CreatedAt: created},
		},
		Categories: []domain.Category{{ID: "cat_1", Name: "General", QuestionCount: 2}},
		Questions: []domain.Question{
			{
				ID: "q_multi", Type: domain.TypeMultipleSelect, Question: "Pick the even numbers",
				Difficulty: domain.DifficultyEasy, CategoryID: "cat_1", MaxPoints: 10,
				CreatedAt: created, UpdatedAt: created,
				MultiSelect: &domain.MultiSelect{
					Options: []domain.Option{
						{Text: "2", IsCorrect: true, Points: 5},
						{Text: "4", IsCorrect: true, Points: 5},
						{Text: "5"},
					},
					PenaltyPerWrong: 2,
				},
			},
			{
				ID: "q_essay", Type: domain.TypeEssay, Question: "Describe goroutines",
				Difficulty: domain.DifficultyMedium, CategoryID: "cat_1", MaxPoints: 10,
				CreatedAt: created, UpdatedAt: created,
				Essay: &domain.Essay{
					MinLength: 10, MaxLength: 500,
					Rubric: []domain.Criterion{{Name: "Content", MaxPoints: 6}, {Name: "Style", MaxPoints: 4}},
				},
			},
		},
		Mode: domain.ModeState{Mode: domain.ModeGame},
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
