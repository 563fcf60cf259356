package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quiz-session-service/internal/app"
	"quiz-session-service/internal/auth"
	"quiz-session-service/internal/config"
	"quiz-session-service/internal/infra/jsonfile"
	"quiz-session-service/internal/infra/memory"
	pgstore "quiz-session-service/internal/infra/postgres"
	"quiz-session-service/internal/infra/rabbit"
	rediscache "quiz-session-service/internal/infra/redis"
	transport "quiz-session-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// components holds everything the server and the helper commands share.
type components struct {
	service *app.QuizService
	tokens  *auth.TokenService
	close   func()
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if cfg.Storage.Driver == config.DriverPostgres {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	c, err := build(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.close()

	writeTimeout := config.TTLDuration(cfg.Server.WriteTimeout, 15*time.Second)
	handler := transport.NewRouter(c.service, c.tokens, transport.RouterOptions{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestTimeout: writeTimeout,
	})

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler,
		ReadTimeout:  config.TTLDuration(cfg.Server.ReadTimeout, 15*time.Second),
		WriteTimeout: writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("starting quiz service on :%s (storage=%s)", finalPort, cfg.Storage.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.TTLDuration(cfg.Server.ShutdownTimeout, 5*time.Second))
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// build wires the storage driver, the lock and cache backends and the event publisher.
func build(ctx context.Context, cfg config.Config) (*components, error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	closers = append(closers, closeStore)

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		closers = append(closers, func() { _ = redisClient.Close() })
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var locks app.Locker
	switch {
	case redisClient != nil:
		locks = rediscache.NewLocker(redisClient, config.TTLDuration(cfg.Redis.LockTTL, 10*time.Second))
		store = app.WithQuestionCache(store, rediscache.NewQuestionCache(redisClient, store, quizTTL))
	default:
		locks = memory.NewKeyedLocker()
		if cfg.Storage.Driver == config.DriverPostgres {
			store = app.WithQuestionCache(store, memory.NewQuestionCache(store, quizTTL))
		}
	}

	opts := []app.Option{app.WithSettings(app.Settings{
		DefaultQuestionCount: cfg.Quiz.DefaultQuestionCount,
		MaxQuestionCount:     cfg.Quiz.MaxQuestionCount,
		BattleDuration:       config.TTLDuration(cfg.Quiz.BattleDuration, app.DefaultSettings().BattleDuration),
	})}
	if cfg.RabbitMQ.URL != "" {
		pub, err := rabbit.Dial(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			closeAll()
			return nil, err
		}
		closers = append(closers, func() { _ = pub.Close() })
		opts = append(opts, app.WithPublisher(pub))
	}

	return &components{
		service: app.NewQuizService(store, locks, opts...),
		tokens:  auth.NewTokenService(cfg.Auth.Secret, cfg.Auth.Issuer, config.TTLDuration(cfg.Auth.TokenTTL, auth.DefaultTTL)),
		close:   closeAll,
	}, nil
}

func openStore(ctx context.Context, cfg config.Config) (app.Store, func(), error) {
	switch cfg.Storage.Driver {
	case config.DriverJSONFile:
		s, err := jsonfile.Open(cfg.Storage.Path, cfg.Storage.SeedPath)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("json store at %s", s.Path())
		return s, func() {}, nil
	case config.DriverPostgres:
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, nil, err
		}
		return pgstore.NewStore(pool), pool.Close, nil
	default:
		if cfg.Storage.SeedPath == "" {
			return memory.NewStore(), func() {}, nil
		}
		doc, err := memory.LoadDocument(cfg.Storage.SeedPath)
		if err != nil {
			return nil, nil, fmt.Errorf("load seed %s: %w", cfg.Storage.SeedPath, err)
		}
		return memory.NewStoreFromDocument(doc), func() {}, nil
	}
}
