package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"quiz-session-service/internal/app"
	"quiz-session-service/internal/auth"
)

// RouterOptions tunes the HTTP surface.
type RouterOptions struct {
	AllowedOrigins []string
	// RequestTimeout bounds plain requests; websocket streams are exempt.
	RequestTimeout time.Duration
}

// Handler serves the REST API on top of the quiz use cases.
type Handler struct {
	service *app.QuizService
	tokens  *auth.TokenService
}

func NewHandler(service *app.QuizService, tokens *auth.TokenService) *Handler {
	return &Handler{service: service, tokens: tokens}
}

// NewRouter wires every route of the service.
func NewRouter(service *app.QuizService, tokens *auth.TokenService, opts RouterOptions) http.Handler {
	h := NewHandler(service, tokens)
	ws := NewWSHandler(service)
	authn := NewAuthenticator(tokens, service)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{"Content-Length"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.With(authn.RequireWithQuery).Get("/api/sessions/{id}/events", ws.ServeWS)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(timeout))

		r.Route("/api/auth", func(r chi.Router) {
			r.Get("/github", h.githubLogin)
			r.Get("/github/callback", h.githubCallback)
			r.With(authn.Require).Get("/me", h.me)
			r.Post("/logout", h.logout)
		})

		r.Get("/api/mode", h.getMode)
		r.With(authn.Require).Put("/api/mode", h.setMode)
		r.Get("/api/categories", h.listCategories)
		r.With(authn.Require).Post("/api/categories", h.createCategory)

		r.Group(func(r chi.Router) {
			r.Use(authn.Require)

			r.Get("/api/questions", h.listQuestions)

			r.Post("/api/sessions", h.createSession)
			r.Get("/api/sessions/{id}", h.getSession)
			r.Post("/api/sessions/{id}/answers", h.submitAnswer)
			r.Post("/api/sessions/{id}/submit", h.submitSession)
			r.Get("/api/sessions/{id}/results", h.results)

			r.Route("/api/admin", func(r chi.Router) {
				r.Get("/questions", h.adminListQuestions)
				r.Post("/questions", h.adminCreateQuestion)
				r.Get("/questions/{id}", h.adminGetQuestion)
				r.Get("/users", h.adminListUsers)
				r.Put("/users/{id}/difficulty", h.adminSetDifficulty)
				r.Get("/users/{id}/results", h.adminUserResults)
				r.Get("/answers/pending", h.adminPendingAnswers)
				r.Post("/answers/{id}/grade", h.adminGradeAnswer)
			})
		})
	})
	return r
}
