package app

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"learnportal/internal/app/apiresp"
	"learnportal/internal/app/observability"
	"learnportal/internal/quizbank"
	"learnportal/internal/report"
)

func NewRouter(cfg Config, db *sql.DB, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	collector := observability.NewCollector(db, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(collector.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", csrfHeaderName},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	quizSvc := quizbank.NewService(quizbank.NewSQLStore(db), quizbank.Config{
		MaxUploadMB:          cfg.QuizUploadMaxSizeMB,
		DefaultQuestionCount: cfg.QuizDefaultQuestionCount,
	}, log.Named("quizbank"))
	quizHandler := quizbank.NewHandler(quizSvc, cfg.QuizUploadMaxSizeMB)
	reportHandler := report.NewHandler(report.NewService(quizSvc))
	uploadLimiter := NewIPRateLimiter(cfg.UploadRateLimitPerMin, time.Minute)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	r.Get("/metrics", collector.MetricsHandler)

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(CSRFMiddleware(cfg.CSRFEnforced))
		api.Get("/csrf", IssueCSRFToken)
		quizHandler.Routes(api, RateLimitMiddleware(uploadLimiter))
		reportHandler.Routes(api)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		apiresp.WriteError(w, r, http.StatusNotFound, "route not found")
	})

	return r
}
