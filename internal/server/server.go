// Пакет server — HTTP-сервер сервиса авторизаций с graceful shutdown.
// Публичные маршруты формы открыты с CORS, административные защищены JWT.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	apierrors "github.com/rafarisso/Cadastro-Cantina/internal/api/errors"
	"github.com/rafarisso/Cadastro-Cantina/internal/api/handlers"
	"github.com/rafarisso/Cadastro-Cantina/internal/api/middleware"
	"github.com/rafarisso/Cadastro-Cantina/internal/config"
	"github.com/rafarisso/Cadastro-Cantina/internal/domain/rbac"
)

// Authenticator — middleware проверки Bearer-токена (middleware.JWTAuth).
type Authenticator interface {
	Middleware() func(http.Handler) http.Handler
}

// Server — HTTP-сервер сервиса.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт HTTP-сервер с настроенными маршрутами и middleware.
func New(cfg *config.Config, logger *slog.Logger, handler *handlers.APIHandler, auth Authenticator) *Server {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           NewRouter(logger, handler, auth, cfg.CORSAllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// NewRouter собирает маршруты:
//
//	POST /api/v1/authorizations                       — форма (публично)
//	GET  /api/v1/terms/current                        — текст термина (публично)
//	GET  /api/v1/documents/download?token=            — PDF по подписанной ссылке
//	GET  /api/v1/authorizations?q=                    — список (admin, readonly)
//	GET  /api/v1/authorizations/{id}/document-link    — ссылка на PDF (admin)
//	GET  /health/live, /health/ready, /metrics
func NewRouter(logger *slog.Logger, h *handlers.APIHandler, auth Authenticator, allowedOrigins []string) http.Handler {
	router := chi.NewRouter()

	router.Use(chimw.RequestID)
	router.Use(chimw.Recoverer)
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))

	router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		apierrors.NotFound(w, "Rota nao encontrada.")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		apierrors.MethodNotAllowed(w, "Metodo nao permitido.")
	})

	router.Get("/health/live", h.HealthLive)
	router.Get("/health/ready", h.HealthReady)
	router.Get("/metrics", h.GetMetrics)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			MaxAge:         300,
		}))

		// Публичные маршруты формы
		r.Post("/authorizations", h.CreateAuthorization)
		r.Get("/terms/current", h.GetCurrentTerms)
		r.Get("/documents/download", h.DownloadDocument)

		// Административные маршруты
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware())

			r.With(middleware.RequireRole(rbac.RoleAdmin, rbac.RoleReadonly)).
				Get("/authorizations", h.ListAuthorizations)
			r.With(middleware.RequireRole(rbac.RoleAdmin)).
				Get("/authorizations/{id}/document-link", h.GetDocumentLink)
		})
	})

	return router
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
