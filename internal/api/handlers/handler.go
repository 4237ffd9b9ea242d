// handler.go — основной обработчик API сервиса авторизаций.
// Объединяет доменные обработчики и делегирует запросы в сервисный слой.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"

	"github.com/rafarisso/Cadastro-Cantina/internal/domain/model"
	"github.com/rafarisso/Cadastro-Cantina/internal/service"
)

// Submitter — конвейер приёма формы (service.SubmissionService).
type Submitter interface {
	Submit(ctx context.Context, req *model.SubmissionRequest, client service.ClientInfo) (*service.SubmissionResult, error)
}

// AuthorizationReader — чтение авторизаций для админки (service.AuthorizationService).
type AuthorizationReader interface {
	List(ctx context.Context, q string) ([]*model.AuthorizationListItem, int, error)
	DocumentLink(ctx context.Context, authorizationID string) (string, error)
}

// DocumentFiles — локальное хранилище с токенами скачивания (objectstore.FSStore).
type DocumentFiles interface {
	VerifyToken(token string) (string, error)
	Open(p string) (*os.File, error)
}

// APIHandler — основной обработчик API.
type APIHandler struct {
	health         *HealthHandler
	submissions    Submitter
	authorizations AuthorizationReader
	files          DocumentFiles
	maxBodyBytes   int64
	logger         *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
// files может быть nil: скачивание доступно только для fs-хранилища.
func NewAPIHandler(
	health *HealthHandler,
	submissions Submitter,
	authorizations AuthorizationReader,
	files DocumentFiles,
	maxBodyBytes int64,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		health:         health,
		submissions:    submissions,
		authorizations: authorizations,
		files:          files,
		maxBodyBytes:   maxBodyBytes,
		logger:         logger.With(slog.String("component", "api_handler")),
	}
}

// HealthLive — liveness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.health.HealthLive(w, r)
}

// HealthReady — readiness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.health.HealthReady(w, r)
}

// GetMetrics — Prometheus метрики (делегируется в HealthHandler).
func (h *APIHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.health.GetMetrics(w, r)
}

// --- Вспомогательные функции ---

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
