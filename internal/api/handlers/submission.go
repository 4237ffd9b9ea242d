// submission.go — публичный эндпоинт приёма формы авторизации.
// Ошибки отдаются в формате {"message", "field"} без внутренних подробностей.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	apierrors "github.com/rafarisso/Cadastro-Cantina/internal/api/errors"
	"github.com/rafarisso/Cadastro-Cantina/internal/domain/model"
	"github.com/rafarisso/Cadastro-Cantina/internal/service"
)

// Сообщения для формы.
const (
	msgInvalidPayload = "Payload invalido."
	msgPayloadTooBig  = "Payload muito grande."
	msgActiveExists   = "Ja existe uma autorizacao ativa para este aluno."
	msgRender         = "Erro ao gerar PDF."
	msgSignedURL      = "Erro ao gerar link do PDF."
	msgInternal       = "Erro interno."
)

// stepMessages — сообщения об ошибке шага конвейера.
var stepMessages = map[string]string{
	service.StepGuardian:      "Erro ao salvar o responsavel.",
	service.StepStudent:       "Erro ao salvar o aluno.",
	service.StepGuard:         "Erro ao validar autorizacao existente.",
	service.StepAuthorization: "Erro ao registrar autorizacao.",
	service.StepUpload:        "Erro ao salvar PDF.",
	service.StepDocument:      "Erro ao registrar documento.",
	service.StepSignedURL:     msgSignedURL,
}

// unknownClient — значение IP и User-Agent, если клиент их не сообщил.
const unknownClient = "unknown"

// submissionResponse — ответ успешной отправки.
type submissionResponse struct {
	Success         bool   `json:"success"`
	AuthorizationID string `json:"authorization_id"`
	DocumentURL     string `json:"document_url"`
}

// CreateAuthorization обрабатывает POST /api/v1/authorizations.
func (h *APIHandler) CreateAuthorization(w http.ResponseWriter, r *http.Request) {
	if h.maxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}

	var req model.SubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			apierrors.WriteMessage(w, http.StatusRequestEntityTooLarge, msgPayloadTooBig, "")
			return
		}
		h.logger.Debug("Некорректное тело запроса", slog.String("error", err.Error()))
		apierrors.WriteMessage(w, http.StatusBadRequest, msgInvalidPayload, "")
		return
	}

	res, err := h.submissions.Submit(r.Context(), &req, service.ClientInfo{
		IP:        clientIP(r),
		UserAgent: userAgent(r),
	})
	if err != nil {
		h.writeSubmissionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, submissionResponse{
		Success:         true,
		AuthorizationID: res.AuthorizationID,
		DocumentURL:     res.DocumentURL,
	})
}

// writeSubmissionError переводит ошибку конвейера в ответ формы.
// Подробности ошибки уже залогированы сервисом.
func (h *APIHandler) writeSubmissionError(w http.ResponseWriter, err error) {
	var (
		ve *service.ValidationError
		ce *service.ConflictError
		pe *service.PersistenceError
		re *service.RenderError
		se *service.StorageError
	)
	switch {
	case errors.As(err, &ve):
		apierrors.WriteMessage(w, http.StatusBadRequest, ve.Reason, ve.Field)
	case errors.As(err, &ce):
		apierrors.WriteMessage(w, http.StatusConflict, msgActiveExists, "")
	case errors.As(err, &re):
		apierrors.WriteMessage(w, http.StatusInternalServerError, msgRender, "")
	case errors.As(err, &pe):
		apierrors.WriteMessage(w, http.StatusInternalServerError, stepMessage(pe.Step), "")
	case errors.As(err, &se):
		apierrors.WriteMessage(w, http.StatusInternalServerError, stepMessage(se.Step), "")
	default:
		h.logger.Error("Неклассифицированная ошибка отправки", slog.String("error", err.Error()))
		apierrors.WriteMessage(w, http.StatusInternalServerError, msgInternal, "")
	}
}

func stepMessage(step string) string {
	if msg, ok := stepMessages[step]; ok {
		return msg
	}
	return msgInternal
}

// clientIP определяет IP клиента по заголовкам прокси.
// Порядок: X-Nf-Client-Connection-Ip, первый адрес X-Forwarded-For,
// Client-Ip, X-Real-Ip. Иначе "unknown".
func clientIP(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get("X-Nf-Client-Connection-Ip")); ip != "" {
		return ip
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	for _, header := range []string{"Client-Ip", "X-Real-Ip"} {
		if ip := strings.TrimSpace(r.Header.Get(header)); ip != "" {
			return ip
		}
	}
	return unknownClient
}

func userAgent(r *http.Request) string {
	if ua := strings.TrimSpace(r.UserAgent()); ua != "" {
		return ua
	}
	return unknownClient
}
