// authorizations.go — административные эндпоинты авторизаций:
// список с поиском и ссылка на PDF.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	apierrors "github.com/rafarisso/Cadastro-Cantina/internal/api/errors"
	"github.com/rafarisso/Cadastro-Cantina/internal/domain/model"
	"github.com/rafarisso/Cadastro-Cantina/internal/service"
)

// authorizationGuardian — краткие данные представителя в списке.
type authorizationGuardian struct {
	FullName string `json:"full_name"`
	CPF      string `json:"cpf"`
}

// authorizationStudent — краткие данные ученика в списке.
type authorizationStudent struct {
	FullName  string `json:"full_name"`
	ClassRoom string `json:"class_room"`
	Period    string `json:"period"`
}

// authorizationItem — строка списка авторизаций.
type authorizationItem struct {
	ID                string                `json:"id"`
	AcceptedAt        string                `json:"accepted_at"`
	Status            string                `json:"status"`
	TermVersion       string                `json:"term_version"`
	TermHashSHA256    string                `json:"term_hash_sha256"`
	TermText          string                `json:"term_text"`
	AcceptedIP        string                `json:"accepted_ip"`
	AcceptedUserAgent string                `json:"accepted_user_agent"`
	Guardian          authorizationGuardian `json:"guardian"`
	Student           authorizationStudent  `json:"student"`
}

type authorizationListResponse struct {
	Items []authorizationItem `json:"items"`
	Total int                 `json:"total"`
}

type documentLinkResponse struct {
	SignedURL string `json:"signed_url"`
}

// ListAuthorizations обрабатывает GET /api/v1/authorizations?q=.
func (h *APIHandler) ListAuthorizations(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))

	items, total, err := h.authorizations.List(r.Context(), q)
	if err != nil {
		h.logger.Error("Ошибка получения списка авторизаций",
			slog.String("q", q),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Erro ao buscar autorizacoes.")
		return
	}

	resp := authorizationListResponse{
		Items: make([]authorizationItem, 0, len(items)),
		Total: total,
	}
	for _, it := range items {
		resp.Items = append(resp.Items, toAuthorizationItem(it))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetDocumentLink обрабатывает GET /api/v1/authorizations/{id}/document-link.
func (h *APIHandler) GetDocumentLink(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		apierrors.ValidationError(w, "ID de autorizacao invalido.")
		return
	}

	url, err := h.authorizations.DocumentLink(r.Context(), id)
	if err != nil {
		var se *service.StorageError
		switch {
		case errors.Is(err, service.ErrNotFound):
			apierrors.NotFound(w, "Documento nao encontrado.")
		case errors.As(err, &se):
			h.logger.Error("Ошибка выдачи ссылки на документ",
				slog.String("authorization_id", id),
				slog.String("error", err.Error()),
			)
			apierrors.InternalError(w, msgSignedURL)
		default:
			h.logger.Error("Ошибка поиска документа",
				slog.String("authorization_id", id),
				slog.String("error", err.Error()),
			)
			apierrors.InternalError(w, "Erro ao localizar documento.")
		}
		return
	}

	writeJSON(w, http.StatusOK, documentLinkResponse{SignedURL: url})
}

func toAuthorizationItem(it *model.AuthorizationListItem) authorizationItem {
	return authorizationItem{
		ID:                it.ID,
		AcceptedAt:        it.AcceptedAt.UTC().Format(time.RFC3339Nano),
		Status:            it.Status,
		TermVersion:       it.TermVersion,
		TermHashSHA256:    it.TermHashSHA256,
		TermText:          it.TermText,
		AcceptedIP:        it.AcceptedIP,
		AcceptedUserAgent: it.AcceptedUserAgent,
		Guardian: authorizationGuardian{
			FullName: it.GuardianFullName,
			CPF:      it.GuardianCPF,
		},
		Student: authorizationStudent{
			FullName:  it.StudentFullName,
			ClassRoom: it.StudentClassRoom,
			Period:    it.StudentPeriod,
		},
	}
}
