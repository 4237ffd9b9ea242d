// documents.go — скачивание PDF из локального хранилища по подписанной ссылке
// и текущий текст термина для формы.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"path"

	apierrors "github.com/rafarisso/Cadastro-Cantina/internal/api/errors"
	"github.com/rafarisso/Cadastro-Cantina/internal/objectstore"
	"github.com/rafarisso/Cadastro-Cantina/internal/terms"
)

// DownloadDocument обрабатывает GET /api/v1/documents/download?token=.
func (h *APIHandler) DownloadDocument(w http.ResponseWriter, r *http.Request) {
	if h.files == nil {
		apierrors.NotFound(w, "Download local indisponivel.")
		return
	}

	token := r.URL.Query().Get("token")
	if token == "" {
		apierrors.Unauthorized(w, "Link invalido ou expirado.")
		return
	}

	p, err := h.files.VerifyToken(token)
	if err != nil {
		h.logger.Debug("Отклонён токен скачивания", slog.String("error", err.Error()))
		apierrors.Unauthorized(w, "Link invalido ou expirado.")
		return
	}

	f, err := h.files.Open(p)
	if err != nil {
		if errors.Is(err, objectstore.ErrNotFound) {
			apierrors.NotFound(w, "Documento nao encontrado.")
			return
		}
		h.logger.Error("Ошибка открытия документа",
			slog.String("path", p),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Erro ao abrir documento.")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		apierrors.InternalError(w, "Erro ao abrir documento.")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="`+path.Base(p)+`"`)
	w.Header().Set("Cache-Control", "private, no-store")
	http.ServeContent(w, r, path.Base(p), info.ModTime(), f)
}

// GetCurrentTerms обрабатывает GET /api/v1/terms/current.
func (h *APIHandler) GetCurrentTerms(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, terms.Current())
}
