// authorizations.go — чтение авторизаций для административной панели:
// список с поиском и ссылка на PDF.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rafarisso/Cadastro-Cantina/internal/domain/model"
	"github.com/rafarisso/Cadastro-Cantina/internal/objectstore"
	"github.com/rafarisso/Cadastro-Cantina/internal/repository"
)

// AuthorizationService — сервис административного доступа к авторизациям.
type AuthorizationService struct {
	auths   repository.AuthorizationRepository
	docs    repository.DocumentRepository
	store   objectstore.Store
	links   *LinkCache
	linkTTL time.Duration
	logger  *slog.Logger
}

// NewAuthorizationService создаёт сервис. links может быть nil (без кэша).
func NewAuthorizationService(
	auths repository.AuthorizationRepository,
	docs repository.DocumentRepository,
	store objectstore.Store,
	links *LinkCache,
	linkTTL time.Duration,
	logger *slog.Logger,
) *AuthorizationService {
	return &AuthorizationService{
		auths:   auths,
		docs:    docs,
		store:   store,
		links:   links,
		linkTTL: linkTTL,
		logger:  logger.With(slog.String("component", "authorization_service")),
	}
}

// List возвращает до 200 авторизаций (новые первыми) и общее число совпадений.
func (s *AuthorizationService) List(ctx context.Context, q string) ([]*model.AuthorizationListItem, int, error) {
	items, total, err := s.auths.List(ctx, q, repository.MaxListLimit)
	if err != nil {
		return nil, 0, fmt.Errorf("список авторизаций: %w", err)
	}
	return items, total, nil
}

// DocumentLink возвращает подписанную ссылку на самый новый документ
// авторизации. ErrNotFound — документа нет.
func (s *AuthorizationService) DocumentLink(ctx context.Context, authorizationID string) (string, error) {
	doc, err := s.docs.LatestByAuthorization(ctx, authorizationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", fmt.Errorf("%w: документ авторизации %s", ErrNotFound, authorizationID)
		}
		return "", &PersistenceError{Step: StepDocument, Err: err}
	}

	if doc.StorageBucket != s.store.Bucket() {
		s.logger.Warn("Документ записан в другой bucket",
			slog.String("authorization_id", authorizationID),
			slog.String("document_bucket", doc.StorageBucket),
			slog.String("store_bucket", s.store.Bucket()),
		)
	}

	if s.links != nil {
		if url, ok := s.links.Get(doc.StorageBucket, doc.StoragePath); ok {
			return url, nil
		}
	}

	url, err := s.store.SignedURL(ctx, doc.StoragePath, s.linkTTL)
	if err != nil {
		return "", &StorageError{Step: StepSignedURL, Err: err}
	}
	if s.links != nil {
		s.links.Set(doc.StorageBucket, doc.StoragePath, url)
	}

	s.logger.Debug("Выдана ссылка на документ",
		slog.String("authorization_id", authorizationID),
		slog.String("storage_path", doc.StoragePath),
	)
	return url, nil
}
