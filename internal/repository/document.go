package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rafarisso/Cadastro-Cantina/internal/domain/model"
)

// DocumentRepository — указатели на PDF в объектном хранилище.
type DocumentRepository interface {
	// Create добавляет запись документа.
	Create(ctx context.Context, d *model.Document) error
	// LatestByAuthorization возвращает самый новый документ авторизации или ErrNotFound.
	LatestByAuthorization(ctx context.Context, authorizationID string) (*model.Document, error)
}

type documentRepo struct {
	db DBTX
}

// NewDocumentRepository создаёт репозиторий документов.
func NewDocumentRepository(db DBTX) DocumentRepository {
	return &documentRepo{db: db}
}

func (r *documentRepo) Create(ctx context.Context, d *model.Document) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}

	query := `
		INSERT INTO documents (id, authorization_id, storage_bucket, storage_path)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	err := r.db.QueryRow(ctx, query,
		d.ID, d.AuthorizationID, d.StorageBucket, d.StoragePath,
	).Scan(&d.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка сохранения документа: %w", err)
	}
	return nil
}

func (r *documentRepo) LatestByAuthorization(ctx context.Context, authorizationID string) (*model.Document, error) {
	query := `
		SELECT id, authorization_id, storage_bucket, storage_path, created_at
		FROM documents
		WHERE authorization_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	d := &model.Document{}
	err := r.db.QueryRow(ctx, query, authorizationID).Scan(
		&d.ID, &d.AuthorizationID, &d.StorageBucket, &d.StoragePath, &d.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка поиска документа: %w", err)
	}
	return d, nil
}
