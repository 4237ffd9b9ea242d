package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rafarisso/Cadastro-Cantina/internal/domain/model"
)

// AuditLogRepository — журнал аудита. Только вставка.
type AuditLogRepository interface {
	Append(ctx context.Context, e *model.AuditLog) error
}

type auditLogRepo struct {
	db DBTX
}

// NewAuditLogRepository создаёт репозиторий журнала аудита.
func NewAuditLogRepository(db DBTX) AuditLogRepository {
	return &auditLogRepo{db: db}
}

func (r *auditLogRepo) Append(ctx context.Context, e *model.AuditLog) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	meta := e.Meta
	if meta == nil {
		meta = map[string]any{}
	}

	query := `
		INSERT INTO audit_logs (id, event_type, entity_id, meta_json)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	if err := r.db.QueryRow(ctx, query, e.ID, e.EventType, e.EntityID, meta).Scan(&e.CreatedAt); err != nil {
		return fmt.Errorf("ошибка записи аудита: %w", err)
	}
	return nil
}
