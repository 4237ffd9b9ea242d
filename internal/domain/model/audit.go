package model

import "time"

// Типы событий аудита.
const (
	AuditEventAuthorizationCreated = "authorization_created"
	AuditEventDocumentReconciled   = "document_reconciled"
)

// AuditLog — запись журнала аудита. Только вставка, без изменений и удаления.
type AuditLog struct {
	// ID — UUID записи
	ID string
	// EventType — тип события (authorization_created, ...)
	EventType string
	// EntityID — UUID сущности, к которой относится событие
	EntityID string
	// Meta — структурированные метаданные (guardian_id, student_id, storage_path, ip, user_agent)
	Meta map[string]any
	// CreatedAt — время события
	CreatedAt time.Time
}
