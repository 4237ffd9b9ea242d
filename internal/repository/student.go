package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rafarisso/Cadastro-Cantina/internal/domain/model"
)

// StudentRepository — запись учеников (таблица students).
type StudentRepository interface {
	// Upsert создаёт ученика или обновляет существующего с тем же
	// (guardian_id, full_name, class_room, period). Возвращает UUID записи.
	Upsert(ctx context.Context, s *model.Student) (string, error)
}

type studentRepo struct {
	db DBTX
}

// NewStudentRepository создаёт репозиторий учеников.
func NewStudentRepository(db DBTX) StudentRepository {
	return &studentRepo{db: db}
}

func (r *studentRepo) Upsert(ctx context.Context, s *model.Student) (string, error) {
	query := `
		INSERT INTO students (id, guardian_id, full_name, class_room, period, school_name)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT ON CONSTRAINT uniq_students_identity DO UPDATE SET
			school_name = EXCLUDED.school_name,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		uuid.New().String(), s.GuardianID, s.FullName, s.ClassRoom, s.Period, s.SchoolName,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return "", fmt.Errorf("ошибка сохранения ученика: %w", err)
	}
	return s.ID, nil
}
