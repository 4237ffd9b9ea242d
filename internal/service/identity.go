package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/rafarisso/Cadastro-Cantina/internal/domain/model"
	"github.com/rafarisso/Cadastro-Cantina/internal/repository"
)

// IdentityResolver сохраняет представителя и ученика и возвращает их ID.
// Повторная отправка с теми же естественными ключами возвращает те же ID.
type IdentityResolver interface {
	Resolve(ctx context.Context, g *model.Guardian, s *model.Student) (guardianID, studentID string, err error)
}

// txRunner — выполнение функции в транзакции (repository.TxRunner).
type txRunner interface {
	RunInTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// TxIdentityResolver выполняет оба upsert в одной транзакции: при ошибке
// ученика изменения представителя откатываются.
type TxIdentityResolver struct {
	tx txRunner
}

// NewTxIdentityResolver создаёт резолвер поверх TxRunner.
func NewTxIdentityResolver(tx *repository.TxRunner) *TxIdentityResolver {
	return &TxIdentityResolver{tx: tx}
}

// Resolve выполняет upsert представителя, затем ученика.
// Ошибки возвращаются как *PersistenceError с шагом guardian или student.
func (r *TxIdentityResolver) Resolve(ctx context.Context, g *model.Guardian, s *model.Student) (string, string, error) {
	var guardianID, studentID string
	err := r.tx.RunInTx(ctx, func(tx pgx.Tx) error {
		var err error
		guardianID, err = repository.NewGuardianRepository(tx).Upsert(ctx, g)
		if err != nil {
			return &PersistenceError{Step: StepGuardian, Err: err}
		}

		s.GuardianID = guardianID
		studentID, err = repository.NewStudentRepository(tx).Upsert(ctx, s)
		if err != nil {
			return &PersistenceError{Step: StepStudent, Err: err}
		}
		return nil
	})
	if err != nil {
		var pe *PersistenceError
		if errors.As(err, &pe) {
			return "", "", err
		}
		// Ошибка начала или коммита транзакции
		return "", "", &PersistenceError{Step: StepStudent, Err: err}
	}
	return guardianID, studentID, nil
}
