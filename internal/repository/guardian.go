package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rafarisso/Cadastro-Cantina/internal/domain/model"
)

// GuardianRepository — запись представителей (таблица guardians).
type GuardianRepository interface {
	// Upsert создаёт представителя или обновляет существующего с тем же CPF.
	// Возвращает стабильный UUID записи.
	Upsert(ctx context.Context, g *model.Guardian) (string, error)
}

type guardianRepo struct {
	db DBTX
}

// NewGuardianRepository создаёт репозиторий представителей.
func NewGuardianRepository(db DBTX) GuardianRepository {
	return &guardianRepo{db: db}
}

func (r *guardianRepo) Upsert(ctx context.Context, g *model.Guardian) (string, error) {
	query := `
		INSERT INTO guardians (id, full_name, cpf, birth_date, email, phone_primary,
			phone_secondary, cep, address_street, address_number, address_complement,
			address_neighborhood, address_city, address_state)
		VALUES ($1, $2, $3, $4::text::date, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (cpf) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			birth_date = EXCLUDED.birth_date,
			email = EXCLUDED.email,
			phone_primary = EXCLUDED.phone_primary,
			phone_secondary = EXCLUDED.phone_secondary,
			cep = EXCLUDED.cep,
			address_street = EXCLUDED.address_street,
			address_number = EXCLUDED.address_number,
			address_complement = EXCLUDED.address_complement,
			address_neighborhood = EXCLUDED.address_neighborhood,
			address_city = EXCLUDED.address_city,
			address_state = EXCLUDED.address_state,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		uuid.New().String(), g.FullName, g.CPF, g.BirthDate, g.Email, g.PhonePrimary,
		g.PhoneSecondary, g.CEP, g.AddressStreet, g.AddressNumber, g.AddressComplement,
		g.AddressNeighborhood, g.AddressCity, g.AddressState,
	).Scan(&g.ID, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return "", fmt.Errorf("ошибка сохранения представителя: %w", err)
	}
	return g.ID, nil
}
