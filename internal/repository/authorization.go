package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rafarisso/Cadastro-Cantina/internal/domain/cpf"
	"github.com/rafarisso/Cadastro-Cantina/internal/domain/model"
)

// MaxListLimit — максимум строк в списке авторизаций.
const MaxListLimit = 200

// AuthorizationRepository — операции с таблицей authorizations.
type AuthorizationRepository interface {
	// FindActiveByStudent возвращает активную авторизацию ученика или ErrNotFound.
	FindActiveByStudent(ctx context.Context, studentID string) (*model.Authorization, error)
	// Create вставляет авторизацию со статусом active.
	// Вторая активная авторизация того же ученика — ErrConflict.
	Create(ctx context.Context, a *model.Authorization) error
	// List возвращает авторизации по убыванию accepted_at с поиском по
	// имени представителя, имени ученика и цифрам CPF. total — число
	// совпадений без учёта лимита.
	List(ctx context.Context, q string, limit int) (items []*model.AuthorizationListItem, total int, err error)
	// ListWithoutDocument возвращает ID активных авторизаций, принятых
	// раньше olderThan, у которых нет ни одного документа.
	ListWithoutDocument(ctx context.Context, olderThan time.Time, limit int) ([]string, error)
	// GetBundle возвращает авторизацию вместе с представителем и учеником.
	GetBundle(ctx context.Context, id string) (*model.AuthorizationBundle, error)
}

type authorizationRepo struct {
	db DBTX
}

// NewAuthorizationRepository создаёт репозиторий авторизаций.
func NewAuthorizationRepository(db DBTX) AuthorizationRepository {
	return &authorizationRepo{db: db}
}

const authorizationColumns = `a.id, a.guardian_id, a.student_id, a.term_version, a.term_text,
	a.signature_data_url, a.term_hash_sha256, a.accepted_at, a.accepted_ip,
	a.accepted_user_agent, a.status, a.revoked_at, a.created_at`

func scanAuthorization(row pgx.Row, a *model.Authorization, extra ...any) error {
	dest := []any{
		&a.ID, &a.GuardianID, &a.StudentID, &a.TermVersion, &a.TermText,
		&a.SignatureDataURL, &a.TermHashSHA256, &a.AcceptedAt, &a.AcceptedIP,
		&a.AcceptedUserAgent, &a.Status, &a.RevokedAt, &a.CreatedAt,
	}
	return row.Scan(append(dest, extra...)...)
}

func (r *authorizationRepo) FindActiveByStudent(ctx context.Context, studentID string) (*model.Authorization, error) {
	query := `
		SELECT ` + authorizationColumns + `
		FROM authorizations a
		WHERE a.student_id = $1 AND a.status = 'active'
		LIMIT 1`

	a := &model.Authorization{}
	if err := scanAuthorization(r.db.QueryRow(ctx, query, studentID), a); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка поиска активной авторизации: %w", err)
	}
	return a, nil
}

func (r *authorizationRepo) Create(ctx context.Context, a *model.Authorization) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	a.Status = model.AuthorizationStatusActive

	query := `
		INSERT INTO authorizations (id, guardian_id, student_id, term_version, term_text,
			signature_data_url, term_hash_sha256, accepted_at, accepted_ip,
			accepted_user_agent, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at`

	err := r.db.QueryRow(ctx, query,
		a.ID, a.GuardianID, a.StudentID, a.TermVersion, a.TermText,
		a.SignatureDataURL, a.TermHashSHA256, a.AcceptedAt, a.AcceptedIP,
		a.AcceptedUserAgent, a.Status,
	).Scan(&a.CreatedAt)
	if err != nil {
		if isActiveAuthorizationConflict(err) {
			return fmt.Errorf("%w: у ученика уже есть активная авторизация", ErrConflict)
		}
		return fmt.Errorf("ошибка создания авторизации: %w", err)
	}
	return nil
}

// buildSearchWhere строит условие поиска по тексту запроса.
// Цифры запроса ищутся в CPF, весь текст — в именах.
func buildSearchWhere(q string) (string, []any) {
	q = strings.TrimSpace(q)
	if q == "" {
		return "", nil
	}

	like := "%" + escapeLike(q) + "%"
	cpfLike := like
	if digits := cpf.OnlyDigits(q); digits != "" {
		cpfLike = "%" + digits + "%"
	}
	return "WHERE g.full_name ILIKE $1 OR s.full_name ILIKE $1 OR g.cpf LIKE $2", []any{like, cpfLike}
}

// escapeLike экранирует спецсимволы шаблона LIKE.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *authorizationRepo) List(ctx context.Context, q string, limit int) ([]*model.AuthorizationListItem, int, error) {
	if limit <= 0 || limit > MaxListLimit {
		limit = MaxListLimit
	}

	where, args := buildSearchWhere(q)
	query := fmt.Sprintf(`
		SELECT a.id, a.accepted_at, a.status, a.term_version, a.term_hash_sha256,
			a.term_text, a.accepted_ip, a.accepted_user_agent,
			g.full_name, g.cpf, s.full_name, s.class_room, s.period,
			COUNT(*) OVER () AS total
		FROM authorizations a
		JOIN guardians g ON g.id = a.guardian_id
		JOIN students s ON s.id = a.student_id
		%s
		ORDER BY a.accepted_at DESC
		LIMIT $%d`, where, len(args)+1)
	args = append(args, limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения списка авторизаций: %w", err)
	}
	defer rows.Close()

	items := make([]*model.AuthorizationListItem, 0)
	total := 0
	for rows.Next() {
		it := &model.AuthorizationListItem{}
		if err := rows.Scan(
			&it.ID, &it.AcceptedAt, &it.Status, &it.TermVersion, &it.TermHashSHA256,
			&it.TermText, &it.AcceptedIP, &it.AcceptedUserAgent,
			&it.GuardianFullName, &it.GuardianCPF,
			&it.StudentFullName, &it.StudentClassRoom, &it.StudentPeriod,
			&total,
		); err != nil {
			return nil, 0, fmt.Errorf("ошибка сканирования авторизации: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("ошибка чтения списка авторизаций: %w", err)
	}
	return items, total, nil
}

func (r *authorizationRepo) ListWithoutDocument(ctx context.Context, olderThan time.Time, limit int) ([]string, error) {
	query := `
		SELECT a.id
		FROM authorizations a
		WHERE a.status = 'active'
			AND a.accepted_at < $1
			AND NOT EXISTS (SELECT 1 FROM documents d WHERE d.authorization_id = a.id)
		ORDER BY a.accepted_at
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, olderThan, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска авторизаций без документа: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ошибка сканирования ID авторизации: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *authorizationRepo) GetBundle(ctx context.Context, id string) (*model.AuthorizationBundle, error) {
	query := `
		SELECT ` + authorizationColumns + `,
			g.id, g.full_name, g.cpf, g.birth_date::text, g.email, g.phone_primary,
			g.phone_secondary, g.cep, g.address_street, g.address_number,
			g.address_complement, g.address_neighborhood, g.address_city,
			g.address_state, g.created_at, g.updated_at,
			s.id, s.guardian_id, s.full_name, s.class_room, s.period, s.school_name,
			s.created_at, s.updated_at
		FROM authorizations a
		JOIN guardians g ON g.id = a.guardian_id
		JOIN students s ON s.id = a.student_id
		WHERE a.id = $1`

	b := &model.AuthorizationBundle{
		Authorization: &model.Authorization{},
		Guardian:      &model.Guardian{},
		Student:       &model.Student{},
	}
	g, s := b.Guardian, b.Student
	err := scanAuthorization(r.db.QueryRow(ctx, query, id), b.Authorization,
		&g.ID, &g.FullName, &g.CPF, &g.BirthDate, &g.Email, &g.PhonePrimary,
		&g.PhoneSecondary, &g.CEP, &g.AddressStreet, &g.AddressNumber,
		&g.AddressComplement, &g.AddressNeighborhood, &g.AddressCity,
		&g.AddressState, &g.CreatedAt, &g.UpdatedAt,
		&s.ID, &s.GuardianID, &s.FullName, &s.ClassRoom, &s.Period, &s.SchoolName,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения авторизации: %w", err)
	}
	return b, nil
}
