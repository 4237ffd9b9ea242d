package model

import "time"

// Статусы авторизации (authorizations.status).
const (
	AuthorizationStatusActive  = "active"
	AuthorizationStatusRevoked = "revoked"
)

// Authorization — юридический артефакт: согласие представителя на
// постоплатные покупки ученика в кантине.
// Для одного student_id одновременно существует не более одной записи со статусом active.
type Authorization struct {
	// ID — UUID авторизации
	ID string
	// GuardianID — UUID представителя
	GuardianID string
	// StudentID — UUID ученика
	StudentID string
	// TermVersion — версия текста термина
	TermVersion string
	// TermText — полный текст термина с подставленными значениями
	TermText string
	// SignatureDataURL — подпись в виде data URI (хранится inline)
	SignatureDataURL string
	// TermHashSHA256 — хэш целостности (hex)
	TermHashSHA256 string
	// AcceptedAt — момент принятия
	AcceptedAt time.Time
	// AcceptedIP — IP клиента
	AcceptedIP string
	// AcceptedUserAgent — User-Agent клиента
	AcceptedUserAgent string
	// Status — статус (active, revoked)
	Status string
	// RevokedAt — время отзыва (nil для активных)
	RevokedAt *time.Time
	// CreatedAt — время создания записи
	CreatedAt time.Time
}

// AuthorizationListItem — строка списка авторизаций для админки:
// авторизация вместе с краткими данными представителя и ученика.
type AuthorizationListItem struct {
	ID                string
	AcceptedAt        time.Time
	Status            string
	TermVersion       string
	TermHashSHA256    string
	TermText          string
	AcceptedIP        string
	AcceptedUserAgent string

	GuardianFullName string
	GuardianCPF      string

	StudentFullName  string
	StudentClassRoom string
	StudentPeriod    string
}

// AuthorizationBundle — авторизация со всеми данными, нужными для
// повторной генерации документа (используется сверкой).
type AuthorizationBundle struct {
	Authorization *Authorization
	Guardian      *Guardian
	Student       *Student
}
