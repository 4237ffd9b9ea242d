package model

import "time"

// Периоды обучения (students.period).
const (
	PeriodMorning   = "morning"
	PeriodAfternoon = "afternoon"
)

// Student — ученик, на которого оформляется авторизация.
// Естественный ключ: (guardian_id, full_name, class_room, period).
type Student struct {
	// ID — UUID записи
	ID string
	// GuardianID — UUID законного представителя (владелец записи)
	GuardianID string
	// FullName — полное имя ученика
	FullName string
	// ClassRoom — класс/кабинет (turma/sala)
	ClassRoom string
	// Period — период обучения (morning, afternoon)
	Period string
	// SchoolName — название школы
	SchoolName string
	// CreatedAt — время создания записи
	CreatedAt time.Time
	// UpdatedAt — время последнего обновления
	UpdatedAt time.Time
}

// IsValidPeriod проверяет, входит ли значение в перечисление периодов.
func IsValidPeriod(p string) bool {
	return p == PeriodMorning || p == PeriodAfternoon
}
