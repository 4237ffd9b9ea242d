// errors.go — ошибки конвейера авторизации.
//
// Каждый класс ошибки соответствует исходу для клиента: ValidationError (400),
// ConflictError (409), PersistenceError/RenderError/StorageError (500).
// Все типы раскрывают причину через Unwrap.
package service

import (
	"errors"
	"fmt"

	"github.com/rafarisso/Cadastro-Cantina/internal/render"
	"github.com/rafarisso/Cadastro-Cantina/internal/validation"
)

// ErrNotFound — ресурс не найден.
var ErrNotFound = errors.New("ресурс не найден")

// ValidationError — некорректный ввод клиента.
type ValidationError = validation.ValidationError

// RenderError — подпись не удалось декодировать или PDF не собрался.
type RenderError = render.RenderError

// Шаги конвейера (лейблы метрик и поле step в логах).
const (
	StepValidate      = "validate"
	StepGuardian      = "guardian"
	StepStudent       = "student"
	StepGuard         = "guard"
	StepRender        = "render"
	StepAuthorization = "authorization"
	StepUpload        = "upload"
	StepDocument      = "document"
	StepSignedURL     = "signed_url"
	StepAudit         = "audit"
)

// ConflictError — у ученика уже есть активная авторизация.
type ConflictError struct {
	StudentID string
	Err       error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("у ученика %s уже есть активная авторизация", e.StudentID)
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}

// PersistenceError — ошибка чтения или записи в PostgreSQL на шаге Step.
type PersistenceError struct {
	Step string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("шаг %s: ошибка хранилища записей: %v", e.Step, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// StorageError — ошибка объектного хранилища (загрузка PDF или подпись ссылки).
// Возникает после записи авторизации: такая авторизация остаётся без
// документа до следующего прохода сверки.
type StorageError struct {
	Step string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("шаг %s: ошибка объектного хранилища: %v", e.Step, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
