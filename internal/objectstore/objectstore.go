// Пакет objectstore — хранилище PDF-документов.
// Две реализации: локальная директория с подписанными JWT-ссылками (fs)
// и Alibaba Cloud OSS (oss).
package objectstore

import (
	"context"
	"errors"
	"path"
	"strings"
	"time"
)

// Статусы готовности (совпадают с /health/ready).
const (
	StatusOK   = "ok"
	StatusFail = "fail"
)

var (
	// ErrNotFound — объект не найден.
	ErrNotFound = errors.New("объект не найден")
	// ErrInvalidPath — недопустимый путь объекта.
	ErrInvalidPath = errors.New("недопустимый путь объекта")
	// ErrInvalidToken — подпись ссылки недействительна или истекла.
	ErrInvalidToken = errors.New("недействительная ссылка на документ")
)

// Object — результат сохранения объекта.
type Object struct {
	// Bucket — имя bucket/контейнера
	Bucket string
	// Path — путь объекта внутри bucket
	Path string
	// Size — размер в байтах
	Size int64
	// Checksum — SHA-256 содержимого (hex)
	Checksum string
}

// Store — объектное хранилище документов.
type Store interface {
	// Bucket возвращает имя bucket, в который пишет хранилище.
	Bucket() string
	// Put записывает объект по пути p, перезаписывая существующий.
	Put(ctx context.Context, p string, data []byte, contentType string) (*Object, error)
	// SignedURL выдаёт ссылку на объект, действующую ttl.
	SignedURL(ctx context.Context, p string, ttl time.Duration) (string, error)
	// CheckReady проверяет доступность хранилища.
	CheckReady() (status string, message string)
}

// DocumentPath формирует путь PDF авторизации: <cpf>/<authorization_id>.pdf.
func DocumentPath(cpfDigits, authorizationID string) string {
	return cpfDigits + "/" + authorizationID + ".pdf"
}

// CleanPath проверяет и нормализует относительный путь объекта.
// Абсолютные пути и выход за пределы bucket ("..") запрещены.
func CleanPath(p string) (string, error) {
	if p == "" || strings.HasPrefix(p, "/") || strings.Contains(p, "\\") {
		return "", ErrInvalidPath
	}
	cleaned := path.Clean(p)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrInvalidPath
	}
	return cleaned, nil
}
