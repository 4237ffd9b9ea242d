package objectstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DownloadPath — путь эндпоинта скачивания локальных документов.
const DownloadPath = "/api/v1/documents/download"

// downloadClaims — claims токена скачивания.
type downloadClaims struct {
	jwt.RegisteredClaims
	// Bucket — bucket объекта (subject — путь)
	Bucket string `json:"bkt"`
}

// FSStore — хранилище документов в локальной директории.
// Ссылки на скачивание подписываются HS256 и проверяются VerifyToken.
type FSStore struct {
	// dataDir — корневая директория (CS_STORAGE_DIR), bucket — поддиректория
	dataDir    string
	bucket     string
	baseURL    string
	signingKey []byte
	now        func() time.Time
}

// NewFS создаёт FSStore. Проверяет и создаёт директорию bucket,
// если она не существует.
func NewFS(dataDir, bucket, baseURL string, signingKey []byte) (*FSStore, error) {
	if len(signingKey) == 0 {
		return nil, fmt.Errorf("ключ подписи ссылок не задан")
	}
	if err := os.MkdirAll(filepath.Join(dataDir, bucket), 0o750); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию данных %s: %w", dataDir, err)
	}

	return &FSStore{
		dataDir:    dataDir,
		bucket:     bucket,
		baseURL:    strings.TrimRight(baseURL, "/"),
		signingKey: signingKey,
		now:        time.Now,
	}, nil
}

// Bucket возвращает имя bucket.
func (s *FSStore) Bucket() string {
	return s.bucket
}

// Put записывает объект на диск с подсчётом SHA-256.
//
// Паттерн: temp файл → запись → fsync → atomic rename.
// Существующий файл перезаписывается. При ошибке temp файл удаляется.
func (s *FSStore) Put(ctx context.Context, p string, data []byte, _ string) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cleaned, err := CleanPath(p)
	if err != nil {
		return nil, err
	}

	fullPath := s.fullPath(cleaned)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
		return nil, fmt.Errorf("ошибка создания директории: %w", err)
	}

	// Уникальный temp файл в той же директории: параллельные записи одного
	// пути не делят временный файл, rename остаётся в пределах одной ФС.
	f, err := os.CreateTemp(filepath.Dir(fullPath), ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("ошибка создания временного файла: %w", err)
	}
	tmpPath := f.Name()

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка записи данных: %w", err)
	}

	// fsync для гарантии записи на диск
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка fsync: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка закрытия файла: %w", err)
	}

	// Атомарный rename
	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка атомарного переименования: %w", err)
	}

	sum := sha256.Sum256(data)
	return &Object{
		Bucket:   s.bucket,
		Path:     cleaned,
		Size:     int64(len(data)),
		Checksum: hex.EncodeToString(sum[:]),
	}, nil
}

// Open открывает объект для чтения. Вызывающий код обязан закрыть файл.
func (s *FSStore) Open(p string) (*os.File, error) {
	cleaned, err := CleanPath(p)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(s.fullPath(cleaned))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, cleaned)
		}
		return nil, fmt.Errorf("ошибка открытия файла %s: %w", cleaned, err)
	}
	return f, nil
}

// SignedURL выдаёт ссылку на эндпоинт скачивания с HS256-токеном,
// действующим ttl.
func (s *FSStore) SignedURL(_ context.Context, p string, ttl time.Duration) (string, error) {
	cleaned, err := CleanPath(p)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(s.fullPath(cleaned)); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, cleaned)
		}
		return "", fmt.Errorf("ошибка проверки файла %s: %w", cleaned, err)
	}

	now := s.now()
	claims := downloadClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   cleaned,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Bucket: s.bucket,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("ошибка подписи ссылки: %w", err)
	}

	return s.baseURL + DownloadPath + "?token=" + url.QueryEscape(token), nil
}

// VerifyToken проверяет токен скачивания и возвращает путь объекта.
func (s *FSStore) VerifyToken(token string) (string, error) {
	claims := &downloadClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Bucket != s.bucket {
		return "", fmt.Errorf("%w: чужой bucket %q", ErrInvalidToken, claims.Bucket)
	}
	cleaned, err := CleanPath(claims.Subject)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return cleaned, nil
}

// CheckReady проверяет, что директория bucket существует и доступна для записи.
func (s *FSStore) CheckReady() (string, string) {
	dir := filepath.Join(s.dataDir, s.bucket)
	info, err := os.Stat(dir)
	if err != nil {
		return StatusFail, fmt.Sprintf("директория хранилища недоступна: %v", err)
	}
	if !info.IsDir() {
		return StatusFail, "путь хранилища не является директорией"
	}

	check, err := os.CreateTemp(dir, ".ready-*")
	if err != nil {
		return StatusFail, fmt.Sprintf("директория хранилища недоступна для записи: %v", err)
	}
	name := check.Name()
	check.Close()
	if err := os.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
		return StatusFail, fmt.Sprintf("ошибка удаления пробного файла: %v", err)
	}
	return StatusOK, "filesystem available"
}

// fullPath возвращает абсолютный путь объекта на диске.
func (s *FSStore) fullPath(cleaned string) string {
	return filepath.Join(s.dataDir, s.bucket, filepath.FromSlash(cleaned))
}
