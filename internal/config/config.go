// Пакет config — загрузка и валидация конфигурации сервиса авторизаций
// кантины из переменных окружения (префикс CS_).
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Бэкенды объектного хранилища.
const (
	StorageBackendFS  = "fs"
	StorageBackendOSS = "oss"
)

// Config содержит все параметры конфигурации сервиса.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string
	// Внешний базовый URL сервиса (для ссылок на скачивание fs-хранилища)
	PublicBaseURL string
	// Разрешённые CORS origins для формы
	CORSAllowedOrigins []string
	// Максимальный размер тела запроса отправки формы
	MaxBodyBytes int64

	// --- PostgreSQL ---

	// Хост PostgreSQL
	DBHost string
	// Порт PostgreSQL
	DBPort int
	// Имя базы данных
	DBName string
	// Имя пользователя PostgreSQL
	DBUser string
	// Пароль пользователя PostgreSQL
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string

	// --- JWT (админские эндпоинты) ---

	// URL JWKS endpoint провайдера идентификации
	JWTJWKSURL string
	// Ожидаемый issuer JWT (пусто — не проверяется)
	JWTIssuer string
	// Путь к CA-сертификату для TLS-соединения с JWKS (опционально)
	JWTCACertPath string
	// Допустимое отклонение времени при проверке JWT
	JWTLeeway time.Duration
	// Интервал обновления ключей JWKS
	JWKSRefreshInterval time.Duration
	// Таймаут HTTP-клиента JWKS
	JWKSClientTimeout time.Duration

	// --- Маппинг групп → ролей ---

	// Группы, дающие роль admin
	RoleAdminGroups []string
	// Группы, дающие роль readonly
	RoleReadonlyGroups []string

	// --- Объектное хранилище ---

	// Бэкенд: fs или oss
	StorageBackend string
	// Имя bucket для PDF
	StorageBucket string
	// Корневая директория fs-хранилища
	StorageDir string
	// Ключ HS256 для подписи ссылок fs-хранилища
	StorageSigningKey string
	// Endpoint Alibaba Cloud OSS
	OSSEndpoint string
	// AccessKey ID OSS
	OSSAccessKey string
	// AccessKey Secret OSS
	OSSSecretKey string
	// STS токен OSS (опционально)
	OSSSecurityToken string

	// --- Документы ---

	// Срок действия подписанной ссылки на PDF
	DocumentLinkTTL time.Duration
	// Размер кэша подписанных ссылок
	LinkCacheSize int
	// Время жизни ссылки в кэше (меньше DocumentLinkTTL)
	LinkCacheTTL time.Duration
	// Школа по умолчанию
	DefaultSchoolName string

	// --- Сверка ---

	// Интервал сверки авторизаций без документа (0 — отключена)
	ReconcileInterval time.Duration
	// Минимальный возраст авторизации для сверки
	ReconcileGrace time.Duration
	// Максимум авторизаций за один проход
	ReconcileBatchSize int

	// --- topologymetrics ---

	// Имя группы в метриках зависимостей
	DephealthGroup string
	// Интервал проверки зависимостей
	DephealthCheckInterval time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
//
//nolint:gocyclo // линейный разбор переменных окружения
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// CS_PORT — порт HTTP-сервера (по умолчанию 8080)
	cfg.Port, err = getEnvInt("CS_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("CS_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("CS_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	// CS_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("CS_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("CS_LOG_LEVEL: %w", err)
	}

	// CS_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("CS_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("CS_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// CS_PUBLIC_BASE_URL — внешний URL сервиса (по умолчанию http://localhost:<port>)
	cfg.PublicBaseURL = strings.TrimRight(
		getEnvDefault("CS_PUBLIC_BASE_URL", fmt.Sprintf("http://localhost:%d", cfg.Port)), "/")
	if u, parseErr := url.Parse(cfg.PublicBaseURL); parseErr != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("CS_PUBLIC_BASE_URL: некорректный URL %q", cfg.PublicBaseURL)
	}

	// CS_CORS_ALLOWED_ORIGINS — origins формы (по умолчанию *)
	cfg.CORSAllowedOrigins = parseCSV(getEnvDefault("CS_CORS_ALLOWED_ORIGINS", "*"))

	// CS_MAX_BODY_BYTES — лимит тела запроса (по умолчанию 5 MiB)
	maxBody, err := getEnvInt("CS_MAX_BODY_BYTES", 5<<20)
	if err != nil {
		return nil, fmt.Errorf("CS_MAX_BODY_BYTES: %w", err)
	}
	if maxBody < 1024 {
		return nil, fmt.Errorf("CS_MAX_BODY_BYTES: значение %d меньше 1024", maxBody)
	}
	cfg.MaxBodyBytes = int64(maxBody)

	// --- PostgreSQL ---

	// CS_DB_HOST — обязательный
	cfg.DBHost, err = getEnvRequired("CS_DB_HOST")
	if err != nil {
		return nil, err
	}

	// CS_DB_PORT — порт PostgreSQL (по умолчанию 5432)
	cfg.DBPort, err = getEnvInt("CS_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("CS_DB_PORT: %w", err)
	}

	// CS_DB_NAME — обязательный
	cfg.DBName, err = getEnvRequired("CS_DB_NAME")
	if err != nil {
		return nil, err
	}

	// CS_DB_USER — обязательный
	cfg.DBUser, err = getEnvRequired("CS_DB_USER")
	if err != nil {
		return nil, err
	}

	// CS_DB_PASSWORD — обязательный
	cfg.DBPassword, err = getEnvRequired("CS_DB_PASSWORD")
	if err != nil {
		return nil, err
	}

	// CS_DB_SSL_MODE — режим SSL (по умолчанию disable)
	cfg.DBSSLMode = getEnvDefault("CS_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return nil, fmt.Errorf("CS_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}

	// --- JWT ---

	// CS_JWT_JWKS_URL — обязательный
	cfg.JWTJWKSURL, err = getEnvRequired("CS_JWT_JWKS_URL")
	if err != nil {
		return nil, err
	}

	// CS_JWT_ISSUER — опциональный
	cfg.JWTIssuer = getEnvDefault("CS_JWT_ISSUER", "")

	// CS_JWT_CA_CERT_PATH — опциональный
	cfg.JWTCACertPath = getEnvDefault("CS_JWT_CA_CERT_PATH", "")

	// CS_JWT_LEEWAY — отклонение времени (по умолчанию 30s)
	cfg.JWTLeeway, err = getEnvDuration("CS_JWT_LEEWAY", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CS_JWT_LEEWAY: %w", err)
	}

	// CS_JWKS_REFRESH_INTERVAL — обновление ключей (по умолчанию 15m)
	cfg.JWKSRefreshInterval, err = getEnvDuration("CS_JWKS_REFRESH_INTERVAL", 15*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("CS_JWKS_REFRESH_INTERVAL: %w", err)
	}

	// CS_JWKS_CLIENT_TIMEOUT — таймаут клиента JWKS (по умолчанию 10s)
	cfg.JWKSClientTimeout, err = getEnvDuration("CS_JWKS_CLIENT_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CS_JWKS_CLIENT_TIMEOUT: %w", err)
	}

	// --- Маппинг групп → ролей ---

	// CS_ROLE_ADMIN_GROUPS — группы для роли admin (по умолчанию "cantina-admins")
	cfg.RoleAdminGroups = parseCSV(getEnvDefault("CS_ROLE_ADMIN_GROUPS", "cantina-admins"))

	// CS_ROLE_READONLY_GROUPS — группы для роли readonly (по умолчанию "cantina-viewers")
	cfg.RoleReadonlyGroups = parseCSV(getEnvDefault("CS_ROLE_READONLY_GROUPS", "cantina-viewers"))

	// --- Объектное хранилище ---

	// CS_STORAGE_BACKEND — fs или oss (по умолчанию fs)
	cfg.StorageBackend = getEnvDefault("CS_STORAGE_BACKEND", StorageBackendFS)

	// CS_STORAGE_BUCKET — bucket документов (по умолчанию cantina-termos)
	cfg.StorageBucket = getEnvDefault("CS_STORAGE_BUCKET", "cantina-termos")

	switch cfg.StorageBackend {
	case StorageBackendFS:
		// CS_STORAGE_DIR — корневая директория (по умолчанию /var/lib/cantina/documents)
		cfg.StorageDir = getEnvDefault("CS_STORAGE_DIR", "/var/lib/cantina/documents")

		// CS_STORAGE_SIGNING_KEY — обязательный для fs
		cfg.StorageSigningKey, err = getEnvRequired("CS_STORAGE_SIGNING_KEY")
		if err != nil {
			return nil, err
		}
		if len(cfg.StorageSigningKey) < 32 {
			return nil, fmt.Errorf("CS_STORAGE_SIGNING_KEY: ключ короче 32 байт")
		}
	case StorageBackendOSS:
		// CS_OSS_ENDPOINT, CS_OSS_ACCESS_KEY, CS_OSS_SECRET_KEY — обязательные для oss
		if cfg.OSSEndpoint, err = getEnvRequired("CS_OSS_ENDPOINT"); err != nil {
			return nil, err
		}
		if cfg.OSSAccessKey, err = getEnvRequired("CS_OSS_ACCESS_KEY"); err != nil {
			return nil, err
		}
		if cfg.OSSSecretKey, err = getEnvRequired("CS_OSS_SECRET_KEY"); err != nil {
			return nil, err
		}
		// CS_OSS_SECURITY_TOKEN — опциональный (STS)
		cfg.OSSSecurityToken = getEnvDefault("CS_OSS_SECURITY_TOKEN", "")
	default:
		return nil, fmt.Errorf("CS_STORAGE_BACKEND: недопустимое значение %q, допустимые: fs, oss", cfg.StorageBackend)
	}

	// --- Документы ---

	// CS_DOCUMENT_LINK_TTL — срок ссылки на PDF (по умолчанию 7 дней)
	cfg.DocumentLinkTTL, err = getEnvDuration("CS_DOCUMENT_LINK_TTL", 7*24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("CS_DOCUMENT_LINK_TTL: %w", err)
	}
	if cfg.DocumentLinkTTL <= 0 {
		return nil, fmt.Errorf("CS_DOCUMENT_LINK_TTL: значение должно быть больше нуля")
	}

	// CS_LINK_CACHE_SIZE — размер кэша ссылок (по умолчанию 1024)
	cfg.LinkCacheSize, err = getEnvInt("CS_LINK_CACHE_SIZE", 1024)
	if err != nil {
		return nil, fmt.Errorf("CS_LINK_CACHE_SIZE: %w", err)
	}
	if cfg.LinkCacheSize < 1 {
		return nil, fmt.Errorf("CS_LINK_CACHE_SIZE: значение %d меньше 1", cfg.LinkCacheSize)
	}

	// CS_LINK_CACHE_TTL — время жизни ссылки в кэше (по умолчанию 1h)
	cfg.LinkCacheTTL, err = getEnvDuration("CS_LINK_CACHE_TTL", time.Hour)
	if err != nil {
		return nil, fmt.Errorf("CS_LINK_CACHE_TTL: %w", err)
	}
	if cfg.LinkCacheTTL <= 0 || cfg.LinkCacheTTL >= cfg.DocumentLinkTTL {
		return nil, fmt.Errorf("CS_LINK_CACHE_TTL: значение %s должно быть в (0, CS_DOCUMENT_LINK_TTL)", cfg.LinkCacheTTL)
	}

	// CS_DEFAULT_SCHOOL_NAME — школа по умолчанию
	cfg.DefaultSchoolName = getEnvDefault("CS_DEFAULT_SCHOOL_NAME", "Colégio Órion")

	// --- Сверка ---

	// CS_RECONCILE_INTERVAL — интервал сверки (по умолчанию 10m, 0 — отключена)
	cfg.ReconcileInterval, err = getEnvDuration("CS_RECONCILE_INTERVAL", 10*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("CS_RECONCILE_INTERVAL: %w", err)
	}
	if cfg.ReconcileInterval < 0 {
		return nil, fmt.Errorf("CS_RECONCILE_INTERVAL: отрицательное значение")
	}

	// CS_RECONCILE_GRACE — минимальный возраст авторизации (по умолчанию 5m)
	cfg.ReconcileGrace, err = getEnvDuration("CS_RECONCILE_GRACE", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("CS_RECONCILE_GRACE: %w", err)
	}

	// CS_RECONCILE_BATCH_SIZE — авторизаций за проход (по умолчанию 50)
	cfg.ReconcileBatchSize, err = getEnvInt("CS_RECONCILE_BATCH_SIZE", 50)
	if err != nil {
		return nil, fmt.Errorf("CS_RECONCILE_BATCH_SIZE: %w", err)
	}
	if cfg.ReconcileBatchSize < 1 || cfg.ReconcileBatchSize > 1000 {
		return nil, fmt.Errorf("CS_RECONCILE_BATCH_SIZE: значение %d вне допустимого диапазона 1-1000", cfg.ReconcileBatchSize)
	}

	// --- topologymetrics ---

	// CS_DEPHEALTH_GROUP — группа в метриках (по умолчанию cantina)
	cfg.DephealthGroup = getEnvDefault("CS_DEPHEALTH_GROUP", "cantina")

	// CS_DEPHEALTH_CHECK_INTERVAL — интервал проверки зависимостей (по умолчанию 15s)
	cfg.DephealthCheckInterval, err = getEnvDuration("CS_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CS_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// --- Graceful shutdown ---

	// CS_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("CS_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CS_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// DatabaseURL возвращает URL PostgreSQL без пароля (для лейблов метрик).
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s@%s:%d/%s", url.PathEscape(c.DBUser), c.DBHost, c.DBPort, c.DBName)
}

// MigrateURL возвращает URL для golang-migrate (драйвер pgx5).
func (c *Config) MigrateURL() string {
	u := url.URL{
		Scheme:   "pgx5",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     fmt.Sprintf("%s:%d", c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.DBSSLMode),
	}
	return u.String()
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}

// parseCSV разбирает строку, разделённую запятыми, на срез строк.
// Пробелы вокруг элементов убираются, пустые элементы игнорируются.
func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
