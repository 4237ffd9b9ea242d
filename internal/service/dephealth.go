// dephealth.go — мониторинг зависимостей через topologymetrics SDK.
//
// Сервис мониторит две критичные зависимости:
//   - PostgreSQL — SQL checker через существующий pgxpool (connection pool mode)
//   - JWKS провайдера идентификации — HTTP checker к URL ключей
//
// Метрики доступны на /metrics вместе с остальными Prometheus-метриками:
//   - app_dependency_health — состояние зависимости (1 = ok, 0 = fail)
//   - app_dependency_latency_seconds — задержка проверки
//   - app_dependency_status — категория статуса
//   - app_dependency_status_detail — детальный статус
package service

import (
	"context"
	"database/sql"
	"log/slog"
	"net/url"
	"time"

	"github.com/BigKAA/topologymetrics/sdk-go/dephealth"
	_ "github.com/BigKAA/topologymetrics/sdk-go/dephealth/checks/httpcheck" // HTTP checker для JWKS
	"github.com/BigKAA/topologymetrics/sdk-go/dephealth/checks/pgcheck"     // PostgreSQL checker (pool mode)
	"github.com/prometheus/client_golang/prometheus"
)

// DephealthService — сервис мониторинга зависимостей через topologymetrics.
type DephealthService struct {
	dh     *dephealth.DepHealth
	logger *slog.Logger
}

// DephealthOptions — параметры мониторинга.
type DephealthOptions struct {
	// ServiceID — имя вершины графа (например, "consent-service")
	ServiceID string
	// Group — группа в метриках (CS_DEPHEALTH_GROUP)
	Group string
	// DB — *sql.DB поверх pgxpool (stdlib.OpenDBFromPool)
	DB *sql.DB
	// PostgresURL — URL PostgreSQL без пароля, только для лейблов
	PostgresURL string
	// JWKSURL — URL ключей провайдера идентификации
	JWKSURL string
	// CheckInterval — интервал проверки (CS_DEPHEALTH_CHECK_INTERVAL)
	CheckInterval time.Duration
	// Registerer — Prometheus registerer; nil — глобальный
	Registerer prometheus.Registerer
}

// NewDephealthService создаёт сервис мониторинга зависимостей.
func NewDephealthService(o DephealthOptions, logger *slog.Logger) (*DephealthService, error) {
	opts := []dephealth.Option{
		dephealth.WithLogger(logger),
		// pgcheck.New + AddDependency напрямую, без contrib/sqldb
		dephealth.AddDependency("postgresql", dephealth.TypePostgres,
			pgcheck.New(pgcheck.WithDB(o.DB)),
			dephealth.FromURL(o.PostgresURL),
			dephealth.CheckInterval(o.CheckInterval),
			dephealth.Critical(true),
		),
		dephealth.HTTP("idp-jwks",
			dephealth.FromURL(o.JWKSURL),
			dephealth.WithHTTPHealthPath(jwksHealthPath(o.JWKSURL)),
			dephealth.CheckInterval(o.CheckInterval),
			dephealth.Critical(true),
		),
	}
	if o.Registerer != nil {
		opts = append(opts, dephealth.WithRegisterer(o.Registerer))
	}

	dh, err := dephealth.New(o.ServiceID, o.Group, opts...)
	if err != nil {
		return nil, err
	}

	return &DephealthService{
		dh:     dh,
		logger: logger.With(slog.String("component", "dephealth")),
	}, nil
}

// jwksHealthPath возвращает path самого JWKS URL: /health у провайдеров
// идентификации часто доступен только на management-порту.
func jwksHealthPath(jwksURL string) string {
	if parsed, err := url.Parse(jwksURL); err == nil && parsed.Path != "" {
		return parsed.Path
	}
	return "/health"
}

// Start запускает периодическую проверку зависимостей.
func (ds *DephealthService) Start(ctx context.Context) error {
	ds.logger.Info("Мониторинг зависимостей запущен (PostgreSQL + JWKS)")
	return ds.dh.Start(ctx)
}

// Stop останавливает мониторинг зависимостей.
func (ds *DephealthService) Stop() {
	ds.dh.Stop()
	ds.logger.Info("Мониторинг зависимостей остановлен")
}

// Health возвращает текущее состояние зависимостей.
// Ключ — имя зависимости, значение — true если ok.
func (ds *DephealthService) Health() map[string]bool {
	return ds.dh.Health()
}
