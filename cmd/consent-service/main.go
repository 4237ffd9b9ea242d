// Точка входа сервиса авторизаций кантины.
// Загружает конфигурацию, применяет миграции, подключается к PostgreSQL,
// создаёт объектное хранилище, конвейер приёма формы и административные
// сервисы, запускает сверку документов, topologymetrics и HTTP-сервер
// с graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/rafarisso/Cadastro-Cantina/internal/api/handlers"
	"github.com/rafarisso/Cadastro-Cantina/internal/api/middleware"
	"github.com/rafarisso/Cadastro-Cantina/internal/config"
	"github.com/rafarisso/Cadastro-Cantina/internal/database"
	"github.com/rafarisso/Cadastro-Cantina/internal/objectstore"
	"github.com/rafarisso/Cadastro-Cantina/internal/render"
	"github.com/rafarisso/Cadastro-Cantina/internal/repository"
	"github.com/rafarisso/Cadastro-Cantina/internal/server"
	"github.com/rafarisso/Cadastro-Cantina/internal/service"
	"github.com/rafarisso/Cadastro-Cantina/internal/validation"
)

const serviceID = "consent-service"

func main() {
	// 1. Конфигурация
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Логирование
	logger := config.SetupLogger(cfg)
	logger.Info("Сервис авторизаций запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("storage_backend", cfg.StorageBackend),
	)

	if os.Getenv("CS_DEPHEALTH_GROUP") == "" {
		logger.Warn("CS_DEPHEALTH_GROUP не задана, используется значение по умолчанию",
			slog.String("default", cfg.DephealthGroup),
		)
	}

	// 3. Миграции БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. PostgreSQL (pgxpool)
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 4.1 Адаптер pgxpool → *sql.DB для topologymetrics (connection pool mode)
	pgDB := stdlib.OpenDBFromPool(pool)
	defer pgDB.Close()

	// 5. Объектное хранилище
	store, files, err := openStore(cfg)
	if err != nil {
		logger.Error("Ошибка инициализации объектного хранилища", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Объектное хранилище инициализировано",
		slog.String("backend", cfg.StorageBackend),
		slog.String("bucket", store.Bucket()),
	)

	// 6. Repositories
	authRepo := repository.NewAuthorizationRepository(pool)
	docRepo := repository.NewDocumentRepository(pool)
	auditRepo := repository.NewAuditLogRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	// 7. Services
	renderer := render.NewRenderer()
	submissionSvc := service.NewSubmissionService(
		validation.New(cfg.DefaultSchoolName),
		service.NewTxIdentityResolver(txRunner),
		authRepo, docRepo, auditRepo,
		store,
		renderer,
		cfg.DocumentLinkTTL,
		logger,
	)
	authorizationSvc := service.NewAuthorizationService(
		authRepo, docRepo,
		store,
		service.NewLinkCache(cfg.LinkCacheSize, cfg.LinkCacheTTL),
		cfg.DocumentLinkTTL,
		logger,
	)
	reconcileSvc := service.NewReconcileService(
		authRepo, docRepo, auditRepo,
		store,
		renderer,
		cfg.ReconcileInterval, cfg.ReconcileGrace,
		cfg.ReconcileBatchSize,
		logger,
	)

	// 8. Readiness checkers (PostgreSQL + JWKS + хранилище)
	pgChecker := database.NewReadinessChecker(pool)
	jwksChecker, err := middleware.NewJWKSReadinessChecker(cfg.JWTJWKSURL, cfg.JWTCACertPath, cfg.JWKSClientTimeout)
	if err != nil {
		logger.Error("Ошибка создания JWKS readiness checker", slog.String("error", err.Error()))
		os.Exit(1)
	}
	healthHandler := handlers.NewHealthHandler(pgChecker, jwksChecker, store)

	// 9. API handler
	apiHandler := handlers.NewAPIHandler(
		healthHandler,
		submissionSvc,
		authorizationSvc,
		files,
		cfg.MaxBodyBytes,
		logger,
	)

	// 10. JWT middleware
	jwtAuth, err := middleware.NewJWTAuth(
		cfg.JWTJWKSURL,
		cfg.JWTCACertPath,
		cfg.JWTIssuer,
		cfg.RoleAdminGroups,
		cfg.RoleReadonlyGroups,
		cfg.JWKSClientTimeout,
		cfg.JWKSRefreshInterval,
		cfg.JWTLeeway,
		logger,
	)
	if err != nil {
		logger.Error("Ошибка создания JWT middleware", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("JWT middleware инициализирован",
		slog.String("jwks_url", cfg.JWTJWKSURL),
		slog.String("issuer", cfg.JWTIssuer),
	)

	// 11. Фоновая сверка документов
	reconcileSvc.Start(ctx)

	// 11.1 topologymetrics — мониторинг зависимостей (PostgreSQL + JWKS)
	dephealthSvc, dephealthErr := service.NewDephealthService(service.DephealthOptions{
		ServiceID:     serviceID,
		Group:         cfg.DephealthGroup,
		DB:            pgDB,
		PostgresURL:   cfg.DatabaseURL(),
		JWKSURL:       cfg.JWTJWKSURL,
		CheckInterval: cfg.DephealthCheckInterval,
	}, logger)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
		dephealthSvc = nil
	} else if startErr := dephealthSvc.Start(ctx); startErr != nil {
		logger.Warn("Ошибка запуска topologymetrics",
			slog.String("error", startErr.Error()),
		)
		dephealthSvc = nil
	} else {
		logger.Info("topologymetrics запущен",
			slog.String("group", cfg.DephealthGroup),
			slog.String("check_interval", cfg.DephealthCheckInterval.String()),
		)
	}

	// 12. HTTP-сервер
	srv := server.New(cfg, logger, apiHandler, jwtAuth)
	runErr := srv.Run()

	// 13. Остановка фоновых задач
	logger.Info("Останавливаем фоновые задачи...")
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}
	reconcileSvc.Stop()

	if runErr != nil {
		logger.Error("Ошибка сервера", slog.String("error", runErr.Error()))
		os.Exit(1)
	}
	logger.Info("Сервис авторизаций остановлен")
}

// openStore создаёт хранилище по CS_STORAGE_BACKEND. Для fs дополнительно
// возвращает обработчик скачивания по подписанным ссылкам, для oss — nil.
func openStore(cfg *config.Config) (objectstore.Store, handlers.DocumentFiles, error) {
	if cfg.StorageBackend == config.StorageBackendOSS {
		store, err := objectstore.NewOSS(objectstore.OSSConfig{
			Endpoint:      cfg.OSSEndpoint,
			AccessKey:     cfg.OSSAccessKey,
			SecretKey:     cfg.OSSSecretKey,
			SecurityToken: cfg.OSSSecurityToken,
			Bucket:        cfg.StorageBucket,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	}

	store, err := objectstore.NewFS(cfg.StorageDir, cfg.StorageBucket, cfg.PublicBaseURL, []byte(cfg.StorageSigningKey))
	if err != nil {
		return nil, nil, err
	}
	return store, store, nil
}
