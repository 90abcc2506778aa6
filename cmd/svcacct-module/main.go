// Точка входа Service Account Module - онбординг AD service account
// в Vault для ротации пароля.
// Загружает конфигурацию, создаёт клиенты Vault и AD, сервисный слой,
// при заданном SAM_DB_HOST подключает журнал саг в PostgreSQL,
// запускает topologymetrics и HTTP-сервер с JWT middleware и graceful shutdown.
package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/bigkaa/goartstore/svcacct-module/internal/api/handlers"
	"github.com/bigkaa/goartstore/svcacct-module/internal/api/middleware"
	"github.com/bigkaa/goartstore/svcacct-module/internal/api/openapi"
	"github.com/bigkaa/goartstore/svcacct-module/internal/config"
	"github.com/bigkaa/goartstore/svcacct-module/internal/database"
	"github.com/bigkaa/goartstore/svcacct-module/internal/directory"
	"github.com/bigkaa/goartstore/svcacct-module/internal/domain/rbac"
	"github.com/bigkaa/goartstore/svcacct-module/internal/repository"
	"github.com/bigkaa/goartstore/svcacct-module/internal/server"
	"github.com/bigkaa/goartstore/svcacct-module/internal/service"
	"github.com/bigkaa/goartstore/svcacct-module/internal/vault"
)

func main() {
	// 1. Конфигурация
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Логирование
	logger := config.SetupLogger(cfg)
	logger.Info("Service Account Module запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("auth_method", cfg.VaultAuthMethod),
	)

	if os.Getenv("SAM_DEPHEALTH_GROUP") == "" {
		logger.Warn("SAM_DEPHEALTH_GROUP не задана, используется значение по умолчанию",
			slog.String("default", cfg.DephealthGroup),
		)
	}

	ctx := context.Background()

	// 3. Клиент Vault
	vaultClient, err := vault.New(vault.Options{
		Address:    cfg.VaultAddr,
		Namespace:  cfg.VaultNamespace,
		CACertPath: cfg.VaultCACertPath,
		SkipVerify: cfg.VaultSkipVerify,
		Timeout:    cfg.VaultTimeout,
		ADMount:    cfg.VaultADMount,
	}, logger)
	if err != nil {
		logger.Error("Ошибка создания клиента Vault", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Поиск в AD
	searcher := directory.New(directory.Options{
		URL:          cfg.LDAPURL,
		BindDN:       cfg.LDAPBindDN,
		BindPassword: cfg.LDAPBindPassword,
		BaseDN:       cfg.LDAPBaseDN,
		StartTLS:     cfg.LDAPStartTLS,
		PageSize:     cfg.LDAPPageSize,
		Timeout:      cfg.LDAPTimeout,
		MaxPwdAge:    cfg.ADMaxPwdAge,
	}, logger)

	// 5. Журнал саг (опционально)
	var (
		journal   service.SagaJournal
		pool      *pgxpool.Pool
		pgDB      *sql.DB
		pgChecker handlers.ReadinessChecker
	)
	if cfg.JournalEnabled() {
		logger.Info("Применение миграций БД...")
		if err := database.Migrate(cfg, logger); err != nil {
			logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
			os.Exit(1)
		}

		pool, err = database.Connect(ctx, cfg, logger)
		if err != nil {
			logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer pool.Close()

		// Проверка PostgreSQL в topologymetrics идёт через тот же пул
		pgDB = stdlib.OpenDBFromPool(pool)
		defer pgDB.Close()

		journal = repository.NewSagaRunRepository(pool)
		pgChecker = database.NewReadinessChecker(pool)
	} else {
		logger.Info("Журнал саг отключён (SAM_DB_HOST не задан)")
	}

	// 6. Сервисный слой
	catalog, err := service.LoadPolicyCatalog()
	if err != nil {
		logger.Error("Ошибка загрузки каталога политик", slog.String("error", err.Error()))
		os.Exit(1)
	}

	backend, err := service.NewMembershipBackend(cfg.VaultAuthMethod, vaultClient)
	if err != nil {
		logger.Error("Ошибка выбора auth backend", slog.String("error", err.Error()))
		os.Exit(1)
	}

	accountsSvc := service.NewServiceAccountService(
		service.NewRegistrar(vaultClient, logger),
		service.NewPolicyManager(vaultClient, catalog, cfg.VaultADMount, logger),
		service.NewMembershipManager(backend, catalog, logger),
		vaultClient,
		rbac.AdminOnly{},
		journal,
		cfg.ADDomainSuffix,
		logger,
	)
	lookupSvc := service.NewDirectoryLookupService(searcher, accountsSvc, logger)

	// 7. Readiness checkers
	kcChecker, err := middleware.NewKeycloakReadinessChecker(cfg.JWTJWKSURL, cfg.KeycloakCACertPath, cfg.JWKSClientTimeout)
	if err != nil {
		logger.Error("Ошибка создания Keycloak readiness checker", slog.String("error", err.Error()))
		os.Exit(1)
	}
	healthHandler := handlers.NewHealthHandler(handlers.ReadinessCheckers{
		Vault:      vaultClient,
		Directory:  searcher,
		Keycloak:   kcChecker,
		PostgreSQL: pgChecker,
	})

	// 8. OpenAPI-контракт
	contract, err := openapi.JSON(ctx)
	if err != nil {
		logger.Error("Ошибка загрузки OpenAPI-контракта", slog.String("error", err.Error()))
		os.Exit(1)
	}

	apiHandler := handlers.NewAPIHandler(healthHandler, accountsSvc, lookupSvc, contract, logger)

	// 9. JWT middleware
	jwtAuth, err := middleware.NewJWTAuth(
		cfg.JWTJWKSURL,
		cfg.KeycloakCACertPath,
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

	// 10. topologymetrics - Vault и, при включённом журнале, PostgreSQL
	dephealthCfg := service.DephealthConfig{
		ServiceID:       "svcacct-module",
		Group:           cfg.DephealthGroup,
		VaultAddr:       cfg.VaultAddr,
		VaultSkipVerify: cfg.VaultSkipVerify,
		CheckInterval:   cfg.DephealthCheckInterval,
	}
	if pgDB != nil {
		dephealthCfg.DB = pgDB
		dephealthCfg.PgConnURL = cfg.DatabaseURL()
	}

	dephealthSvc, dephealthErr := service.NewDephealthService(dephealthCfg, logger)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
		dephealthSvc = nil
	} else if startErr := dephealthSvc.Start(ctx); startErr != nil {
		logger.Warn("Ошибка запуска topologymetrics", slog.String("error", startErr.Error()))
		dephealthSvc = nil
	}

	// 11. HTTP-сервер
	srv := server.New(cfg, logger, apiHandler, jwtAuth)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}
	logger.Info("Service Account Module остановлен")
}
