// Пакет config - загрузка и валидация конфигурации Service Account Module
// из переменных окружения.
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

// Допустимые методы аутентификации Vault, в которых хранятся участники SA.
const (
	AuthMethodLDAP     = "ldap"
	AuthMethodUserpass = "userpass"
)

// Config содержит все параметры конфигурации Service Account Module.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера (диапазон 8000-8009)
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- Vault ---

	// Адрес Vault (например, https://vault.kryukov.lan:8200)
	VaultAddr string
	// Namespace Vault Enterprise (опционально)
	VaultNamespace string
	// Путь к CA-сертификату Vault (опционально)
	VaultCACertPath string
	// Отключить проверку TLS-сертификата Vault
	VaultSkipVerify bool
	// Таймаут запросов к Vault
	VaultTimeout time.Duration
	// Метод аутентификации, в котором хранятся политики участников (ldap, userpass)
	VaultAuthMethod string
	// Точка монтирования AD secrets engine
	VaultADMount string

	// --- Active Directory ---

	// Домен, добавляемый к имени SA (service_account_name = name@domain)
	ADDomainSuffix string
	// URL LDAP-сервера (ldap:// или ldaps://)
	LDAPURL string
	// DN для bind
	LDAPBindDN string
	// Пароль для bind
	LDAPBindPassword string
	// Base DN поиска учётных записей
	LDAPBaseDN string
	// Выполнять StartTLS после подключения по ldap://
	LDAPStartTLS bool
	// Размер страницы постраничного поиска
	LDAPPageSize int
	// Таймаут операций LDAP
	LDAPTimeout time.Duration
	// Максимальный срок действия пароля в домене (дни)
	ADMaxPwdAge int

	// --- PostgreSQL (журнал саг, опционально) ---

	// Хост PostgreSQL; пустое значение отключает журнал
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

	// --- Keycloak / JWT ---

	// URL Keycloak (например, https://keycloak.kryukov.lan)
	KeycloakURL string
	// Имя realm в Keycloak
	KeycloakRealm string
	// Issuer JWT (авто-вычисляется из KeycloakURL, если не задан)
	JWTIssuer string
	// URL JWKS endpoint (авто-вычисляется из KeycloakURL, если не задан)
	JWTJWKSURL string
	// Путь к CA-сертификату Keycloak (опционально)
	KeycloakCACertPath string
	// Таймаут HTTP-клиента JWKS
	JWKSClientTimeout time.Duration
	// Интервал обновления JWKS-ключей
	JWKSRefreshInterval time.Duration
	// Допустимое отклонение времени при проверке JWT
	JWTLeeway time.Duration

	// --- Маппинг групп → ролей ---

	// Группы Keycloak, дающие роль admin (через запятую)
	RoleAdminGroups []string
	// Группы Keycloak, дающие роль readonly (через запятую)
	RoleReadonlyGroups []string

	// --- topologymetrics ---

	// Группа в метриках зависимостей
	DephealthGroup string
	// Интервал проверки зависимостей topologymetrics
	DephealthCheckInterval time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// SAM_PORT - порт HTTP-сервера (по умолчанию 8000)
	cfg.Port, err = getEnvInt("SAM_PORT", 8000)
	if err != nil {
		return nil, fmt.Errorf("SAM_PORT: %w", err)
	}
	if cfg.Port < 8000 || cfg.Port > 8009 {
		return nil, fmt.Errorf("SAM_PORT: значение %d вне допустимого диапазона 8000-8009", cfg.Port)
	}

	cfg.LogLevel, err = parseLogLevel(getEnvDefault("SAM_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("SAM_LOG_LEVEL: %w", err)
	}

	cfg.LogFormat = getEnvDefault("SAM_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("SAM_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- Vault ---

	// SAM_VAULT_ADDR - обязательный
	cfg.VaultAddr, err = getEnvRequired("SAM_VAULT_ADDR")
	if err != nil {
		return nil, err
	}
	cfg.VaultAddr = strings.TrimRight(cfg.VaultAddr, "/")
	if _, err := url.ParseRequestURI(cfg.VaultAddr); err != nil {
		return nil, fmt.Errorf("SAM_VAULT_ADDR: некорректный URL %q", cfg.VaultAddr)
	}

	cfg.VaultNamespace = getEnvDefault("SAM_VAULT_NAMESPACE", "")
	cfg.VaultCACertPath = getEnvDefault("SAM_VAULT_CA_CERT_PATH", "")

	cfg.VaultSkipVerify, err = getEnvBool("SAM_VAULT_SKIP_VERIFY", false)
	if err != nil {
		return nil, fmt.Errorf("SAM_VAULT_SKIP_VERIFY: %w", err)
	}

	cfg.VaultTimeout, err = getEnvDuration("SAM_VAULT_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("SAM_VAULT_TIMEOUT: %w", err)
	}

	// SAM_VAULT_AUTH_METHOD - ldap (по умолчанию) или userpass
	cfg.VaultAuthMethod = strings.ToLower(getEnvDefault("SAM_VAULT_AUTH_METHOD", AuthMethodLDAP))
	if cfg.VaultAuthMethod != AuthMethodLDAP && cfg.VaultAuthMethod != AuthMethodUserpass {
		return nil, fmt.Errorf("SAM_VAULT_AUTH_METHOD: недопустимое значение %q, допустимые: ldap, userpass", cfg.VaultAuthMethod)
	}

	cfg.VaultADMount = strings.Trim(getEnvDefault("SAM_VAULT_AD_MOUNT", "ad"), "/")

	// --- Active Directory ---

	cfg.ADDomainSuffix, err = getEnvRequired("SAM_AD_DOMAIN_SUFFIX")
	if err != nil {
		return nil, err
	}
	cfg.ADDomainSuffix = strings.TrimPrefix(cfg.ADDomainSuffix, "@")

	cfg.LDAPURL, err = getEnvRequired("SAM_LDAP_URL")
	if err != nil {
		return nil, err
	}

	cfg.LDAPBaseDN, err = getEnvRequired("SAM_LDAP_BASE_DN")
	if err != nil {
		return nil, err
	}

	cfg.LDAPBindDN = getEnvDefault("SAM_LDAP_BIND_DN", "")
	cfg.LDAPBindPassword = getEnvDefault("SAM_LDAP_BIND_PASSWORD", "")
	if cfg.LDAPBindDN != "" && cfg.LDAPBindPassword == "" {
		return nil, fmt.Errorf("SAM_LDAP_BIND_PASSWORD: обязателен при заданном SAM_LDAP_BIND_DN")
	}

	cfg.LDAPStartTLS, err = getEnvBool("SAM_LDAP_START_TLS", false)
	if err != nil {
		return nil, fmt.Errorf("SAM_LDAP_START_TLS: %w", err)
	}

	cfg.LDAPPageSize, err = getEnvInt("SAM_LDAP_PAGE_SIZE", 500)
	if err != nil {
		return nil, fmt.Errorf("SAM_LDAP_PAGE_SIZE: %w", err)
	}
	if cfg.LDAPPageSize < 1 || cfg.LDAPPageSize > 5000 {
		return nil, fmt.Errorf("SAM_LDAP_PAGE_SIZE: значение %d вне допустимого диапазона 1-5000", cfg.LDAPPageSize)
	}

	cfg.LDAPTimeout, err = getEnvDuration("SAM_LDAP_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("SAM_LDAP_TIMEOUT: %w", err)
	}

	cfg.ADMaxPwdAge, err = getEnvInt("SAM_AD_MAX_PWD_AGE", 90)
	if err != nil {
		return nil, fmt.Errorf("SAM_AD_MAX_PWD_AGE: %w", err)
	}

	// --- PostgreSQL ---

	// SAM_DB_HOST - опциональный; без него журнал саг не ведётся
	cfg.DBHost = getEnvDefault("SAM_DB_HOST", "")
	if cfg.DBHost != "" {
		if err := loadDatabase(cfg); err != nil {
			return nil, err
		}
	}

	// --- Keycloak / JWT ---

	cfg.KeycloakURL, err = getEnvRequired("SAM_KEYCLOAK_URL")
	if err != nil {
		return nil, err
	}
	cfg.KeycloakURL = strings.TrimRight(cfg.KeycloakURL, "/")

	cfg.KeycloakRealm = getEnvDefault("SAM_KEYCLOAK_REALM", "tvault")

	cfg.JWTIssuer = getEnvDefault("SAM_JWT_ISSUER",
		fmt.Sprintf("%s/realms/%s", cfg.KeycloakURL, cfg.KeycloakRealm))

	cfg.JWTJWKSURL = getEnvDefault("SAM_JWT_JWKS_URL",
		fmt.Sprintf("%s/realms/%s/protocol/openid-connect/certs", cfg.KeycloakURL, cfg.KeycloakRealm))

	cfg.KeycloakCACertPath = getEnvDefault("SAM_KEYCLOAK_CA_CERT", "")

	cfg.JWKSClientTimeout, err = getEnvDuration("SAM_JWKS_CLIENT_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("SAM_JWKS_CLIENT_TIMEOUT: %w", err)
	}

	cfg.JWKSRefreshInterval, err = getEnvDuration("SAM_JWKS_REFRESH_INTERVAL", 15*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("SAM_JWKS_REFRESH_INTERVAL: %w", err)
	}

	cfg.JWTLeeway, err = getEnvDuration("SAM_JWT_LEEWAY", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("SAM_JWT_LEEWAY: %w", err)
	}

	// --- Маппинг групп → ролей ---

	cfg.RoleAdminGroups = parseCSV(getEnvDefault("SAM_ROLE_ADMIN_GROUPS", "svcacct-admins"))
	cfg.RoleReadonlyGroups = parseCSV(getEnvDefault("SAM_ROLE_READONLY_GROUPS", "svcacct-auditors"))

	// --- topologymetrics ---

	cfg.DephealthGroup = getEnvDefault("SAM_DEPHEALTH_GROUP", "tvault")

	cfg.DephealthCheckInterval, err = getEnvDuration("SAM_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("SAM_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// --- Graceful shutdown ---

	cfg.ShutdownTimeout, err = getEnvDuration("SAM_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("SAM_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// loadDatabase читает параметры PostgreSQL; вызывается только при заданном SAM_DB_HOST.
func loadDatabase(cfg *Config) error {
	var err error

	cfg.DBPort, err = getEnvInt("SAM_DB_PORT", 5432)
	if err != nil {
		return fmt.Errorf("SAM_DB_PORT: %w", err)
	}

	if cfg.DBName, err = getEnvRequired("SAM_DB_NAME"); err != nil {
		return err
	}
	if cfg.DBUser, err = getEnvRequired("SAM_DB_USER"); err != nil {
		return err
	}
	if cfg.DBPassword, err = getEnvRequired("SAM_DB_PASSWORD"); err != nil {
		return err
	}

	cfg.DBSSLMode = getEnvDefault("SAM_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return fmt.Errorf("SAM_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}
	return nil
}

// JournalEnabled сообщает, настроен ли PostgreSQL для журнала саг.
func (c *Config) JournalEnabled() bool {
	return c.DBHost != ""
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
	return fmt.Sprintf("postgres://%s:%d/%s", c.DBHost, c.DBPort, c.DBName)
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

func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное логическое значение: %q", val)
	}
	return b, nil
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
