// Пакет vault - клиент HashiCorp Vault для Service Account Module.
// Все операции выполняются токеном вызывающего: для каждого вызова
// клонируется базовый api.Client и в него подставляется токен.
// Повторы запросов отключены.
package vault

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/vault/api"
)

// Options - параметры подключения к Vault.
type Options struct {
	// Address - адрес Vault (https://vault:8200)
	Address string
	// Namespace - namespace Vault Enterprise (опционально)
	Namespace string
	// CACertPath - путь к CA-сертификату (опционально)
	CACertPath string
	// SkipVerify - отключить проверку TLS
	SkipVerify bool
	// Timeout - таймаут HTTP-запросов
	Timeout time.Duration
	// ADMount - точка монтирования AD secrets engine
	ADMount string
}

// Client - клиент Vault.
type Client struct {
	api       *api.Client
	namespace string
	adMount   string
	logger    *slog.Logger
}

// New создаёт клиент Vault.
// Токен из VAULT_TOKEN игнорируется: запросы подписываются только токеном вызывающего.
func New(opts Options, logger *slog.Logger) (*Client, error) {
	cfg := api.DefaultConfig()
	if cfg.Error != nil {
		return nil, fmt.Errorf("конфигурация Vault: %w", cfg.Error)
	}
	cfg.Address = opts.Address
	cfg.MaxRetries = 0
	if opts.Timeout > 0 {
		cfg.Timeout = opts.Timeout
	}

	if opts.CACertPath != "" || opts.SkipVerify {
		if err := cfg.ConfigureTLS(&api.TLSConfig{
			CACert:   opts.CACertPath,
			Insecure: opts.SkipVerify, //nolint:gosec // управляется SAM_VAULT_SKIP_VERIFY
		}); err != nil {
			return nil, fmt.Errorf("настройка TLS Vault: %w", err)
		}
	}

	client, err := api.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("создание клиента Vault: %w", err)
	}
	client.ClearToken()
	if opts.Namespace != "" {
		client.SetNamespace(opts.Namespace)
	}

	mount := opts.ADMount
	if mount == "" {
		mount = "ad"
	}

	return &Client{
		api:       client,
		namespace: opts.Namespace,
		adMount:   mount,
		logger:    logger.With(slog.String("component", "vault_client")),
	}, nil
}

// Address возвращает адрес Vault.
func (c *Client) Address() string {
	return c.api.Address()
}

// withToken возвращает копию клиента с токеном вызывающего.
func (c *Client) withToken(token string) (*api.Client, error) {
	clone, err := c.api.Clone()
	if err != nil {
		return nil, fmt.Errorf("клонирование клиента Vault: %w", err)
	}
	clone.SetToken(token)
	if c.namespace != "" {
		clone.SetNamespace(c.namespace)
	}
	return clone, nil
}

// read читает путь. Отсутствующий путь или пустые данные - ErrNotFound.
func (c *Client) read(ctx context.Context, token, path string) (map[string]any, error) {
	client, err := c.withToken(token)
	if err != nil {
		return nil, err
	}
	secret, err := client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, err
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return secret.Data, nil
}

func (c *Client) write(ctx context.Context, token, path string, data map[string]any) (map[string]any, error) {
	client, err := c.withToken(token)
	if err != nil {
		return nil, err
	}
	secret, err := client.Logical().WriteWithContext(ctx, path, data)
	if err != nil {
		return nil, err
	}
	if secret == nil {
		return nil, nil
	}
	return secret.Data, nil
}

func (c *Client) delete(ctx context.Context, token, path string) error {
	client, err := c.withToken(token)
	if err != nil {
		return err
	}
	_, err = client.Logical().DeleteWithContext(ctx, path)
	return err
}

// list возвращает keys пути. Пустой список - ErrNotFound.
func (c *Client) list(ctx context.Context, token, path string) ([]string, error) {
	client, err := c.withToken(token)
	if err != nil {
		return nil, err
	}
	secret, err := client.Logical().ListWithContext(ctx, path)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, err
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return toStrings(secret.Data["keys"]), nil
}

// CheckReady проверяет состояние Vault через sys/health.
func (c *Client) CheckReady() (status, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	health, err := c.api.Sys().HealthWithContext(ctx)
	if err != nil {
		return "fail", fmt.Sprintf("Vault недоступен: %v", err)
	}
	if !health.Initialized {
		return "fail", "Vault не инициализирован"
	}
	if health.Sealed {
		return "fail", "Vault запечатан"
	}
	if health.Standby {
		return "degraded", fmt.Sprintf("Vault %s в режиме standby", health.Version)
	}
	return "ok", fmt.Sprintf("Vault %s активен", health.Version)
}
