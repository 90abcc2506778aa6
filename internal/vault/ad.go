package vault

import (
	"context"

	"github.com/bigkaa/goartstore/svcacct-module/internal/domain/model"
)

// --- AD secrets engine ---

func (c *Client) rolePath(name string) string {
	return c.adMount + "/roles/" + name
}

// CreateRole создаёт роль ротации пароля для учётной записи AD.
// Повторное создание не идемпотентно: ошибка Vault возвращается как есть.
func (c *Client) CreateRole(ctx context.Context, token string, ttl model.ServiceAccountTTL) error {
	_, err := c.write(ctx, token, c.rolePath(ttl.RoleName), map[string]any{
		"service_account_name": ttl.ServiceAccountName,
		"ttl":                  ttl.TTL,
	})
	return err
}

// DeleteRole удаляет роль ротации.
func (c *Client) DeleteRole(ctx context.Context, token, roleName string) error {
	return c.delete(ctx, token, c.rolePath(roleName))
}

// ReadRole возвращает данные роли: service_account_name, last_vault_rotation,
// password_last_set, ttl.
func (c *Client) ReadRole(ctx context.Context, token, roleName string) (map[string]any, error) {
	return c.read(ctx, token, c.rolePath(roleName))
}

// ListRoles возвращает имена всех ролей AD secrets engine.
func (c *Client) ListRoles(ctx context.Context, token string) ([]string, error) {
	return c.list(ctx, token, c.adMount+"/roles")
}

// RotateRole принудительно меняет пароль учётной записи роли.
func (c *Client) RotateRole(ctx context.Context, token, roleName string) error {
	_, err := c.write(ctx, token, c.adMount+"/rotate-role/"+roleName, nil)
	return err
}

// ReadCreds возвращает текущий и предыдущий пароли роли.
func (c *Client) ReadCreds(ctx context.Context, token, roleName string) (map[string]any, error) {
	return c.read(ctx, token, c.adMount+"/creds/"+roleName)
}

// ADMount возвращает точку монтирования AD secrets engine.
func (c *Client) ADMount() string {
	return c.adMount
}
