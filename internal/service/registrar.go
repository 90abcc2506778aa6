// registrar.go - роли ротации пароля в AD secrets engine.
package service

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/bigkaa/goartstore/svcacct-module/internal/domain/model"
)

// RoleStore - AD secrets engine Vault. Реализуется *vault.Client.
type RoleStore interface {
	CreateRole(ctx context.Context, token string, ttl model.ServiceAccountTTL) error
	DeleteRole(ctx context.Context, token, roleName string) error
	ReadRole(ctx context.Context, token, roleName string) (map[string]any, error)
	ListRoles(ctx context.Context, token string) ([]string, error)
	RotateRole(ctx context.Context, token, roleName string) error
	ReadCreds(ctx context.Context, token, roleName string) (map[string]any, error)
}

// Registrar создаёт и удаляет роли ротации.
type Registrar struct {
	roles  RoleStore
	logger *slog.Logger
}

// NewRegistrar создаёт Registrar.
func NewRegistrar(roles RoleStore, logger *slog.Logger) *Registrar {
	return &Registrar{
		roles:  roles,
		logger: logger.With(slog.String("component", "registrar")),
	}
}

// CreateRole создаёт роль. Конфликт с существующей ролью возвращается
// со статусом и сообщением Vault.
func (r *Registrar) CreateRole(ctx context.Context, caller model.Caller, ttl model.ServiceAccountTTL) *model.Response {
	if err := r.roles.CreateRole(ctx, caller.Token, ttl); err != nil {
		r.logger.Warn("Ошибка создания роли",
			slog.String("role", ttl.RoleName),
			slog.String("error", err.Error()),
		)
		return upstreamResponse(err, msgUpstreamNoResponse)
	}
	r.logger.Info("Роль создана",
		slog.String("role", ttl.RoleName),
		slog.String("service_account_name", ttl.ServiceAccountName),
		slog.Int64("ttl", ttl.TTL),
	)
	return model.MessageResponse(http.StatusOK, msgRoleCreated)
}

// DeleteRole удаляет роль.
func (r *Registrar) DeleteRole(ctx context.Context, caller model.Caller, roleName, serviceAccountName string) *model.Response {
	if err := r.roles.DeleteRole(ctx, caller.Token, roleName); err != nil {
		r.logger.Warn("Ошибка удаления роли",
			slog.String("role", roleName),
			slog.String("error", err.Error()),
		)
		return upstreamResponse(err, msgUpstreamNoResponse)
	}
	r.logger.Info("Роль удалена",
		slog.String("role", roleName),
		slog.String("service_account_name", serviceAccountName),
	)
	return model.MessageResponse(http.StatusOK, msgRoleDeleted)
}
