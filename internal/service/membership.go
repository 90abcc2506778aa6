// membership.go - привязка пользователей к service account через их политики.
// Алгоритм одинаков для ldap и userpass: прочитать политики пользователя,
// изменить список, записать обратно.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"

	"github.com/bigkaa/goartstore/svcacct-module/internal/config"
	"github.com/bigkaa/goartstore/svcacct-module/internal/domain/model"
	"github.com/bigkaa/goartstore/svcacct-module/internal/vault"
)

// MembershipBackend - метод аутентификации Vault, в котором хранятся
// политики пользователей.
type MembershipBackend interface {
	// ReadPolicies возвращает текущие политики пользователя.
	// Неизвестный пользователь - пустой набор без ошибки.
	ReadPolicies(ctx context.Context, caller model.Caller, username string) (*vault.AuthUser, error)
	// WritePolicies перезаписывает политики пользователя.
	WritePolicies(ctx context.Context, caller model.Caller, username string, user *vault.AuthUser) error
}

// LDAPUserStore - пользователи auth/ldap. Реализуется *vault.Client.
type LDAPUserStore interface {
	ReadLDAPUser(ctx context.Context, token, username string) (*vault.AuthUser, error)
	WriteLDAPUser(ctx context.Context, token, username string, user *vault.AuthUser) error
}

// UserpassStore - пользователи auth/userpass. Реализуется *vault.Client.
type UserpassStore interface {
	ReadUserpassUser(ctx context.Context, token, username string) (*vault.AuthUser, error)
	WriteUserpassPolicies(ctx context.Context, token, username string, policies []string) error
}

// ldapBackend - участники из директории (auth/ldap). Группы сохраняются.
type ldapBackend struct {
	store LDAPUserStore
}

func (b ldapBackend) ReadPolicies(ctx context.Context, caller model.Caller, username string) (*vault.AuthUser, error) {
	user, err := b.store.ReadLDAPUser(ctx, caller.Token, username)
	if errors.Is(err, vault.ErrNotFound) {
		return &vault.AuthUser{}, nil
	}
	return user, err
}

func (b ldapBackend) WritePolicies(ctx context.Context, caller model.Caller, username string, user *vault.AuthUser) error {
	return b.store.WriteLDAPUser(ctx, caller.Token, username, user)
}

// userpassBackend - локальные учётные данные (auth/userpass).
type userpassBackend struct {
	store UserpassStore
}

func (b userpassBackend) ReadPolicies(ctx context.Context, caller model.Caller, username string) (*vault.AuthUser, error) {
	user, err := b.store.ReadUserpassUser(ctx, caller.Token, username)
	if errors.Is(err, vault.ErrNotFound) {
		return &vault.AuthUser{}, nil
	}
	return user, err
}

func (b userpassBackend) WritePolicies(ctx context.Context, caller model.Caller, username string, user *vault.AuthUser) error {
	return b.store.WriteUserpassPolicies(ctx, caller.Token, username, user.Policies)
}

// VaultUserStore - оба метода аутентификации, реализуется *vault.Client.
type VaultUserStore interface {
	LDAPUserStore
	UserpassStore
}

// NewMembershipBackend выбирает реализацию по SAM_VAULT_AUTH_METHOD.
func NewMembershipBackend(authMethod string, store VaultUserStore) (MembershipBackend, error) {
	switch authMethod {
	case config.AuthMethodLDAP:
		return ldapBackend{store: store}, nil
	case config.AuthMethodUserpass:
		return userpassBackend{store: store}, nil
	default:
		return nil, fmt.Errorf("неизвестный метод аутентификации %q", authMethod)
	}
}

// MembershipManager добавляет и удаляет политики service account у пользователя.
type MembershipManager struct {
	backend MembershipBackend
	catalog *PolicyCatalog
	logger  *slog.Logger
}

// NewMembershipManager создаёт MembershipManager.
func NewMembershipManager(backend MembershipBackend, catalog *PolicyCatalog, logger *slog.Logger) *MembershipManager {
	return &MembershipManager{
		backend: backend,
		catalog: catalog,
		logger:  logger.With(slog.String("component", "membership_manager")),
	}
}

// AddUser добавляет пользователю политику уровня access. Уже имеющаяся
// политика повторно не добавляется.
func (m *MembershipManager) AddUser(ctx context.Context, caller model.Caller, account, username, access string) *model.Response {
	policy, ok := m.catalog.PolicyName(access, account)
	if !ok {
		return model.ErrorResponse(http.StatusBadRequest, msgInvalidAccess)
	}

	user, err := m.backend.ReadPolicies(ctx, caller, username)
	if err != nil {
		m.logWarn("Ошибка чтения политик пользователя", account, username, err)
		return upstreamResponse(err, msgUpstreamNoResponse)
	}

	if !slices.Contains(user.Policies, policy) {
		user.Policies = append(user.Policies, policy)
	}

	if err := m.backend.WritePolicies(ctx, caller, username, user); err != nil {
		m.logWarn("Ошибка записи политик пользователя", account, username, err)
		return upstreamResponse(err, msgUpstreamNoResponse)
	}

	m.logger.Info("Пользователь добавлен к SA",
		slog.String("account", account),
		slog.String("username", username),
		slog.String("policy", policy),
	)
	return model.MessageResponse(http.StatusOK, msgMembershipDone)
}

// RemoveUser убирает у пользователя все политики service account.
func (m *MembershipManager) RemoveUser(ctx context.Context, caller model.Caller, account, username string) *model.Response {
	user, err := m.backend.ReadPolicies(ctx, caller, username)
	if err != nil {
		m.logWarn("Ошибка чтения политик пользователя", account, username, err)
		return upstreamResponse(err, msgUpstreamNoResponse)
	}

	remove := m.catalog.PolicyNames(account)
	user.Policies = slices.DeleteFunc(user.Policies, func(p string) bool {
		return slices.Contains(remove, p)
	})

	if err := m.backend.WritePolicies(ctx, caller, username, user); err != nil {
		m.logWarn("Ошибка записи политик пользователя", account, username, err)
		return upstreamResponse(err, msgUpstreamNoResponse)
	}

	m.logger.Info("Пользователь удалён из SA",
		slog.String("account", account),
		slog.String("username", username),
	)
	return model.MessageResponse(http.StatusOK, msgMembershipDone)
}

func (m *MembershipManager) logWarn(msg, account, username string, err error) {
	m.logger.Warn(msg,
		slog.String("account", account),
		slog.String("username", username),
		slog.String("error", err.Error()),
	)
}
