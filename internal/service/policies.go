// policies.go - ACL-политики доступа к service account.
package service

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/bigkaa/goartstore/svcacct-module/internal/domain/model"
	"github.com/bigkaa/goartstore/svcacct-module/internal/vault"
)

// PolicyStore - хранилище ACL-политик Vault. Реализуется *vault.Client.
type PolicyStore interface {
	PutPolicy(ctx context.Context, token, name, rules string) error
	DeletePolicy(ctx context.Context, token, name string) error
}

// PolicyManager создаёт и удаляет политики всех уровней доступа.
type PolicyManager struct {
	store   PolicyStore
	catalog *PolicyCatalog
	mount   string
	logger  *slog.Logger
}

// NewPolicyManager создаёт PolicyManager. mount - точка монтирования AD secrets engine.
func NewPolicyManager(store PolicyStore, catalog *PolicyCatalog, mount string, logger *slog.Logger) *PolicyManager {
	return &PolicyManager{
		store:   store,
		catalog: catalog,
		mount:   mount,
		logger:  logger.With(slog.String("component", "policy_manager")),
	}
}

// CreatePolicy создаёт политики r_, w_, d_ и o_svcacct_<account>.
// Останавливается на первой ошибке.
func (p *PolicyManager) CreatePolicy(ctx context.Context, caller model.Caller, account string) *model.Response {
	for _, l := range p.catalog.Levels {
		name := l.Prefix + "_svcacct_" + account
		if err := p.store.PutPolicy(ctx, caller.Token, name, l.Render(p.mount, account)); err != nil {
			p.logger.Warn("Ошибка создания политики",
				slog.String("policy", name),
				slog.String("error", err.Error()),
			)
			return upstreamResponse(err, msgUpstreamNoResponse)
		}
	}
	p.logger.Info("Политики созданы", slog.String("account", account))
	return model.MessageResponse(http.StatusOK, msgPolicyCreated)
}

// DeletePolicyInfo удаляет все политики service account.
// Удаление продолжается после ошибок, возвращается первая из них.
// Отсутствующая политика ошибкой не считается.
func (p *PolicyManager) DeletePolicyInfo(ctx context.Context, caller model.Caller, account string) *model.Response {
	var failed error
	for _, name := range p.catalog.PolicyNames(account) {
		err := p.store.DeletePolicy(ctx, caller.Token, name)
		if err == nil || vault.StatusCode(err) == http.StatusNotFound {
			continue
		}
		p.logger.Warn("Ошибка удаления политики",
			slog.String("policy", name),
			slog.String("error", err.Error()),
		)
		if failed == nil {
			failed = err
		}
	}
	if failed != nil {
		return upstreamResponse(failed, msgUpstreamNoResponse)
	}
	p.logger.Info("Политики удалены", slog.String("account", account))
	return model.MessageResponse(http.StatusOK, msgPolicyDeleted)
}
