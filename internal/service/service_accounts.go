// service_accounts.go - онбординг и оффбординг AD service account в Vault,
// управление пользователями и операции над ролью ротации.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/bigkaa/goartstore/svcacct-module/internal/domain/model"
	"github.com/bigkaa/goartstore/svcacct-module/internal/domain/rbac"
	"github.com/bigkaa/goartstore/svcacct-module/internal/vault"
)

// historyLimit - сколько последних записей журнала отдаёт History.
const historyLimit = 50

// ServiceAccountService - оркестратор операций над service account.
type ServiceAccountService struct {
	registrar    *Registrar
	policies     *PolicyManager
	membership   *MembershipManager
	roles        RoleStore
	authz        rbac.MembershipAuthorizer
	journal      SagaJournal
	domainSuffix string
	logger       *slog.Logger
}

// NewServiceAccountService создаёт оркестратор. journal может быть nil.
func NewServiceAccountService(
	registrar *Registrar,
	policies *PolicyManager,
	membership *MembershipManager,
	roles RoleStore,
	authz rbac.MembershipAuthorizer,
	journal SagaJournal,
	domainSuffix string,
	logger *slog.Logger,
) *ServiceAccountService {
	return &ServiceAccountService{
		registrar:    registrar,
		policies:     policies,
		membership:   membership,
		roles:        roles,
		authz:        authz,
		journal:      journal,
		domainSuffix: domainSuffix,
		logger:       logger.With(slog.String("component", "sa_service")),
	}
}

// Onboard: Validate → CreateRole → CreatePolicy → AddMembership.
// Выполнение прерывается на первой ошибке, созданное не откатывается.
func (s *ServiceAccountService) Onboard(ctx context.Context, caller model.Caller, sa *model.ServiceAccount) *model.Response {
	plan := &sagaPlan{
		operation: model.OperationOnboard,
		policy:    AbortOnFailure,
		grade:     gradeOnboarding,
		steps: []sagaStep{
			{name: stepValidate, critical: true, run: func(context.Context) *model.Response {
				return ValidateTTL(sa)
			}},
			{name: stepCreateRole, critical: true, run: func(ctx context.Context) *model.Response {
				return s.registrar.CreateRole(ctx, caller, model.NewServiceAccountTTL(sa, s.domainSuffix))
			}},
			{name: stepCreatePolicy, critical: true, run: func(ctx context.Context) *model.Response {
				return s.policies.CreatePolicy(ctx, caller, sa.Name)
			}},
			{name: stepAddMembership, run: func(ctx context.Context) *model.Response {
				return s.membership.AddUser(ctx, caller, sa.Name, sa.Owner, model.AccessSudo)
			}},
		},
	}
	return s.runSaga(ctx, plan, caller, sa.Name)
}

// Offboard: RemoveMembership → DeletePolicy → DeleteRole.
// Выполняются все три шага, итог определяется удалением роли.
func (s *ServiceAccountService) Offboard(ctx context.Context, caller model.Caller, osa *model.OnboardedServiceAccount) *model.Response {
	plan := &sagaPlan{
		operation: model.OperationOffboard,
		policy:    ContinueOnFailure,
		grade:     gradeOffboarding,
		steps: []sagaStep{
			{name: stepRemoveMembership, run: func(ctx context.Context) *model.Response {
				return s.membership.RemoveUser(ctx, caller, osa.Name, osa.Owner)
			}},
			{name: stepDeletePolicy, run: func(ctx context.Context) *model.Response {
				return s.policies.DeletePolicyInfo(ctx, caller, osa.Name)
			}},
			{name: stepDeleteRole, critical: true, run: func(ctx context.Context) *model.Response {
				return s.registrar.DeleteRole(ctx, caller, osa.Name, model.PrincipalName(osa.Name, s.domainSuffix))
			}},
		},
	}
	return s.runSaga(ctx, plan, caller, osa.Name)
}

func (s *ServiceAccountService) runSaga(ctx context.Context, plan *sagaPlan, caller model.Caller, account string) *model.Response {
	resp, results := plan.execute(ctx, account, s.logger)

	s.logger.Info("Сага завершена",
		slog.String("operation", plan.operation),
		slog.String("account", account),
		slog.String("caller", caller.Username),
		slog.Int("status", resp.Status),
	)

	if s.journal != nil {
		run := &model.SagaRun{
			ID:          uuid.New().String(),
			Operation:   plan.operation,
			AccountName: account,
			Caller:      caller.Username,
			Status:      resp.Status,
			Steps:       stepResults(results),
			CreatedAt:   time.Now().UTC(),
		}
		// Ошибка журнала не влияет на результат саги
		if err := s.journal.Record(ctx, run); err != nil {
			s.logger.Warn("Не удалось записать сагу в журнал",
				slog.String("operation", plan.operation),
				slog.String("account", account),
				slog.String("error", err.Error()),
			)
		}
	}
	return resp
}

// AddUser выдаёт пользователю доступ read, write или deny к service account.
func (s *ServiceAccountService) AddUser(ctx context.Context, caller model.Caller, req *model.ServiceAccountUser) *model.Response {
	if !s.authz.CanAddOrRemoveUser(caller, req, rbac.ActionAddUser) {
		return model.ErrorResponse(http.StatusBadRequest, msgNotAuthorized)
	}
	if !model.IsValidAccess(req.Access) {
		return model.ErrorResponse(http.StatusBadRequest, msgInvalidAccess)
	}
	if resp := s.membership.AddUser(ctx, caller, req.AccountName, req.Username, req.Access); !resp.OK() {
		return model.ErrorResponse(http.StatusBadRequest, msgUserAddFailed)
	}
	return model.MessageResponse(http.StatusOK, msgUserAdded)
}

// RemoveUser забирает у пользователя любой доступ к service account.
func (s *ServiceAccountService) RemoveUser(ctx context.Context, caller model.Caller, req *model.ServiceAccountUser) *model.Response {
	if !s.authz.CanAddOrRemoveUser(caller, req, rbac.ActionRemoveUser) {
		return model.ErrorResponse(http.StatusBadRequest, msgNotAuthorized)
	}
	if resp := s.membership.RemoveUser(ctx, caller, req.AccountName, req.Username); !resp.OK() {
		return model.ErrorResponse(http.StatusBadRequest, msgUserRemoveFailed)
	}
	return model.MessageResponse(http.StatusOK, msgUserRemoved)
}

// ResetPassword ротирует пароль и возвращает новые учётные данные.
// Ответ Vault с ошибкой (в т.ч. 403) передаётся без изменений.
func (s *ServiceAccountService) ResetPassword(ctx context.Context, caller model.Caller, name string) *model.Response {
	if err := s.roles.RotateRole(ctx, caller.Token, name); err != nil {
		s.logger.Warn("Ошибка ротации пароля", slog.String("account", name), slog.String("error", err.Error()))
		return upstreamResponse(err, msgUpstreamNoResponse)
	}
	creds, err := s.roles.ReadCreds(ctx, caller.Token, name)
	if err != nil {
		s.logger.Warn("Ошибка чтения учётных данных", slog.String("account", name), slog.String("error", err.Error()))
		return upstreamResponse(err, msgUpstreamNoResponse)
	}
	s.logger.Info("Пароль service account сброшен",
		slog.String("account", name),
		slog.String("caller", caller.Username),
	)
	return &model.Response{Status: http.StatusOK, Body: creds}
}

// GetDetails возвращает сведения о роли ротации в формате API.
func (s *ServiceAccountService) GetDetails(ctx context.Context, caller model.Caller, name string) *model.Response {
	data, err := s.roles.ReadRole(ctx, caller.Token, name)
	if errors.Is(err, vault.ErrNotFound) || (err == nil && data == nil) {
		return model.ErrorResponse(http.StatusNotFound, msgNotOnboarded)
	}
	if err != nil {
		return upstreamResponse(err, msgUpstreamNoResponse)
	}
	return &model.Response{
		Status: http.StatusOK,
		Body: model.OnboardedServiceAccountDetails{
			Name:              stringField(data, "service_account_name"),
			LastVaultRotation: stringField(data, "last_vault_rotation"),
			PasswordLastSet:   stringField(data, "password_last_set"),
			TTL:               int64Field(data, "ttl"),
		},
	}
}

// OnboardedList - тело ответа со списком ролей.
type OnboardedList struct {
	Keys []string `json:"keys"`
}

// ListOnboarded возвращает имена онбордированных service account.
// Доступно только администраторам.
func (s *ServiceAccountService) ListOnboarded(ctx context.Context, caller model.Caller) *model.Response {
	names, resp := s.OnboardedNames(ctx, caller)
	if resp != nil {
		return resp
	}
	return &model.Response{Status: http.StatusOK, Body: OnboardedList{Keys: names}}
}

// OnboardedNames возвращает имена ролей либо ответ с ошибкой.
// Отсутствие ролей - пустой список.
func (s *ServiceAccountService) OnboardedNames(ctx context.Context, caller model.Caller) ([]string, *model.Response) {
	if !caller.IsAdmin {
		return nil, model.ErrorResponse(http.StatusBadRequest, msgNonAdminList)
	}
	keys, err := s.roles.ListRoles(ctx, caller.Token)
	if errors.Is(err, vault.ErrNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, upstreamResponse(err, msgUpstreamNoResponse)
	}
	if keys == nil {
		keys = []string{}
	}
	return keys, nil
}

// History возвращает последние записи журнала саг по service account.
func (s *ServiceAccountService) History(ctx context.Context, caller model.Caller, name string) ([]*model.SagaRun, error) {
	if !caller.IsAdmin {
		return nil, ErrForbidden
	}
	if s.journal == nil {
		return nil, ErrJournalDisabled
	}
	return s.journal.ListByAccount(ctx, name, historyLimit)
}

func stringField(data map[string]any, key string) string {
	switch v := data[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case nil:
		return ""
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}

func int64Field(data map[string]any, key string) int64 {
	switch v := data[key].(type) {
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			f, _ := v.Float64()
			return int64(f)
		}
		return n
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	}
	return 0
}
