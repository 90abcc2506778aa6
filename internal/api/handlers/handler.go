// handler.go - основной обработчик API Service Account Module.
// Достаёт вызывающего из контекста и делегирует запросы в сервисный слой.
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	apierrors "github.com/bigkaa/goartstore/svcacct-module/internal/api/errors"
	"github.com/bigkaa/goartstore/svcacct-module/internal/api/middleware"
	"github.com/bigkaa/goartstore/svcacct-module/internal/domain/model"
)

// AccountOperations - операции над service account.
// Реализуется *service.ServiceAccountService.
type AccountOperations interface {
	Onboard(ctx context.Context, caller model.Caller, sa *model.ServiceAccount) *model.Response
	Offboard(ctx context.Context, caller model.Caller, osa *model.OnboardedServiceAccount) *model.Response
	AddUser(ctx context.Context, caller model.Caller, req *model.ServiceAccountUser) *model.Response
	RemoveUser(ctx context.Context, caller model.Caller, req *model.ServiceAccountUser) *model.Response
	ResetPassword(ctx context.Context, caller model.Caller, name string) *model.Response
	GetDetails(ctx context.Context, caller model.Caller, name string) *model.Response
	ListOnboarded(ctx context.Context, caller model.Caller) *model.Response
	History(ctx context.Context, caller model.Caller, name string) ([]*model.SagaRun, error)
}

// DirectoryLookup - поиск учётных записей в AD.
// Реализуется *service.DirectoryLookupService.
type DirectoryLookup interface {
	Lookup(ctx context.Context, caller model.Caller, prefix string, excludeOnboarded bool) (*model.DirectoryAccounts, error)
}

// APIHandler - обработчик API Service Account Module.
type APIHandler struct {
	health   *HealthHandler
	accounts AccountOperations
	lookup   DirectoryLookup
	contract []byte
	logger   *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
// contract - OpenAPI-контракт в JSON, отдаётся как есть.
func NewAPIHandler(
	health *HealthHandler,
	accounts AccountOperations,
	lookup DirectoryLookup,
	contract []byte,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		health:   health,
		accounts: accounts,
		lookup:   lookup,
		contract: contract,
		logger:   logger.With(slog.String("component", "api_handler")),
	}
}

// HealthLive - liveness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.health.HealthLive(w, r)
}

// HealthReady - readiness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.health.HealthReady(w, r)
}

// GetMetrics - Prometheus метрики (делегируется в HealthHandler).
func (h *APIHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.health.GetMetrics(w, r)
}

// GetOpenAPI - GET /api/v1/openapi.json.
func (h *APIHandler) GetOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.contract)
}

// callerOrUnauthorized достаёт вызывающего; при отсутствии пишет 401.
func callerOrUnauthorized(w http.ResponseWriter, r *http.Request) (model.Caller, bool) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		apierrors.Unauthorized(w, "Вызывающий не аутентифицирован")
	}
	return caller, ok
}
