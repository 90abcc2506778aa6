// service_accounts.go - обработчики /api/v1/serviceaccounts endpoints.
// Онбординг, оффбординг, участники, сброс пароля, сведения и журнал саг.
// Тела успешных ответов и ошибок Vault передаются как их вернул сервис.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	apierrors "github.com/bigkaa/goartstore/svcacct-module/internal/api/errors"
	"github.com/bigkaa/goartstore/svcacct-module/internal/domain/model"
	"github.com/bigkaa/goartstore/svcacct-module/internal/service"
)

// sagaHistoryResponse - тело ответа журнала саг.
type sagaHistoryResponse struct {
	Account string           `json:"account"`
	Runs    []*model.SagaRun `json:"runs"`
}

// Onboard - POST /api/v1/serviceaccounts/onboard.
func (h *APIHandler) Onboard(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req model.ServiceAccount
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" || req.Owner == "" {
		apierrors.ValidationError(w, "Поля name и owner обязательны")
		return
	}

	apierrors.WriteResponse(w, h.accounts.Onboard(r.Context(), caller, &req))
}

// Offboard - POST /api/v1/serviceaccounts/offboard.
func (h *APIHandler) Offboard(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req model.OnboardedServiceAccount
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" || req.Owner == "" {
		apierrors.ValidationError(w, "Поля name и owner обязательны")
		return
	}

	apierrors.WriteResponse(w, h.accounts.Offboard(r.Context(), caller, &req))
}

// AddUser - POST /api/v1/serviceaccounts/user.
func (h *APIHandler) AddUser(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrUnauthorized(w, r)
	if !ok {
		return
	}

	req, ok := decodeUserRequest(w, r)
	if !ok {
		return
	}
	apierrors.WriteResponse(w, h.accounts.AddUser(r.Context(), caller, req))
}

// RemoveUser - DELETE /api/v1/serviceaccounts/user.
func (h *APIHandler) RemoveUser(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrUnauthorized(w, r)
	if !ok {
		return
	}

	req, ok := decodeUserRequest(w, r)
	if !ok {
		return
	}
	apierrors.WriteResponse(w, h.accounts.RemoveUser(r.Context(), caller, req))
}

// ResetPassword - PUT /api/v1/serviceaccounts/{name}/password/reset.
func (h *APIHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrUnauthorized(w, r)
	if !ok {
		return
	}
	name, ok := accountName(w, r)
	if !ok {
		return
	}
	apierrors.WriteResponse(w, h.accounts.ResetPassword(r.Context(), caller, name))
}

// GetDetails - GET /api/v1/serviceaccounts/{name}.
func (h *APIHandler) GetDetails(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrUnauthorized(w, r)
	if !ok {
		return
	}
	name, ok := accountName(w, r)
	if !ok {
		return
	}
	apierrors.WriteResponse(w, h.accounts.GetDetails(r.Context(), caller, name))
}

// ListOnboarded - GET /api/v1/serviceaccounts.
func (h *APIHandler) ListOnboarded(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrUnauthorized(w, r)
	if !ok {
		return
	}
	apierrors.WriteResponse(w, h.accounts.ListOnboarded(r.Context(), caller))
}

// GetHistory - GET /api/v1/serviceaccounts/{name}/history.
// Доступ: admin.
func (h *APIHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrUnauthorized(w, r)
	if !ok {
		return
	}
	name, ok := accountName(w, r)
	if !ok {
		return
	}

	runs, err := h.accounts.History(r.Context(), caller, name)
	switch {
	case errors.Is(err, service.ErrForbidden):
		apierrors.Forbidden(w, "Недостаточно прав: требуется роль admin")
		return
	case errors.Is(err, service.ErrJournalDisabled):
		apierrors.NotImplemented(w, "Журнал саг отключён: PostgreSQL не настроен")
		return
	case err != nil:
		h.logger.Error("Ошибка чтения журнала саг",
			slog.String("account", name),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Ошибка чтения журнала саг")
		return
	}

	apierrors.WriteJSON(w, http.StatusOK, sagaHistoryResponse{Account: name, Runs: runs})
}

// --- Вспомогательные функции ---

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return false
	}
	return true
}

// decodeUserRequest разбирает тело запроса участника. Уровень доступа
// проверяет сервис: ответ на неверное значение фиксирован.
func decodeUserRequest(w http.ResponseWriter, r *http.Request) (*model.ServiceAccountUser, bool) {
	var req model.ServiceAccountUser
	if !decodeBody(w, r, &req) {
		return nil, false
	}
	if req.AccountName == "" || req.Username == "" {
		apierrors.ValidationError(w, "Поля svcAccName и username обязательны")
		return nil, false
	}
	return &req, true
}

// accountName извлекает path-параметр {name}.
func accountName(w http.ResponseWriter, r *http.Request) (string, bool) {
	var name string
	err := runtime.BindStyledParameterWithOptions("simple", "name", chi.URLParam(r, "name"), &name,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil || name == "" {
		apierrors.ValidationError(w, "Некорректное имя service account")
		return "", false
	}
	return name, true
}
