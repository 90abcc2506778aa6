// directory.go - обработчик поиска учётных записей в AD.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/oapi-codegen/runtime"

	apierrors "github.com/bigkaa/goartstore/svcacct-module/internal/api/errors"
)

// LookupAccounts - GET /api/v1/ad/accounts?serviceAccountName=<p>&excludeOnboarded=<bool>.
// excludeOnboarded по умолчанию false.
func (h *APIHandler) LookupAccounts(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrUnauthorized(w, r)
	if !ok {
		return
	}

	var prefix string
	if err := runtime.BindQueryParameter("form", true, true, "serviceAccountName", r.URL.Query(), &prefix); err != nil {
		apierrors.ValidationError(w, "Некорректный параметр serviceAccountName: "+err.Error())
		return
	}
	if prefix == "" {
		apierrors.ValidationError(w, "Параметр serviceAccountName не может быть пустым")
		return
	}

	var exclude *bool
	if err := runtime.BindQueryParameter("form", true, false, "excludeOnboarded", r.URL.Query(), &exclude); err != nil {
		apierrors.ValidationError(w, "Некорректный параметр excludeOnboarded: "+err.Error())
		return
	}

	accounts, err := h.lookup.Lookup(r.Context(), caller, prefix, exclude != nil && *exclude)
	if err != nil {
		h.logger.Error("Ошибка поиска в AD",
			slog.String("prefix", prefix),
			slog.String("error", err.Error()),
		)
		apierrors.DirectoryUnavailable(w, "Каталог AD недоступен")
		return
	}

	apierrors.WriteJSON(w, http.StatusOK, accounts)
}
