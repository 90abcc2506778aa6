// Пакет errors - запись HTTP-ответов в формате API.
// Ошибки всегда отдаются конвертом {"errors": ["..."]}.
package errors

import (
	"encoding/json"
	"net/http"

	"github.com/bigkaa/goartstore/svcacct-module/internal/domain/model"
)

// WriteJSON записывает тело как JSON с указанным статусом.
func WriteJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError записывает ответ ошибки: {"errors": [messages...]}.
func WriteError(w http.ResponseWriter, statusCode int, messages ...string) {
	WriteJSON(w, statusCode, model.Envelope{Errors: messages})
}

// WriteResponse записывает итог операции сервиса.
// nil трактуется как внутренняя ошибка.
func WriteResponse(w http.ResponseWriter, resp *model.Response) {
	if resp == nil {
		InternalError(w, "Пустой ответ сервиса")
		return
	}
	if resp.Body == nil {
		w.WriteHeader(resp.Status)
		return
	}
	WriteJSON(w, resp.Status, resp.Body)
}

// ValidationError - 400 некорректные входные данные.
func ValidationError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message)
}

// NotFound - 404 ресурс не найден.
func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message)
}

// Unauthorized - 401 требуется аутентификация.
func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, message)
}

// Forbidden - 403 недостаточно прав.
func Forbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, message)
}

// DirectoryUnavailable - 502 каталог (LDAP) недоступен.
func DirectoryUnavailable(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadGateway, message)
}

// NotImplemented - 501 функция отключена конфигурацией.
func NotImplemented(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotImplemented, message)
}

// InternalError - 500 внутренняя ошибка.
func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, message)
}
