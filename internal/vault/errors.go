package vault

import (
	"errors"
	"net/http"
	"strings"

	"github.com/hashicorp/vault/api"
)

// ErrNotFound - путь в Vault отсутствует или не содержит данных.
var ErrNotFound = errors.New("vault: путь не найден")

// StatusCode возвращает HTTP-статус ответа Vault.
// ErrNotFound - 404, транспортная ошибка - 0.
func StatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	var apiErr *api.ResponseError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// Messages возвращает сообщения об ошибках из тела ответа Vault.
// Для транспортных ошибок возвращает nil.
func Messages(err error) []string {
	var apiErr *api.ResponseError
	if errors.As(err, &apiErr) && len(apiErr.Errors) > 0 {
		return apiErr.Errors
	}
	return nil
}

// IsTransport сообщает, что запрос не дошёл до Vault или ответ не разобран.
func IsTransport(err error) bool {
	return err != nil && StatusCode(err) == 0
}

func isNotFound(err error) bool {
	var apiErr *api.ResponseError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound
	}
	return false
}

// toStrings приводит значение из ответа Vault к []string.
// Поддерживаются массив JSON и строка через запятую.
func toStrings(v any) []string {
	switch val := v.(type) {
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if val == "" {
			return nil
		}
		parts := strings.Split(val, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return nil
}
