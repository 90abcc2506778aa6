package service

import (
	"net/http"

	"github.com/bigkaa/goartstore/svcacct-module/internal/domain/model"
)

// ValidateTTL проверяет запрос онбординга до любых внешних вызовов.
// Сначала autoRotate, и только затем ttl <= max_ttl.
// Возвращает nil, если запрос корректен.
func ValidateTTL(sa *model.ServiceAccount) *model.Response {
	if !sa.AutoRotate {
		return model.ErrorResponse(http.StatusBadRequest, msgAutoRotateOff)
	}
	if sa.TTL > sa.MaxTTL {
		return model.ErrorResponse(http.StatusBadRequest, msgTTLExceedsMax)
	}
	return nil
}
