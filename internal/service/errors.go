// errors.go - ошибки бизнес-логики сервисного слоя.
package service

import (
	"errors"
	"net/http"

	"github.com/bigkaa/goartstore/svcacct-module/internal/domain/model"
	"github.com/bigkaa/goartstore/svcacct-module/internal/vault"
)

var (
	// ErrForbidden - недостаточно прав.
	ErrForbidden = errors.New("недостаточно прав")
	// ErrJournalDisabled - журнал саг не настроен (нет PostgreSQL).
	ErrJournalDisabled = errors.New("журнал саг отключён")
)

// upstreamResponse превращает ошибку Vault в ответ API.
// Статус и сообщения Vault сохраняются. Транспортная ошибка - 500,
// пустой список сообщений заменяется на fallback.
func upstreamResponse(err error, fallback string) *model.Response {
	status := vault.StatusCode(err)
	if status == 0 {
		status = http.StatusInternalServerError
	}
	msgs := vault.Messages(err)
	if len(msgs) == 0 {
		msgs = []string{fallback}
	}
	return model.ErrorResponse(status, msgs...)
}
