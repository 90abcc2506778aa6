package service

import (
	"context"

	"github.com/bigkaa/goartstore/svcacct-module/internal/domain/model"
)

// SagaJournal - журнал выполненных саг. Реализуется repository.SagaRunRepository.
// Журнал необязателен: без PostgreSQL сервис работает с nil.
type SagaJournal interface {
	Record(ctx context.Context, run *model.SagaRun) error
	ListByAccount(ctx context.Context, account string, limit int) ([]*model.SagaRun, error)
}
