package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/goartstore/svcacct-module/internal/domain/model"
)

// SagaRunRepository - журнал саг (таблица saga_runs).
type SagaRunRepository interface {
	// Record сохраняет запись о выполненной саге.
	Record(ctx context.Context, run *model.SagaRun) error
	// GetByID возвращает запись по UUID.
	GetByID(ctx context.Context, id string) (*model.SagaRun, error)
	// ListByAccount возвращает последние записи по service account, новые первыми.
	ListByAccount(ctx context.Context, account string, limit int) ([]*model.SagaRun, error)
}

type sagaRunRepo struct {
	db DBTX
}

// NewSagaRunRepository создаёт репозиторий журнала саг.
func NewSagaRunRepository(db DBTX) SagaRunRepository {
	return &sagaRunRepo{db: db}
}

const sagaRunColumns = `id, operation, account_name, caller, status, steps, created_at`

func scanSagaRun(row pgx.Row) (*model.SagaRun, error) {
	run := &model.SagaRun{}
	var steps []byte
	if err := row.Scan(
		&run.ID, &run.Operation, &run.AccountName, &run.Caller,
		&run.Status, &steps, &run.CreatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(steps, &run.Steps); err != nil {
		return nil, fmt.Errorf("разбор steps записи %s: %w", run.ID, err)
	}
	return run, nil
}

func (r *sagaRunRepo) Record(ctx context.Context, run *model.SagaRun) error {
	steps := run.Steps
	if steps == nil {
		steps = []model.SagaStepResult{}
	}
	stepsJSON, err := json.Marshal(steps)
	if err != nil {
		return fmt.Errorf("сериализация steps: %w", err)
	}

	query := `
		INSERT INTO saga_runs (id, operation, account_name, caller, status, steps, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = r.db.Exec(ctx, query,
		run.ID, run.Operation, run.AccountName, run.Caller, run.Status, stepsJSON, run.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: запись саги %s", ErrConflict, run.ID)
		}
		return fmt.Errorf("ошибка записи саги: %w", err)
	}
	return nil
}

func (r *sagaRunRepo) GetByID(ctx context.Context, id string) (*model.SagaRun, error) {
	query := fmt.Sprintf(`SELECT %s FROM saga_runs WHERE id = $1`, sagaRunColumns)
	run, err := scanSagaRun(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: сага %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("ошибка получения саги: %w", err)
	}
	return run, nil
}

func (r *sagaRunRepo) ListByAccount(ctx context.Context, account string, limit int) ([]*model.SagaRun, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM saga_runs
		WHERE account_name = $1
		ORDER BY created_at DESC
		LIMIT $2`, sagaRunColumns)

	rows, err := r.db.Query(ctx, query, account, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения журнала саг: %w", err)
	}
	defer rows.Close()

	runs := make([]*model.SagaRun, 0)
	for rows.Next() {
		run, err := scanSagaRun(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования саги: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
