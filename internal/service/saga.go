// saga.go - выполнение последовательности шагов без компенсации.
// План саги задаётся данными: шаги, политика при ошибке, функция оценки.
package service

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/bigkaa/goartstore/svcacct-module/internal/domain/model"
)

// StepOutcome - итог шага.
type StepOutcome int

const (
	StepSucceeded StepOutcome = iota
	// StepSoftFailed - ошибка некритичного шага
	StepSoftFailed
	// StepHardFailed - ошибка критичного шага
	StepHardFailed
)

// String возвращает имя итога для журнала и метрик.
func (o StepOutcome) String() string {
	switch o {
	case StepSucceeded:
		return "succeeded"
	case StepSoftFailed:
		return "soft_failed"
	case StepHardFailed:
		return "hard_failed"
	default:
		return "unknown"
	}
}

// FailurePolicy - поведение саги после неуспешного шага.
type FailurePolicy int

const (
	// AbortOnFailure - остановиться на первой ошибке
	AbortOnFailure FailurePolicy = iota
	// ContinueOnFailure - выполнить все шаги
	ContinueOnFailure
)

// Имена шагов.
const (
	stepValidate         = "validate"
	stepCreateRole       = "createRole"
	stepCreatePolicy     = "createPolicy"
	stepAddMembership    = "addMembership"
	stepRemoveMembership = "removeMembership"
	stepDeletePolicy     = "deletePolicy"
	stepDeleteRole       = "deleteRole"
)

type sagaStep struct {
	name     string
	critical bool
	run      func(ctx context.Context) *model.Response
}

type stepResult struct {
	name    string
	outcome StepOutcome
	resp    *model.Response
}

type sagaPlan struct {
	operation string
	policy    FailurePolicy
	steps     []sagaStep
	// grade по результатам выполненных шагов формирует итоговый ответ
	grade func(results []stepResult) *model.Response
}

// execute выполняет шаги последовательно и оценивает результат.
func (p *sagaPlan) execute(ctx context.Context, account string, logger *slog.Logger) (*model.Response, []stepResult) {
	start := time.Now()
	results := make([]stepResult, 0, len(p.steps))

	for _, s := range p.steps {
		resp := s.run(ctx)
		if resp == nil {
			resp = model.MessageResponse(http.StatusOK)
		}

		outcome := StepSucceeded
		if !resp.OK() {
			outcome = StepSoftFailed
			if s.critical {
				outcome = StepHardFailed
			}
		}
		results = append(results, stepResult{name: s.name, outcome: outcome, resp: resp})

		if outcome == StepSucceeded {
			continue
		}
		logger.Warn("Шаг саги не выполнен",
			slog.String("operation", p.operation),
			slog.String("step", s.name),
			slog.String("account", account),
			slog.Int("status", resp.Status),
		)
		sagaStepFailuresTotal.WithLabelValues(p.operation, s.name, outcome.String()).Inc()
		if p.policy == AbortOnFailure {
			break
		}
	}

	final := p.grade(results)
	sagaRunsTotal.WithLabelValues(p.operation, strconv.Itoa(final.Status)).Inc()
	sagaDuration.WithLabelValues(p.operation).Observe(time.Since(start).Seconds())
	return final, results
}

// gradeOnboarding: ошибка валидации возвращается как есть, ошибка
// критичного шага - 400, ошибка привязки владельца - 207.
func gradeOnboarding(results []stepResult) *model.Response {
	if len(results) == 0 {
		return model.MessageResponse(http.StatusOK, msgOnboardSuccess)
	}
	last := results[len(results)-1]
	switch {
	case last.outcome == StepSucceeded:
		return model.MessageResponse(http.StatusOK, msgOnboardSuccess)
	case last.name == stepValidate:
		return last.resp
	case last.outcome == StepHardFailed:
		return model.ErrorResponse(http.StatusBadRequest, msgOnboardFailed)
	default:
		return model.ErrorResponse(http.StatusMultiStatus, msgOnboardPartial)
	}
}

// gradeOffboarding учитывает только последний шаг (удаление роли).
func gradeOffboarding(results []stepResult) *model.Response {
	if len(results) > 0 && results[len(results)-1].outcome == StepSucceeded {
		return model.MessageResponse(http.StatusOK, msgOffboardSuccess)
	}
	return model.ErrorResponse(http.StatusMultiStatus, msgOffboardFailed)
}

func stepResults(results []stepResult) []model.SagaStepResult {
	out := make([]model.SagaStepResult, len(results))
	for i, r := range results {
		out[i] = model.SagaStepResult{
			Step:    r.name,
			Outcome: r.outcome.String(),
			Status:  r.resp.Status,
		}
	}
	return out
}
