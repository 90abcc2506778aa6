package model

import "time"

// Операции саги, сохраняемые в журнале.
const (
	OperationOnboard  = "onboard"
	OperationOffboard = "offboard"
)

// SagaStepResult - итог одного шага саги.
type SagaStepResult struct {
	Step    string `json:"step"`
	Outcome string `json:"outcome"`
	Status  int    `json:"status,omitempty"`
}

// SagaRun - запись журнала выполнения саги.
// Хранится в таблице saga_runs.
type SagaRun struct {
	// ID - UUID записи
	ID string `json:"id"`
	// Operation - onboard или offboard
	Operation string `json:"operation"`
	// AccountName - имя service account
	AccountName string `json:"account_name"`
	// Caller - имя пользователя, запустившего сагу
	Caller string `json:"caller"`
	// Status - итоговый HTTP-статус саги
	Status int `json:"status"`
	// Steps - результаты выполненных шагов в порядке выполнения
	Steps []SagaStepResult `json:"steps"`
	// CreatedAt - время записи
	CreatedAt time.Time `json:"created_at"`
}
