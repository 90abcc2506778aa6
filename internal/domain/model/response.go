package model

import "net/http"

// Caller - идентичность вызывающего. Передаётся явно в каждый вызов.
type Caller struct {
	Username string
	IsAdmin  bool
	// Token - Vault-токен вызывающего, им подписываются все запросы к Vault
	Token string
}

// Response - итог операции: HTTP-статус и JSON-сериализуемое тело.
// Тело либо конверт {"messages"|"errors": [...]}, либо ответ Vault как есть.
type Response struct {
	Status int
	Body   any
}

// Envelope - стандартный конверт ответа.
type Envelope struct {
	Messages []string `json:"messages,omitempty"`
	Errors   []string `json:"errors,omitempty"`
}

// MessageResponse - ответ с {"messages":[...]}.
func MessageResponse(status int, messages ...string) *Response {
	return &Response{Status: status, Body: Envelope{Messages: messages}}
}

// ErrorResponse - ответ с {"errors":[...]}.
func ErrorResponse(status int, errs ...string) *Response {
	return &Response{Status: status, Body: Envelope{Errors: errs}}
}

// OK сообщает, что статус из класса 2xx.
func (r *Response) OK() bool {
	return r != nil && r.Status >= http.StatusOK && r.Status < http.StatusMultipleChoices
}
