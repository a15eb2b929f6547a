package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Envelope is the uniform success response: {success, data, message?}.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Decode unmarshals the data member into v.
func (e *Envelope) Decode(v any) error {
	if len(e.Data) == 0 || bytes.Equal(e.Data, []byte("null")) {
		return ErrEmptyData
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

// Result turns a Client call into typed data. A business failure
// (success:false) becomes an *APIError carrying the server message.
//
//	budget, err := apiclient.Result[Budget](c.Get(ctx, apiclient.BudgetPath(id), nil))
func Result[T any](env *Envelope, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	if !env.Success {
		return zero, BusinessError(env, "Request failed")
	}
	var out T
	if err := env.Decode(&out); err != nil {
		return zero, err
	}
	return out, nil
}

// BusinessError converts a success:false envelope to an *APIError, using
// fallback when the server sent no message.
func BusinessError(env *Envelope, fallback string) *APIError {
	msg := env.Message
	if msg == "" {
		msg = fallback
	}
	return &APIError{Message: msg}
}
