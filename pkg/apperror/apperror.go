// Package apperror carries typed failures across the service container.
//
// Request-reply services only propagate an error's message, so services
// that need the caller to distinguish failures return an *Envelope inside
// their response body instead of a Go error.
package apperror

import (
	"errors"
	"strings"
)

// Code classifies a failure for the boundary layer.
type Code string

const (
	CodeValidation   Code = "validation_failed"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeUnauthorized Code = "unauthorized"
)

// FieldError is one violated field rule.
type FieldError struct {
	Path string `json:"path"`
	Msg  string `json:"msg"`
}

// ValidationError aggregates every violated rule of one request.
type ValidationError struct {
	Fields []FieldError
}

// Add records a violated rule for path.
func (e *ValidationError) Add(path, msg string) {
	e.Fields = append(e.Fields, FieldError{Path: path, Msg: msg})
}

// HasErrors reports whether any rule was violated.
func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.Fields) > 0
}

// Err returns e as an error, or nil when nothing was recorded.
func (e *ValidationError) Err() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Msg)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Envelope is the wire form of a classified failure.
type Envelope struct {
	Code    Code         `json:"code"`
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields,omitempty"`
}

func (e *Envelope) Error() string {
	return string(e.Code) + ": " + e.Message
}

// Wrap converts err into an Envelope when it is a validation failure or
// matches one of the given sentinels. It returns nil for anything else,
// leaving the caller to return err as an unexpected failure.
func Wrap(err error, sentinels map[error]Code) *Envelope {
	if err == nil {
		return nil
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return &Envelope{
			Code:    CodeValidation,
			Message: "Validation failed",
			Fields:  ve.Fields,
		}
	}

	for sentinel, code := range sentinels {
		if errors.Is(err, sentinel) {
			return &Envelope{Code: code, Message: sentinel.Error()}
		}
	}
	return nil
}

// Unwrap turns an Envelope back into an error, mapping codes onto the
// given sentinels. Validation envelopes become *ValidationError.
func Unwrap(env *Envelope, sentinels map[Code]error) error {
	if env == nil {
		return nil
	}
	if env.Code == CodeValidation {
		return &ValidationError{Fields: env.Fields}
	}
	if sentinel, ok := sentinels[env.Code]; ok {
		return sentinel
	}
	return env
}
