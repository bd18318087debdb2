package core

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies a failure for callers and for the HTTP layer.
type Kind string

const (
	KindValidation           Kind = "VALIDATION_ERROR"
	KindInvalidInput         Kind = "INVALID_INPUT"
	KindCurrencyNotSupported Kind = "CURRENCY_NOT_SUPPORTED"
	KindNetwork              Kind = "NETWORK_ERROR"
	KindRateLimitExceeded    Kind = "RATE_LIMIT_EXCEEDED"
	KindServer               Kind = "SERVER_ERROR"

	// Resource kinds, reported by the HTTP API only.
	KindNotFound Kind = "NOT_FOUND"
	KindConflict Kind = "CONFLICT"
)

// Sentinels usable with errors.Is. An *Error matches the sentinel of its Kind.
var (
	ErrValidation           = errors.New("validation error")
	ErrInvalidInput         = errors.New("invalid input")
	ErrCurrencyNotSupported = errors.New("currency not supported")
	ErrNetwork              = errors.New("network error")
	ErrRateLimitExceeded    = errors.New("rate limit exceeded")
	ErrServer               = errors.New("server error")
	ErrNotFound             = errors.New("not found")
	ErrConflict             = errors.New("conflict")
)

var sentinels = map[Kind]error{
	KindValidation:           ErrValidation,
	KindInvalidInput:         ErrInvalidInput,
	KindCurrencyNotSupported: ErrCurrencyNotSupported,
	KindNetwork:              ErrNetwork,
	KindRateLimitExceeded:    ErrRateLimitExceeded,
	KindServer:               ErrServer,
	KindNotFound:             ErrNotFound,
	KindConflict:             ErrConflict,
}

// Error is the kinded error returned across package boundaries.
// It serializes to the same shape the web client expects.
type Error struct {
	Kind      Kind      `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Err       error     `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	return sentinels[e.Kind] == target
}

// NewError creates an *Error of the given kind stamped with the current time.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Timestamp: time.Now().UTC()}
}

// WrapError creates an *Error that keeps err as its cause.
func WrapError(kind Kind, message string, err error) *Error {
	e := NewError(kind, message)
	e.Err = err
	if err != nil {
		e.Details = err.Error()
	}
	return e
}

// KindOf returns the kind of the first *Error in err's chain, or KindServer
// for any other non-nil error.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindServer
}
