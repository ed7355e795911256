package vaulterr

import (
	"errors"
	"fmt"
)

// Kind classifies every failure the ledger surfaces. Callers route on the
// kind: limit/cooldown mean retry later, validation/authorization mean do
// not retry, slippage/paused mean alert operations.
type Kind string

const (
	KindValidation       Kind = "validation"
	KindNotFound         Kind = "not_found"
	KindAuthorization    Kind = "authorization"
	KindLimitExceeded    Kind = "limit_exceeded"
	KindSlippageExceeded Kind = "slippage_exceeded"
	KindCooldown         Kind = "cooldown"
	KindPaused           Kind = "paused"
	KindReentrancy       Kind = "reentrancy"
	KindInternal         Kind = "internal"
)

type Error struct {
	Kind Kind
	Code string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Err.Error())
	}
	if e.Code != "" {
		return e.Code
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, code string, err error) *Error {
	return &Error{Kind: kind, Code: code, Err: err}
}

func Newf(kind Kind, code, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Code: code, Err: fmt.Errorf(format, args...)}
}

// KindOf reports the classified kind of err, or KindInternal when err does
// not carry one.
func KindOf(err error) Kind {
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Kind
	}
	return KindInternal
}

// CodeOf reports the stable code of err, or "internal_error" when err does
// not carry one.
func CodeOf(err error) string {
	var ve *Error
	if errors.As(err, &ve) && ve.Code != "" {
		return ve.Code
	}
	return "internal_error"
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
