package engine

import (
	"errors"
	"fmt"
)

// Code mengklasifikasikan kegagalan operasi engine. Semua kegagalan pure
// function result ke caller; engine tidak pernah retry internal.
type Code string

const (
	// CodeInvalidInput -> request malformed/out-of-range; jangan di-retry.
	CodeInvalidInput Code = "invalid_input"
	// CodeNotFound -> entity yang direferensikan tidak ada.
	CodeNotFound Code = "not_found"
	// CodeInvalidState -> transisi tidak sah dari status sekarang; pesan
	// menyertakan status sekarang supaya client bisa refresh view-nya.
	CodeInvalidState Code = "invalid_state"
	// CodeConflict -> kalah race di conditional write; caller boleh
	// re-fetch lalu retry manual.
	CodeConflict Code = "conflict"
	// CodeUnavailable -> timeout storage; aman retry otomatis (dengan
	// backoff) karena tidak ada partial write yang commit.
	CodeUnavailable Code = "unavailable"
)

type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf -> kode dari error engine, atau CodeUnavailable untuk error lain
// (kegagalan storage yang tidak terklasifikasi).
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnavailable
}

func IsInvalidInput(err error) bool { return CodeOf(err) == CodeInvalidInput }
func IsNotFound(err error) bool     { return CodeOf(err) == CodeNotFound }
func IsInvalidState(err error) bool { return CodeOf(err) == CodeInvalidState }
func IsConflict(err error) bool     { return CodeOf(err) == CodeConflict }
func IsUnavailable(err error) bool  { return CodeOf(err) == CodeUnavailable }
