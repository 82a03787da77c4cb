// Package apperr defines the error taxonomy shared by the reward services.
// Expected business-rule failures are *Error values carrying a Kind; anything
// else reaching a handler is an infrastructure failure.
package apperr

import (
	"encoding/json"
	"errors"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindUnauthenticated
	KindNotFound
	KindConflict
	KindInvalidInput
	KindInsufficientFunds
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInvalidInput:
		return "invalid_input"
	case KindInsufficientFunds:
		return "insufficient_funds"
	default:
		return "internal"
	}
}

// Error is a classified business error. Sentinels are compared by identity
// with errors.Is.
type Error struct {
	Kind Kind
	Msg  string
	// HTTPStatus overrides Status(Kind) for this error when non-zero.
	HTTPStatus int

	base *Error
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// NewWithStatus is New with a fixed HTTP status, for errors whose public
// status differs from their kind's default.
func NewWithStatus(kind Kind, status int, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, HTTPStatus: status}
}

func (e *Error) Error() string { return e.Msg }

// Detail returns a copy of e whose message carries detail. The copy still
// matches e under errors.Is.
func (e *Error) Detail(detail string) *Error {
	root := e
	if e.base != nil {
		root = e.base
	}
	return &Error{Kind: e.Kind, Msg: e.Msg + ": " + detail, HTTPStatus: e.HTTPStatus, base: root}
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.base != nil && e.base == t
}

// KindOf returns the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Status is the default HTTP status for a kind. Handlers may override it
// where the public contract differs.
func Status(kind Kind) int {
	switch kind {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindInvalidInput, KindInsufficientFunds:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Write renders the first *Error in err's chain as {"error": msg, "code":
// kind}. Wrapping context is never rendered. Unclassified errors are
// reported as "internal error" without detail; log them before calling.
func Write(w http.ResponseWriter, err error) {
	var e *Error
	if !errors.As(err, &e) || e.Kind == KindInternal {
		WriteStatus(w, http.StatusInternalServerError, KindInternal, "internal error")
		return
	}
	status := e.HTTPStatus
	if status == 0 {
		status = Status(e.Kind)
	}
	WriteStatus(w, status, e.Kind, e.Msg)
}

// WriteStatus writes an error body with an explicit status.
func WriteStatus(w http.ResponseWriter, status int, kind Kind, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg, "code": kind.String()})
}
