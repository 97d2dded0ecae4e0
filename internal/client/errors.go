package client

import (
	"errors"
	"net/http"
)

// Kind classifies a failed call.
type Kind string

const (
	KindValidation Kind = "validation"
	KindAuth       Kind = "auth"
	KindNetwork    Kind = "network"
	KindUnknown    Kind = "unknown"
)

// Error is returned by every query and mutation that fails. Message is the
// server's "error" field when present, otherwise the operation's fallback.
type Error struct {
	Kind    Kind
	Status  int
	Code    string
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// kindForStatus maps a non-2xx HTTP status to an error kind.
func kindForStatus(status int) Kind {
	switch status {
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		return KindValidation
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindAuth
	default:
		return KindNetwork
	}
}

// IsKind reports whether err is a client Error of kind k.
func IsKind(err error, k Kind) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Kind == k
}

// IsStatus reports whether err is a client Error with the given HTTP status.
func IsStatus(err error, status int) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Status == status
}
