// Package apperr is the error taxonomy shared by services and handlers.
// Upstream failures are re-classified into one of these kinds at the call
// boundary, keeping the original diagnostic as Detail.
package apperr

import (
	"errors"
	"net/http"
)

type Kind string

const (
	KindValidation            Kind = "validation_error"
	KindAuth                  Kind = "auth_error"
	KindNotFound              Kind = "not_found"
	KindUpstreamCommunication Kind = "upstream_communication_error"
	KindUpstreamRejection     Kind = "upstream_rejection_error"
	KindDataIntegrity         Kind = "data_integrity_error"
	KindInternal              Kind = "internal_error"
)

type Error struct {
	Kind Kind
	// Err is the sentinel describing what failed; errors.Is matches on it.
	Err error
	// Detail carries the upstream or storage diagnostic.
	Detail string
	// Status overrides the kind's default HTTP status (upstream rejections
	// propagate the gateway's status code).
	Status int
	// Public marks an internal error whose sentinel message callers may see.
	// Detail is never shown.
	Public bool
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Message is the caller-facing text: the sentinel message without detail.
func (e *Error) Message() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) HTTPStatus() int {
	if e.Status != 0 {
		return e.Status
	}
	switch e.Kind {
	case KindValidation, KindUpstreamRejection:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindUpstreamCommunication:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func New(kind Kind, err error, detail string) *Error {
	return &Error{Kind: kind, Err: err, Detail: detail}
}

func Validation(err error, detail string) *Error {
	return New(KindValidation, err, detail)
}

func Auth(err error, detail string) *Error {
	return New(KindAuth, err, detail)
}

func NotFound(err error, detail string) *Error {
	return New(KindNotFound, err, detail)
}

func UpstreamCommunication(err error, detail string) *Error {
	return New(KindUpstreamCommunication, err, detail)
}

func UpstreamRejection(err error, detail string, status int) *Error {
	e := New(KindUpstreamRejection, err, detail)
	e.Status = status
	return e
}

func DataIntegrity(err error, detail string) *Error {
	return New(KindDataIntegrity, err, detail)
}

func Internal(err error, detail string) *Error {
	return New(KindInternal, err, detail)
}

// Unreconciled is an internal failure that left the external systems out of
// step with the local store. Callers see which state they are in.
func Unreconciled(err error, detail string) *Error {
	e := New(KindInternal, err, detail)
	e.Public = true
	return e
}

// KindOf reports the kind of err, KindInternal for anything unclassified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
