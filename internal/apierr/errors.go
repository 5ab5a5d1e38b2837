package apierr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/crestline/estatesite/pkg"

	log "github.com/sirupsen/logrus"
)

type Kind string

const (
	Unauthenticated Kind = "unauthenticated"
	Forbidden       Kind = "forbidden"
	Validation      Kind = "validation"
	Conflict        Kind = "conflict"
	NotFound        Kind = "not_found"
	Dependency      Kind = "dependency"
)

const genericDependencyMessage = "internal server error"

// Error is a classified failure. Sentinels created with New are compared with errors.Is.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// KindOf returns the kind of the first classified error in the chain, Dependency otherwise.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return Dependency
}

func Status(kind Kind) int {
	switch kind {
	case Unauthenticated:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case Validation:
		return http.StatusBadRequest
	case Conflict:
		return http.StatusConflict
	case NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Write maps err onto its HTTP status and writes the JSON error body.
// Dependency failures get a generic message unless detailed is set.
func Write(w http.ResponseWriter, err error, detailed bool) {
	kind := KindOf(err)
	message := messageOf(err)
	if kind == Dependency {
		log.Errorf("dependency failure: %s", err)
		if detailed {
			message = err.Error()
		} else {
			message = genericDependencyMessage
		}
	}

	pkg.WriteJSON(w, Status(kind), Response{
		Success: false,
		Message: message,
	})
}

func messageOf(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
