package services

import (
	"errors"

	"github.com/farman-pharma/apiserver/internal/store"
)

// Failure taxonomy surfaced to the HTTP layer. Handlers map these to distinct
// status codes; they are never collapsed into a generic error.
var (
	// ErrUnauthenticated means no valid session accompanied the request.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden means the session is valid but the actor's role and
	// permissions do not cover the action.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation means a required field is missing or malformed. It is
	// always detected before any external call.
	ErrValidation = errors.New("validation failed")

	// ErrUpstream means the media host or mail relay failed.
	ErrUpstream = errors.New("upstream failure")
)

func isDuplicate(err error) bool {
	return errors.Is(err, store.ErrDuplicate)
}
