package luminous

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors. All are matchable with errors.Is.
var (
	// ErrProtocolViolation wraps every error caused by the server answering
	// outside the documented protocol: an unrecognized login step, a
	// non-single envelope from a write, a non-collection envelope from a
	// paginated read.
	ErrProtocolViolation = errors.New("luminous: protocol violation")

	// ErrNoSession is returned when an operation that requires an active
	// session is invoked on an anonymous client. Hitting it is a programming
	// error, not a recoverable condition.
	ErrNoSession = errors.New("luminous: no active session")

	// ErrEndOfResults is returned by Next and Prev when the source page has
	// no cursor in the requested direction. No network call is made.
	ErrEndOfResults = errors.New("luminous: no further pages")
)

// Rejection codes the server uses for user-facing login failures.
const (
	codeIncorrectPassword = "INCORRECT-PASSWORD"
	codeEmailNotFound     = "EMAIL-NOT-FOUND"
)

// APIError is a structured error returned by the API in an error envelope.
type APIError struct {
	// Status is the HTTP status code of the error.
	Status int

	// Code is the machine-readable error code, if the server provided one.
	Code string

	// Title is a short human-readable summary.
	Title string

	// Detail is the human-readable description of what went wrong.
	Detail string

	// Obstructions hold structured sub-errors, when available.
	Obstructions []Obstruction
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (HTTP %d): %s", e.Code, e.Status, e.Detail)
	}
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Detail)
}

// inflateError turns an error envelope into a typed *APIError. It tolerates
// envelopes with a missing error body so a malformed server response still
// yields something useful.
func inflateError(env *Envelope) *APIError {
	if env == nil || env.Error == nil {
		return &APIError{
			Status: http.StatusInternalServerError,
			Detail: "the server returned an error envelope without an error body",
		}
	}
	return &APIError{
		Status:       env.Error.Status,
		Code:         env.Error.Code,
		Title:        env.Error.Title,
		Detail:       env.Error.Detail,
		Obstructions: env.Error.Obstructions,
	}
}

// classifyAuthFailure maps an error envelope from a login-flow call to either
// a rejected outcome (returned to the caller, who is expected to re-prompt
// the user) or a fatal error (thrown). This is the single place the
// return-vs-throw decision for authentication failures is made.
func classifyAuthFailure(status int, env *Envelope) (LoginResult, error) {
	apiErr := inflateError(env)
	rejected := status == http.StatusUnauthorized ||
		apiErr.Code == codeIncorrectPassword ||
		apiErr.Code == codeEmailNotFound
	if rejected {
		return LoginResult{Status: LoginRejected, Err: apiErr}, nil
	}
	return LoginResult{}, apiErr
}
