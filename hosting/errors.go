package hosting

import (
	"fmt"
	"net/http"
)

// ErrorClass categorises hosting API failures so an
// operator can distinguish a bad token from insufficient
// repository permissions from a missing repository.
type ErrorClass string

const (
	// ClassAuthentication covers expired, revoked, or
	// malformed credentials (HTTP 401).
	ClassAuthentication ErrorClass = "authentication"
	// ClassPermission covers valid credentials lacking
	// repository permissions, including branch
	// protection rejections (HTTP 403).
	ClassPermission ErrorClass = "permission"
	// ClassNotFound covers missing repositories or
	// resources (HTTP 404).
	ClassNotFound ErrorClass = "not_found"
	// ClassGeneric covers every other failure.
	ClassGeneric ErrorClass = "generic"
)

// Classify maps an HTTP status code to an ErrorClass.
func Classify(status int) ErrorClass {
	switch status {
	case http.StatusUnauthorized:
		return ClassAuthentication
	case http.StatusForbidden:
		return ClassPermission
	case http.StatusNotFound:
		return ClassNotFound
	default:
		return ClassGeneric
	}
}

// APIError is a classified hosting API failure carrying
// the diagnostic context of the failing call.
type APIError struct {
	// Class is the failure category.
	Class ErrorClass
	// StatusCode is the HTTP status of the response,
	// zero when the request never completed.
	StatusCode int
	// TokenClass is the detected credential class
	// (authorization scheme) presented to the API.
	TokenClass string
	// Scopes holds the remote-reported token scopes
	// when the platform exposes them.
	Scopes string
	// Op names the failing operation.
	Op string
	// Err is the underlying transport or API error.
	Err error
}

// Error formats the failure with its diagnostic context.
func (e *APIError) Error() string {
	msg := fmt.Sprintf(
		"%s: %s (status %d, token class %q",
		e.Op, e.Class, e.StatusCode, e.TokenClass,
	)

	if e.Scopes != "" {
		msg += fmt.Sprintf(", scopes %q", e.Scopes)
	}

	msg += ")"

	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

// Unwrap exposes the underlying error for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}
