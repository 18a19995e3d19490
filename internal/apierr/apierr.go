// Package apierr defines the API error taxonomy. Every failure that should
// reach a client is expressed as an *Error carrying a kind, a machine code
// and a human message; the central HTTP error handler maps kinds to status
// codes and renders the uniform {"error": ..., "code": ...} envelope.
package apierr

import "net/http"

// Kind enumerates the failure categories the API distinguishes.
type Kind int

const (
	KindUnknown Kind = iota
	KindAccessDenied
	KindInvalidToken
	KindNotFound
	KindForbidden
	KindConflict
	KindInvalidCredential
	KindValidation
)

// Error is the tagged error variant returned by handlers and middleware.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

// Status returns the HTTP status for the error's kind. AccessDenied maps to
// 400 rather than 401 on purpose: clients of the previous incarnation of
// this API depend on that status, so it is preserved as-is.
func (e *Error) Status() int {
	switch e.Kind {
	case KindInvalidToken:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindAccessDenied, KindInvalidCredential, KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// AccessDenied is returned when an endpoint requires an identity and the
// request carries none.
func AccessDenied() *Error {
	return &Error{Kind: KindAccessDenied, Code: "access_denied", Message: "Invalid or missing authorization."}
}

// InvalidToken is returned when an Authorization header is well-formed but
// its key matches no active credential. This is a hard authentication
// failure, distinct from the anonymous (missing header) case.
func InvalidToken() *Error {
	return &Error{Kind: KindInvalidToken, Code: "invalid_token_key", Message: "Invalid Token Key"}
}

// NotFound covers both truly absent rows and rows owned by someone else;
// the two cases are deliberately indistinguishable.
func NotFound() *Error {
	return &Error{Kind: KindNotFound, Code: "not_found", Message: "Not found."}
}

// Forbidden is returned when an identity is present but lacks privilege.
func Forbidden() *Error {
	return &Error{Kind: KindForbidden, Code: "forbidden", Message: "Forbidden."}
}

// Conflict signals a storage-level uniqueness violation.
func Conflict(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message}
}

// InvalidCredential is returned when login or external-auth verification
// fails. 400, not 401: preserved for compatibility.
func InvalidCredential() *Error {
	return &Error{Kind: KindInvalidCredential, Code: "invalid_credential", Message: "Invalid credential."}
}

// Validation is returned for malformed or out-of-bounds input payloads.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Code: "validation_error", Message: message}
}
