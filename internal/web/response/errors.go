package response

import (
	"context"
	"errors"
	"net/http"

	"github.com/datadict/datadict/internal/dict"
)

// Codes of failures raised by the transport itself rather than the dictionary
const (
	CodeInvalidParameter = "1001"
	CodeNotFound         = "1002"
	CodeUnauthorized     = "1003"
	CodeForbidden        = "1004"
	CodeTimeout          = "1006"
	CodeRateLimited      = "1007"
)

// StatusFor maps a dictionary error kind to its HTTP status
func StatusFor(kind dict.Kind) int {
	switch {
	case kind == dict.InternalError:
		return http.StatusInternalServerError
	case kind.IsNotFound():
		return http.StatusNotFound
	case kind.IsConflict():
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

// Error renders err. Dictionary errors keep their code, details and
// alternatives; an expired request deadline is a 504; any other error is
// an internal error whose cause is not exposed.
func Error(w http.ResponseWriter, err error) {
	if errors.Is(err, context.DeadlineExceeded) {
		RenderError(w, http.StatusGatewayTimeout, CodeTimeout, "request timed out")
		return
	}

	de, ok := dict.AsError(err)
	if !ok {
		RenderInternalError(w)
		return
	}

	env := &Envelope{
		Message:      de.Message,
		ErrorCode:    de.Kind.Code(),
		Errors:       de.Errors(),
		Alternatives: de.Alternatives,
	}
	switch {
	case de.Kind == dict.InternalError:
		env.Message = "internal server error"
		env.Errors = nil
	case de.Impact != nil:
		env.Data = de.Impact
	case len(de.Missing) > 0:
		env.Data = map[string][]string{"missing_roots": de.Missing}
	case de.ConflictID != 0:
		env.Data = map[string]int64{"conflict_id": de.ConflictID}
	}
	JSON(w, StatusFor(de.Kind), env)
}

// RenderError renders a transport failure with an explicit status and code
func RenderError(w http.ResponseWriter, status int, code, message string) {
	JSON(w, status, &Envelope{Message: message, ErrorCode: code, Errors: []string{message}})
}

// RenderBadRequest renders a 400 for a malformed request
func RenderBadRequest(w http.ResponseWriter, message string) {
	RenderError(w, http.StatusBadRequest, CodeInvalidParameter, message)
}

// RenderUnauthorized renders a 401 Unauthorized error
func RenderUnauthorized(w http.ResponseWriter, message string) {
	if message == "" {
		message = "authentication required"
	}
	w.Header().Set("WWW-Authenticate", `Bearer realm="datadict"`)
	RenderError(w, http.StatusUnauthorized, CodeUnauthorized, message)
}

// RenderNotFound renders a 404 for an unknown route
func RenderNotFound(w http.ResponseWriter, r *http.Request) {
	RenderError(w, http.StatusNotFound, CodeNotFound, "resource not found: "+r.URL.Path)
}

// RenderMethodNotAllowed renders a 405 Method Not Allowed error
func RenderMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	RenderError(w, http.StatusMethodNotAllowed, CodeInvalidParameter, "method not allowed: "+r.Method)
}

// RenderInternalError renders a 500 without exposing the cause
func RenderInternalError(w http.ResponseWriter) {
	RenderError(w, http.StatusInternalServerError, dict.InternalError.Code(), "internal server error")
}
