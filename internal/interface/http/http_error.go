package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/mens-health/internal/domain/auth"
	apperrors "github.com/yanqian/mens-health/pkg/errors"
)

// HTTPError captures the metadata required to serialize an error response consistently.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// NewHTTPError is a helper to build an HTTPError instance.
func NewHTTPError(status int, code, message string, err error) *HTTPError {
	return &HTTPError{Status: status, Code: code, Message: message, Err: err}
}

// fromAppError maps a domain error onto the status its code implies.
func fromAppError(err error) *HTTPError {
	code := apperrors.CodeOf(err)
	if code == "" {
		code = apperrors.CodeInternal
	}
	return NewHTTPError(statusForCode(code), code, apperrors.MessageOf(err), err)
}

func statusForCode(code string) int {
	switch code {
	case apperrors.CodeInvalidInput, "invalid_request":
		return http.StatusBadRequest
	case apperrors.CodeInvalidCredentials, apperrors.CodeInvalidToken, apperrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case apperrors.CodeForbidden:
		return http.StatusForbidden
	case apperrors.CodeNotFound, auth.CodeUserNotFound:
		return http.StatusNotFound
	case apperrors.CodeEmailExists, "account_linking_disabled":
		return http.StatusConflict
	case "auth_not_configured":
		return http.StatusNotImplemented
	case apperrors.CodeUpstream, "oauth_exchange_failed":
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func asHTTPError(err error) *HTTPError {
	if err == nil {
		return nil
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return &HTTPError{
		Status:  http.StatusInternalServerError,
		Code:    apperrors.CodeInternal,
		Message: "something went wrong",
		Err:     err,
	}
}

func abortWithError(c *gin.Context, err *HTTPError) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

// abortWithFunctionError renders the flat {"error": message} body of the
// function surface.
func abortWithFunctionError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
