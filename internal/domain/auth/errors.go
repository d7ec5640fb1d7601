package auth

import "errors"

// ErrEmailExists indicates a duplicate email address.
var ErrEmailExists = errors.New("email already exists")

// CodeUserNotFound marks a token or session whose account no longer exists.
const CodeUserNotFound = "user_not_found"

// Service specific error codes; the shared ones live in pkg/errors.
const (
	codeAuthError      = "auth_error"
	codeNotConfigured  = "auth_not_configured"
	codeOAuthExchange  = "oauth_exchange_failed"
	codeAccountLinking = "account_linking_disabled"
	codeInvalidRequest = "invalid_request"
)
