package app

import "strings"

// BearerScheme prefixes the token in the Authorization header.
const BearerScheme = "Bearer "

// CheckBearerToken validates an Authorization header value against expected.
// Missing or malformed headers are authorization errors, a wrong token is forbidden.
func CheckBearerToken(header, expected string) error {
	if header == "" {
		return NewMissingAuthorizationHeaderError()
	}

	token, ok := strings.CutPrefix(header, BearerScheme)
	if !ok {
		return NewInvalidAuthorizationSchemeError()
	}
	if token == "" || token != expected {
		return NewInvalidBearerTokenError()
	}
	return nil
}

// NewMissingAuthorizationHeaderError is returned when the Authorization header is missing.
func NewMissingAuthorizationHeaderError() Error {
	const msg = "Unauthorized access: Missing Authorization header in the request"
	return NewAuthorizationError(msg, msg)
}

// NewInvalidAuthorizationSchemeError is returned when the Authorization header is not "Bearer <token>".
func NewInvalidAuthorizationSchemeError() Error {
	const msg = "Unauthorized access: Missing Authorization header Bearer token value"
	return NewAuthorizationError(msg, msg)
}

// NewInvalidBearerTokenError is returned when the Bearer token is not recognized.
func NewInvalidBearerTokenError() Error {
	const msg = "Forbidden access: Invalid Bearer token value"
	return NewAccessForbiddenError(msg, msg)
}

// NewARCCallbacksDisabledError is returned for ARC callbacks while no ARC API key is configured.
func NewARCCallbacksDisabledError() Error {
	const msg = "ARC callbacks are disabled: no ARC API key is configured."
	return NewUnsupportedOperationError(msg, msg)
}
