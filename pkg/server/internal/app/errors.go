package app

// ErrorType represents a generic category of error used as descriptor
// to clarify the nature of a failure that occurred in dependencies.
type ErrorType struct {
	s string
}

func (e ErrorType) String() string { return e.s }

var (
	ErrorTypeProviderFailure      = ErrorType{"provider-failure"}
	ErrorTypeAuthorization        = ErrorType{"authorization"}
	ErrorTypeAccessForbidden      = ErrorType{"access-forbidden"}
	ErrorTypeIncorrectInput       = ErrorType{"incorrect-input"}
	ErrorTypeUnknown              = ErrorType{"unknown"}
	ErrorTypeOperationTimeout     = ErrorType{"operation-timeout"}
	ErrorTypeRawDataProcessing    = ErrorType{"raw-data-processing"}
	ErrorTypeUnsupportedOperation = ErrorType{"unsupported-operation"}
)

// Error is an application-layer error translated by the ports error handler into a
// response for the requester.
//
// err may carry internal details and is only logged. slug is the message returned to
// the requester, so it must never contain storage or ledger internals.
type Error struct {
	err       string
	slug      string
	errorType ErrorType
}

func (e Error) Slug() string         { return e.slug }
func (e Error) IsZero() bool         { return e == Error{} }
func (e Error) Error() string        { return e.err }
func (e Error) ErrorType() ErrorType { return e.errorType }

// NewIncorrectInputError returns an error for requests carrying invalid or partial data.
func NewIncorrectInputError(err, slug string) Error {
	return Error{
		slug:      slug,
		err:       err,
		errorType: ErrorTypeIncorrectInput,
	}
}

// NewProviderFailureError returns an error for failures of the oracle behind the service,
// e.g. storage reads, that should not be exposed to the requester.
func NewProviderFailureError(err, slug string) Error {
	return Error{
		slug:      slug,
		err:       err,
		errorType: ErrorTypeProviderFailure,
	}
}

// NewAuthorizationError returns an error for missing or malformed credentials.
func NewAuthorizationError(err, slug string) Error {
	return Error{
		slug:      slug,
		err:       err,
		errorType: ErrorTypeAuthorization,
	}
}

// NewAccessForbiddenError returns an error for well-formed credentials that do not grant access.
func NewAccessForbiddenError(err, slug string) Error {
	return Error{
		slug:      slug,
		err:       err,
		errorType: ErrorTypeAccessForbidden,
	}
}

// NewRawDataProcessingError returns an error for request bodies that cannot be decoded.
func NewRawDataProcessingError(err, slug string) Error {
	return Error{
		slug:      slug,
		errorType: ErrorTypeRawDataProcessing,
		err:       err,
	}
}

// NewUnsupportedOperationError returns an error for endpoints disabled by the current configuration.
func NewUnsupportedOperationError(err, slug string) Error {
	return Error{
		slug:      slug,
		errorType: ErrorTypeUnsupportedOperation,
		err:       err,
	}
}

// NewUnknownError returns an error that doesn't fall into any other category.
func NewUnknownError(err, slug string) Error {
	return Error{
		slug:      slug,
		errorType: ErrorTypeUnknown,
		err:       err,
	}
}

// NewContextCancellationError returns an error indicating that the request context was
// canceled or exceeded its deadline.
func NewContextCancellationError() Error {
	const msg = "The submitted request context has been canceled or exceeds the timeout limit."
	return Error{
		errorType: ErrorTypeOperationTimeout,
		err:       msg,
		slug:      msg,
	}
}

// NewIncorrectInputWithFieldError returns an incorrect input error naming the missing
// or invalid request field.
func NewIncorrectInputWithFieldError(field string) Error {
	msg := "The request is missing or has an invalid value for the field: " + field + "."
	return NewIncorrectInputError(msg, msg)
}
