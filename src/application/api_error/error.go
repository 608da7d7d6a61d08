package api_error

import "github.com/cockroachdb/errors"

type ErrorCode string

const (
	DefaultErrorCode   ErrorCode = "internal_error"
	NoFileProvidedCode ErrorCode = "no_file_provided"
	NoFileSelectedCode ErrorCode = "no_file_selected"
	FileTooLargeCode   ErrorCode = "file_too_large"
	SeparationCode     ErrorCode = "separation_failed"
	TimeoutCode        ErrorCode = "separation_timeout"
	IncompleteCode     ErrorCode = "incomplete_output"
	OutputNotFoundCode ErrorCode = "output_not_found"
	RecordNotFoundCode ErrorCode = "record_not_found"
)

const DefaultUserMessage = "An unexpected error occurred. Please try again later."

func CommitError(err error, errorCode ErrorCode, userMessage string) *Error {
	return &Error{
		ErrorCode:     errorCode,
		UserMessage:   userMessage,
		InternalError: err,
	}
}

func WrapError(err *Error, msg string) *Error {
	return &Error{
		ErrorCode:     err.ErrorCode,
		UserMessage:   err.UserMessage,
		InternalError: errors.Wrap(err.InternalError, msg),
	}
}

// Error carries what a gateway needs to answer a failed request: the code
// and message shown to the client, and the internal chain for the logs.
type Error struct {
	ErrorCode     ErrorCode
	UserMessage   string
	InternalError error
}

func (e Error) Cause() error {
	return e.InternalError
}

func (e Error) Unwrap() error {
	return e.InternalError
}

func (e Error) Error() string {
	if e.InternalError == nil {
		return e.UserMessage
	}

	return e.InternalError.Error()
}
