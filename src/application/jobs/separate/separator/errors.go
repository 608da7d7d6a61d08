package separator

import "github.com/cockroachdb/errors"

// Kinds of job failure. Errors returned by the runner are marked with one of
// these, test with mark.Is.
var (
	ValidationError       = errors.New("validation error")
	SeparationError       = errors.New("separation error")
	TimeoutError          = errors.New("timeout error")
	IncompleteOutputError = errors.New("incomplete output error")
)

// Distinguishes the two validation failures of an upload.
var (
	NoFileProvidedError = errors.New("no file provided")
	NoFileSelectedError = errors.New("no file selected")
	FileTooLargeError   = errors.New("file too large")
)
