package separate

import (
	"fmt"
	"stem-separator/src/application/api_error"
	"stem-separator/src/application/jobs/separate/separator"
	"stem-separator/src/lib/mark"

	"github.com/dustin/go-humanize"
)

const (
	NoFileProvidedMessage   = "No file provided."
	NoFileSelectedMessage   = "No file selected."
	SeparationFailedMessage = "An error occurred during audio separation."
	TimeoutMessage          = "Processing timed out. Please try again with a shorter track."
	IncompleteOutputMessage = "Audio separation finished but some stems are missing."
)

func (g Gateway) convertError(err error) *api_error.Error {
	switch {
	case mark.Is(err, separator.FileTooLargeError):
		msg := fmt.Sprintf("The uploaded file exceeds the maximum upload size of %s.", humanize.Bytes(uint64(g.maxUploadBytes)))
		return api_error.CommitError(err, api_error.FileTooLargeCode, msg)
	case mark.Is(err, separator.NoFileSelectedError):
		return api_error.CommitError(err, api_error.NoFileSelectedCode, NoFileSelectedMessage)
	case mark.Is(err, separator.ValidationError):
		return api_error.CommitError(err, api_error.NoFileProvidedCode, NoFileProvidedMessage)
	case mark.Is(err, separator.TimeoutError):
		return api_error.CommitError(err, api_error.TimeoutCode, TimeoutMessage)
	case mark.Is(err, separator.IncompleteOutputError):
		return api_error.CommitError(err, api_error.IncompleteCode, IncompleteOutputMessage)
	case mark.Is(err, separator.SeparationError):
		return api_error.CommitError(err, api_error.SeparationCode, SeparationFailedMessage)
	default:
		return api_error.CommitError(err, api_error.DefaultErrorCode, api_error.DefaultUserMessage)
	}
}
