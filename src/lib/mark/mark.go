package mark

import "github.com/cockroachdb/errors"

// Wrap tags handledErr with the marker so that errors.Is(result, marker)
// holds, then wraps it with msg.
func Wrap(handledErr error, marker error, msg string) error {
	newErr := errors.Mark(handledErr, marker)
	return errors.Wrap(newErr, msg)
}

// Message creates a new error tagged with the marker.
func Message(marker error, msg string) error {
	err := errors.New(msg)
	return errors.Mark(err, marker)
}

// Is reports whether any error in err's chain carries the marker.
func Is(err error, marker error) bool {
	return errors.Is(err, marker)
}
