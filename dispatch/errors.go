package dispatch

import (
	"errors"
	"fmt"
)

// IsNotFound returns true if err is caused by [NotFoundError].
func IsNotFound(err error) bool {
	var target interface {
		isNotFoundError()
	}

	return errors.As(err, &target)
}

// IsMalformed returns true if err is caused by [MalformedRequestError].
func IsMalformed(err error) bool {
	var target interface {
		isMalformedRequestError()
	}

	return errors.As(err, &target)
}

// NotFoundError is returned by [Dispatcher.GetResult] if there have been no
// contributions for the requested set ID.
type NotFoundError struct {
	SetID string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("set %q has no contributions", e.SetID)
}

func (NotFoundError) isNotFoundError() {}

// MalformedRequestError is returned by a [Dispatcher] if a request is missing
// required information or exceeds the configured [Limits].
type MalformedRequestError struct {
	Reason string
}

func (e MalformedRequestError) Error() string {
	return "malformed request: " + e.Reason
}

func (MalformedRequestError) isMalformedRequestError() {}

func malformed(format string, args ...any) error {
	return MalformedRequestError{fmt.Sprintf(format, args...)}
}
