package errorx

import (
	"fmt"

	"github.com/dogmatiq/psikit/kv"
)

// Wrap adds additional context to an error.
//
// Optimistic concurrency conflicts are returned unchanged so that callers can
// retry without inspecting the error chain.
func Wrap(err *error, format string, args ...any) {
	if err == nil {
		panic("err must not be nil")
	}

	if *err == nil {
		return
	}

	if kv.IsConflict(*err) {
		return
	}

	*err = fmt.Errorf(format+": %w", append(args, *err)...)
}
