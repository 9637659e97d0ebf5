package dispatch

import "unicode/utf8"

// Limits bounds the size of requests accepted by a [Dispatcher].
//
// A zero value for any field means that aspect of the request is unbounded.
type Limits struct {
	// MaxElements is the maximum number of elements in a single [Join].
	MaxElements int

	// MaxElementLength is the maximum length of a single element, in bytes.
	MaxElementLength int

	// MaxSetIDLength is the maximum length of a set ID, in bytes.
	MaxSetIDLength int
}

// DefaultLimits is the set of limits used when none are configured.
var DefaultLimits = Limits{
	MaxElements:      100_000,
	MaxElementLength: 1024,
	MaxSetIDLength:   256,
}

func (l Limits) checkSetID(setID string) error {
	if setID == "" {
		return malformed("set ID must not be empty")
	}

	if l.MaxSetIDLength > 0 && len(setID) > l.MaxSetIDLength {
		return malformed("set ID exceeds %d bytes", l.MaxSetIDLength)
	}

	if !utf8.ValidString(setID) {
		return malformed("set ID must be valid UTF-8")
	}

	return nil
}

func (l Limits) checkElements(elements []string) error {
	if l.MaxElements > 0 && len(elements) > l.MaxElements {
		return malformed("join contains %d elements, limit is %d", len(elements), l.MaxElements)
	}

	for i, v := range elements {
		if l.MaxElementLength > 0 && len(v) > l.MaxElementLength {
			return malformed("element %d exceeds %d bytes", i, l.MaxElementLength)
		}
	}

	return nil
}
