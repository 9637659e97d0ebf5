package kvaggregate

import (
	"errors"
	"fmt"
)

// IsCorruptRecord returns true if err is caused by [CorruptRecordError].
func IsCorruptRecord(err error) bool {
	var target interface {
		isCorruptRecordError()
	}

	return errors.As(err, &target)
}

// CorruptRecordError is returned when a persisted record can not be decoded, or
// describes a state that the store never writes.
type CorruptRecordError struct {
	// SetID is the set ID of the corrupt record.
	SetID string

	// Cause describes the corruption.
	Cause error
}

func (e CorruptRecordError) Error() string {
	return fmt.Sprintf("the record for set ID %q is corrupt: %s", e.SetID, e.Cause)
}

func (e CorruptRecordError) Unwrap() error {
	return e.Cause
}

func (CorruptRecordError) isCorruptRecordError() {}
