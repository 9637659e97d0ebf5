package clone

import "github.com/dogmatiq/dyad"

// Bytes returns a deep copy of v, or nil if v is empty.
func Bytes(v []byte) []byte {
	if len(v) == 0 {
		return nil
	}
	return dyad.Clone(v)
}
