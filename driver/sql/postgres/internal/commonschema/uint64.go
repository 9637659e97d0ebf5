package commonschema

import (
	"database/sql/driver"
	"fmt"
	"math"
)

// Uint64 is a uint64 that is represented as a SIGNED BIGINT (64-bit) integer
// in PostgreSQL, which has no unsigned integer types.
//
// The encoding preserves order and adjacency, so "column + 1" in SQL is
// equivalent to adding one to the unsigned value.
type Uint64 uint64

// Scan implements [sql.Scanner].
func (p *Uint64) Scan(src any) error {
	if src, ok := src.(int64); ok {
		*p = Uint64(uint64(src) + uint64(math.MaxInt64) + 1)
		return nil
	}

	return fmt.Errorf("cannot scan %T into commonschema.Uint64", src)
}

// Value implements [driver.Valuer].
func (p Uint64) Value() (driver.Value, error) {
	return int64(p - (math.MaxInt64 + 1)), nil
}
