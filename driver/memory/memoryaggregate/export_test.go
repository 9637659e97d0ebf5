package memoryaggregate

import "time"

// WithClock is an [Option] that sets the function the store uses to read the
// current time.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}
