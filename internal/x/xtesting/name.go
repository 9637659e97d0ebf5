package xtesting

import (
	"fmt"
	"sync"
)

var (
	namesM sync.Mutex
	names  map[string]uint64
)

// SequentialName returns a name with the given prefix that is unique within
// the test binary, such as "set-1", "set-2" and so on.
func SequentialName(prefix string) string {
	namesM.Lock()
	defer namesM.Unlock()

	if names == nil {
		names = map[string]uint64{}
	}

	names[prefix]++

	return fmt.Sprintf("%s-%d", prefix, names[prefix])
}
