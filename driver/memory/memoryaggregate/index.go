package memoryaggregate

import (
	"sync"
	"sync/atomic"
	"time"
)

// index is a set of entries keyed by set ID.
type index interface {
	Load(setID string) (*entry, bool)
	LoadOrCreate(setID string) *entry
	Len() int
}

// mapIndex is an unbounded [index].
type mapIndex struct {
	entries sync.Map // map[string]*entry
	len     atomic.Int64
}

func (x *mapIndex) Load(setID string) (*entry, bool) {
	e, ok := x.entries.Load(setID)
	if !ok {
		return nil, false
	}
	return e.(*entry), true
}

func (x *mapIndex) LoadOrCreate(setID string) *entry {
	if e, ok := x.entries.Load(setID); ok {
		return e.(*entry)
	}

	e, loaded := x.entries.LoadOrStore(setID, &entry{})
	if !loaded {
		x.len.Add(1)
	}

	return e.(*entry)
}

func (x *mapIndex) Len() int {
	return int(x.len.Load())
}

// expiringIndex is an [index] that discards each entry once it is older than a
// fixed TTL.
//
// An entry's expiry depends only on its own creation time. Operations on one
// set ID never cause the entry for another set ID to be discarded early.
type expiringIndex struct {
	ttl time.Duration
	now func() time.Time

	m         sync.Mutex
	entries   map[string]*entry
	lastSweep time.Time
}

func newExpiringIndex(ttl time.Duration, now func() time.Time) *expiringIndex {
	return &expiringIndex{
		ttl:       ttl,
		now:       now,
		entries:   map[string]*entry{},
		lastSweep: now(),
	}
}

func (x *expiringIndex) Load(setID string) (*entry, bool) {
	x.m.Lock()
	defer x.m.Unlock()

	return x.load(setID, x.now())
}

func (x *expiringIndex) LoadOrCreate(setID string) *entry {
	x.m.Lock()
	defer x.m.Unlock()

	now := x.now()
	x.sweep(now)

	if e, ok := x.load(setID, now); ok {
		return e
	}

	e := &entry{expiresAt: now.Add(x.ttl)}
	x.entries[setID] = e

	return e
}

func (x *expiringIndex) Len() int {
	x.m.Lock()
	defer x.m.Unlock()

	now := x.now()
	x.lastSweep = time.Time{}
	x.sweep(now)

	return len(x.entries)
}

// load returns the live entry for setID, discarding it if it has expired.
func (x *expiringIndex) load(setID string, now time.Time) (*entry, bool) {
	e, ok := x.entries[setID]
	if !ok {
		return nil, false
	}

	if !now.Before(e.expiresAt) {
		delete(x.entries, setID)
		return nil, false
	}

	return e, true
}

// sweep discards all expired entries, at most once per TTL.
func (x *expiringIndex) sweep(now time.Time) {
	if now.Sub(x.lastSweep) < x.ttl {
		return
	}
	x.lastSweep = now

	for id, e := range x.entries {
		if !now.Before(e.expiresAt) {
			delete(x.entries, id)
		}
	}
}
