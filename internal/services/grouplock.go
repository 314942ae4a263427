package services

import "sync"

// groupLocks hands out one RWMutex per group. Incremental balance writes
// share the read side because additive upserts commute; a rebuild takes the
// write side so no increment lands between its delete and re-insert.
type groupLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.RWMutex
}

func newGroupLocks() *groupLocks {
	return &groupLocks{locks: make(map[string]*sync.RWMutex)}
}

func (g *groupLocks) get(groupID string) *sync.RWMutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	l, ok := g.locks[groupID]
	if !ok {
		l = &sync.RWMutex{}
		g.locks[groupID] = l
	}
	return l
}

// shared locks groupID for an incremental write and returns the unlock func.
func (g *groupLocks) shared(groupID string) func() {
	l := g.get(groupID)
	l.RLock()
	return l.RUnlock
}

// exclusive locks groupID for a rebuild and returns the unlock func.
func (g *groupLocks) exclusive(groupID string) func() {
	l := g.get(groupID)
	l.Lock()
	return l.Unlock
}
