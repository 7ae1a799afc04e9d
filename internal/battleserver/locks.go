package battleserver

import "sync"

// battleLocks hands out one mutex per battle id so that mutation of different
// battles never contends while mutation of the same battle is serialised.
// Entries are never reaped; a finished battle's mutex is a few dozen bytes and
// guards late timer callbacks racing the finish path.
type battleLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newBattleLocks() *battleLocks {
	return &battleLocks{locks: make(map[string]*sync.Mutex)}
}

// forBattle returns the mutex for the given battle id, creating it on first
// use.
func (l *battleLocks) forBattle(id string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	if m, ok := l.locks[id]; ok {
		return m
	}
	m := &sync.Mutex{}
	l.locks[id] = m
	return m
}
