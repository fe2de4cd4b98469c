package app

import "sync"

// roomLocks serializes membership mutation per room code while letting
// different rooms proceed in parallel. Entries are refcounted so the
// table does not grow with dead rooms.
type roomLocks struct {
	mu    sync.Mutex
	locks map[string]*roomLock
}

type roomLock struct {
	mu   sync.Mutex
	refs int
}

func newRoomLocks() *roomLocks {
	return &roomLocks{locks: make(map[string]*roomLock)}
}

func (l *roomLocks) lock(code string) {
	l.mu.Lock()
	entry, ok := l.locks[code]
	if !ok {
		entry = &roomLock{}
		l.locks[code] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
}

func (l *roomLocks) unlock(code string) {
	l.mu.Lock()
	entry := l.locks[code]
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, code)
	}
	l.mu.Unlock()

	entry.mu.Unlock()
}
