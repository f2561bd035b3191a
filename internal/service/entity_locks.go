package service

import "sync"

// EntityLocks serializes writers per entity ID. Status transitions are
// read-check-write sequences, so every mutation of a given ticket or invoice
// must run under that entity's lock; a single EntityLocks instance is shared
// by all services that touch the same entities.
type EntityLocks struct {
	mu    sync.Mutex
	locks map[string]*entityLock
}

type entityLock struct {
	mu   sync.Mutex
	refs int
}

// NewEntityLocks constructs an empty registry.
func NewEntityLocks() *EntityLocks {
	return &EntityLocks{locks: make(map[string]*entityLock)}
}

// Lock acquires the lock for one entity ID and returns the release func.
// Entries are dropped once the last holder releases, so the registry stays
// proportional to the number of in-flight mutations.
func (l *EntityLocks) Lock(id string) func() {
	l.mu.Lock()
	lock, ok := l.locks[id]
	if !ok {
		lock = &entityLock{}
		l.locks[id] = lock
	}
	lock.refs++
	l.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		l.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
