package engine

import "sync"

// userLocks serializes all work touching one user's state. Session,
// dedup, and advisory rows for a user form one consistency unit;
// concurrent passes could double-fire a rule.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire locks the named user's section and returns the unlock func.
func (l *userLocks) acquire(userID string) func() {
	l.mu.Lock()
	lock, ok := l.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[userID] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
