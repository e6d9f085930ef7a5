package service

import "sync"

// sessionLocks hands out one mutex per session id. Sessions are never
// deleted in this service, so entries are not evicted.
type sessionLocks struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{m: make(map[string]*sync.Mutex)}
}

func (l *sessionLocks) get(sessionID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	sl, ok := l.m[sessionID]
	if !ok {
		sl = &sync.Mutex{}
		l.m[sessionID] = sl
	}
	return sl
}
