// Package runlock provides a named, expiring mutual-exclusion lock used to keep
// ingestion runs from overlapping on the shared snapshot files.
package runlock

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrLocked = errors.New("runlock: already held")

// Release frees a lock obtained from a Locker.
type Release func(ctx context.Context) error

type Locker interface {
	// Acquire takes the named lock for at most ttl or fails with ErrLocked.
	Acquire(ctx context.Context, name string, ttl time.Duration) (Release, error)
}

// LocalLocker is an in-process Locker for single-instance deployments.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]localLease
	now  func() time.Time
	seq  uint64
}

type localLease struct {
	id      uint64
	expires time.Time
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]localLease), now: time.Now}
}

func (l *LocalLocker) Acquire(_ context.Context, name string, ttl time.Duration) (Release, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if lease, ok := l.held[name]; ok && now.Before(lease.expires) {
		return nil, ErrLocked
	}

	l.seq++
	id := l.seq
	l.held[name] = localLease{id: id, expires: now.Add(ttl)}

	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if lease, ok := l.held[name]; ok && lease.id == id {
			delete(l.held, name)
		}
		return nil
	}, nil
}
