package cache

import (
	"context"
	"sync"
)

// ReleaseFunc releases a lock obtained by TryLock
type ReleaseFunc = func(ctx context.Context) error

// MemoryLocker is an in-process try-lock keyed by string.
// It never blocks: a held key is reported as not acquired.
type MemoryLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewMemoryLocker creates a new MemoryLocker
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]struct{})}
}

// TryLock acquires key if nobody in this process holds it
func (l *MemoryLocker) TryLock(_ context.Context, key string) (ReleaseFunc, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, busy := l.held[key]; busy {
		return nil, false, nil
	}
	l.held[key] = struct{}{}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
		return nil
	}, true, nil
}

// Held reports whether key is currently locked
func (l *MemoryLocker) Held(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, busy := l.held[key]
	return busy
}

// Locker is the try-lock contract shared by the lockers of this package
type Locker interface {
	TryLock(ctx context.Context, key string) (ReleaseFunc, bool, error)
}

// ChainLocker acquires every locker in order and fails fast on the first one
// that is busy or errors, releasing what it already holds
type ChainLocker []Locker

// TryLock acquires key on every locker of the chain
func (c ChainLocker) TryLock(ctx context.Context, key string) (ReleaseFunc, bool, error) {
	releases := make([]ReleaseFunc, 0, len(c))
	releaseAll := func(ctx context.Context) error {
		var first error
		for i := len(releases) - 1; i >= 0; i-- {
			if err := releases[i](ctx); err != nil && first == nil {
				first = err
			}
		}
		return first
	}

	for _, l := range c {
		release, ok, err := l.TryLock(ctx, key)
		if err != nil || !ok {
			_ = releaseAll(ctx)
			return nil, false, err
		}
		releases = append(releases, release)
	}
	return releaseAll, true, nil
}

var (
	_ Locker = (*MemoryLocker)(nil)
	_ Locker = ChainLocker(nil)
)
