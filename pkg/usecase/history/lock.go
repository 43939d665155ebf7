package history

import "sync"

// keyedLock serializes appends per user key. The store's replace is
// delete+create rather than compare-and-swap, so two interleaved appends
// for the same key can silently lose one entry; appends for different keys
// are independent. Lock entries are never evicted: the table is bounded by
// the number of distinct users seen by one process.
type keyedLock struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Lock acquires the mutex for key and returns its unlock function.
func (x *keyedLock) Lock(key string) func() {
	x.mu.Lock()
	if x.locks == nil {
		x.locks = make(map[string]*sync.Mutex)
	}
	lock, ok := x.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		x.locks[key] = lock
	}
	x.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
