package allocation

import "sync"

// sheetLocks serializes allocation work per sheet number. The document
// store cannot express a conditional update, so without this two
// concurrent creates for the same free slot would both pass the
// availability check and both win. The map grows to at most the number of
// distinct sheets ever touched and entries are never evicted.
type sheetLocks struct {
	mu    sync.Mutex
	locks map[int]*sync.Mutex
}

func newSheetLocks() *sheetLocks {
	return &sheetLocks{locks: make(map[int]*sync.Mutex)}
}

func (l *sheetLocks) get(n int) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[n]
	if !ok {
		m = &sync.Mutex{}
		l.locks[n] = m
	}
	return m
}

// acquire locks the mutex for one sheet and returns the release func.
func (l *sheetLocks) acquire(n int) func() {
	m := l.get(n)
	m.Lock()
	return m.Unlock
}

// acquirePair locks the mutexes for two sheets in ascending numeric order
// so that concurrent updates moving reservations between the same pair of
// sheets cannot deadlock. Equal numbers take a single lock.
func (l *sheetLocks) acquirePair(a, b int) func() {
	if a == b {
		return l.acquire(a)
	}
	if a > b {
		a, b = b, a
	}
	first := l.get(a)
	second := l.get(b)
	first.Lock()
	second.Lock()
	return func() {
		second.Unlock()
		first.Unlock()
	}
}
