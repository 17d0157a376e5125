package pipeline

import (
	"sync"

	"github.com/google/uuid"
)

// leaseTable guards against concurrent runs for the same document. A lease is
// held for the full duration of a pipeline run and released on every exit
// path, success or failure.
type leaseTable struct {
	mu       sync.Mutex
	inFlight map[uuid.UUID]struct{}
}

func newLeaseTable() *leaseTable {
	return &leaseTable{inFlight: make(map[uuid.UUID]struct{})}
}

// acquire returns false when a run already holds the document.
func (l *leaseTable) acquire(id uuid.UUID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, held := l.inFlight[id]; held {
		return false
	}
	l.inFlight[id] = struct{}{}
	return true
}

func (l *leaseTable) release(id uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.inFlight, id)
}
