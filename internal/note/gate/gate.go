// Package gate provides per-note admission control: at most one in-flight
// mutation attempt per note id.
package gate

import "sync"

// Gate maps note ids to mutexes. A second concurrent attempt for the same id
// is not queued; TryAcquire reports false and the caller drops the attempt.
// Distinct ids never contend. Entries live until the process exits.
type Gate struct {
	locks sync.Map // note id -> *sync.Mutex
}

func New() *Gate {
	return &Gate{}
}

// TryAcquire admits the caller for id if no other mutation for that id is
// currently running.
func (g *Gate) TryAcquire(id string) bool {
	m, _ := g.locks.LoadOrStore(id, &sync.Mutex{})
	return m.(*sync.Mutex).TryLock()
}

// Release frees the id. Must only be called after a successful TryAcquire.
func (g *Gate) Release(id string) {
	if m, ok := g.locks.Load(id); ok {
		m.(*sync.Mutex).Unlock()
	}
}
