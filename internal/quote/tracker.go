package quote

import "sync"

// Tracker implements last-write-wins-by-sequence for quote responses. The
// UI re-quotes on every input change; responses can arrive out of order,
// and a response belonging to a superseded request must be discarded
// rather than overwrite a newer in-flight result.
type Tracker struct {
	mu     sync.Mutex
	latest uint64
	seen   bool
}

// Accept reports whether a response with the given sequence number is
// current. A sequence at or above the latest accepted one wins; anything
// older is stale.
func (t *Tracker) Accept(seq uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.seen && seq < t.latest {
		return false
	}
	t.latest = seq
	t.seen = true
	return true
}
