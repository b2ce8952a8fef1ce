package levelsync

import (
	"fmt"
	"sync"
	"time"
)

// Incident is one recorded failure.
type Incident struct {
	At  time.Time
	Op  string
	Err error
}

func (i Incident) Error() string {
	return fmt.Sprintf("%s %s: %v", i.At.Format(time.RFC3339), i.Op, i.Err)
}

// Unwrap returns the recorded error.
func (i Incident) Unwrap() error { return i.Err }

// errorRing is a thread-safe ring buffer of recent incidents.
type errorRing struct {
	mu      sync.RWMutex
	entries []Incident
	head    int
	count   int
}

// newErrorRing creates a ring with the given capacity. A non-positive size
// disables it; the nil ring accepts and discards everything.
func newErrorRing(size int) *errorRing {
	if size <= 0 {
		return nil
	}
	return &errorRing{entries: make([]Incident, size)}
}

func (r *errorRing) push(in Incident) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[r.head] = in
	r.head = (r.head + 1) % len(r.entries)
	if r.count < len(r.entries) {
		r.count++
	}
}

func (r *errorRing) clear() {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	clear(r.entries)
	r.head = 0
	r.count = 0
}

// all returns the incidents oldest first.
func (r *errorRing) all() []Incident {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.count == 0 {
		return nil
	}
	size := len(r.entries)
	out := make([]Incident, r.count)
	start := (r.head - r.count + size) % size
	for i := range out {
		out[i] = r.entries[(start+i)%size]
	}
	return out
}
