package daemon

import (
	"sync"
	"time"
)

// rebuildQueue serializes builds. Requests are coalesced: the channel holds
// at most one pending trigger, so a burst of changes during a running build
// produces exactly one follow-up.
type rebuildQueue struct {
	requests chan string
}

func newRebuildQueue() *rebuildQueue {
	return &rebuildQueue{requests: make(chan string, 1)}
}

// Request enqueues a rebuild. When one is already pending the request is
// dropped; the pending build will pick up the same content.
func (q *rebuildQueue) Request(trigger string) {
	select {
	case q.requests <- trigger:
	default:
	}
}

// debounced returns a trigger function that invokes fn once the quiet
// window has passed without further calls.
func debounced(quiet time.Duration, fn func()) func() {
	var mu sync.Mutex
	var timer *time.Timer
	return func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(quiet, fn)
	}
}
