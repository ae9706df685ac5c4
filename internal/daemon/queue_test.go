package daemon

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRebuildQueueCoalescesBurst(t *testing.T) {
	q := newRebuildQueue()
	for range 5 {
		q.Request("watch")
	}

	select {
	case trig := <-q.requests:
		assert.Equal(t, "watch", trig)
	default:
		t.Fatal("expected one pending request")
	}

	select {
	case trig := <-q.requests:
		t.Fatalf("expected burst to coalesce, got second request %q", trig)
	default:
	}
}

func TestRebuildQueueKeepsFirstTrigger(t *testing.T) {
	q := newRebuildQueue()
	q.Request("watch")
	q.Request("api")

	require.Equal(t, "watch", <-q.requests)

	select {
	case trig := <-q.requests:
		t.Fatalf("second request should have been dropped, got %q", trig)
	default:
	}
}

func TestDebouncedBurstFiresOnce(t *testing.T) {
	var calls atomic.Int32
	trigger := debounced(25*time.Millisecond, func() { calls.Add(1) })

	for range 5 {
		trigger()
		time.Sleep(5 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return calls.Load() == 1 },
		500*time.Millisecond, 10*time.Millisecond)

	time.Sleep(75 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load(), "expected only one call for burst")
}

func TestDebouncedFiresAgainAfterNextBurst(t *testing.T) {
	var calls atomic.Int32
	trigger := debounced(20*time.Millisecond, func() { calls.Add(1) })

	trigger()
	require.Eventually(t, func() bool { return calls.Load() == 1 },
		500*time.Millisecond, 10*time.Millisecond)

	trigger()
	require.Eventually(t, func() bool { return calls.Load() == 2 },
		500*time.Millisecond, 10*time.Millisecond)
}
