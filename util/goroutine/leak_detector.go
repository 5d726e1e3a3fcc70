package goroutine

import (
	"runtime"
	"testing"
	"time"
)

// AssertNoLeaks registers a cleanup that verifies the goroutine count
// returns to its baseline after the test finishes. Call it at the top
// of tests that start components owning goroutines (the scheduler, the
// retention loop).
func AssertNoLeaks(t *testing.T) {
	t.Helper()
	AssertNoLeaksWithTimeout(t, 5*time.Second, 100*time.Millisecond)
}

// AssertNoLeaksWithTimeout is AssertNoLeaks with a custom timeout and
// polling interval.
func AssertNoLeaksWithTimeout(t *testing.T, timeout, pollInterval time.Duration) {
	t.Helper()
	before := runtime.NumGoroutine()

	t.Cleanup(func() {
		deadline := time.Now().Add(timeout)
		for time.Now().Before(deadline) {
			if runtime.NumGoroutine() <= before {
				return
			}
			time.Sleep(pollInterval)
		}

		current := runtime.NumGoroutine()
		if current > before {
			t.Errorf("goroutine leak detected: started with %d goroutines, ended with %d (leaked %d)",
				before, current, current-before)
			buf := make([]byte, 1<<20)
			n := runtime.Stack(buf, true)
			t.Logf("active goroutines:\n%s", buf[:n])
		}
	})
}
