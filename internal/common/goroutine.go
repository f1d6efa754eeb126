package common

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync/atomic"

	"github.com/ternarybob/arbor"
)

// goroutineCounter tracks goroutines spawned through SafeGo for the
// status endpoint
var goroutineCounter int64

// GetGoroutineCount returns how many goroutines were spawned via
// SafeGo and SafeGoWithContext since startup.
func GetGoroutineCount() int64 {
	return atomic.LoadInt64(&goroutineCounter)
}

// SafeGo runs fn in a goroutine that recovers panics instead of
// crashing the process. Task workers and event publishing run under
// this wrapper so a misbehaving executor cannot take the server down.
//
// Example:
//
//	common.SafeGo(logger, "task-worker-0", m.runWorker)
func SafeGo(logger arbor.ILogger, name string, fn func()) {
	atomic.AddInt64(&goroutineCounter, 1)

	go func() {
		defer recoverGoroutinePanic(logger, name)
		fn()
	}()
}

// SafeGoWithContext is SafeGo with a cancellation check before fn
// starts. Long-running loops like the task janitor and the websocket
// log streamer pass the server's base context here.
func SafeGoWithContext(ctx context.Context, logger arbor.ILogger, name string, fn func()) {
	atomic.AddInt64(&goroutineCounter, 1)

	go func() {
		defer recoverGoroutinePanic(logger, name)

		select {
		case <-ctx.Done():
			if logger != nil {
				logger.Debug().Str("goroutine", name).Msg("Goroutine cancelled before start")
			}
			return
		default:
		}

		fn()
	}()
}

// recoverGoroutinePanic logs a recovered panic with its stack trace.
// Unlike fatal crashes handled in crash.go, the process keeps running.
func recoverGoroutinePanic(logger arbor.ILogger, name string) {
	r := recover()
	if r == nil {
		return
	}

	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	stackTrace := string(buf[:n])

	if logger != nil {
		logger.Error().
			Str("goroutine", name).
			Str("panic", fmt.Sprintf("%v", r)).
			Str("stack", stackTrace).
			Msg("Recovered from panic in goroutine, continuing service operation")
		return
	}
	fmt.Fprintf(os.Stderr, "PANIC in goroutine %s: %v\n%s\n", name, r, stackTrace)
}
