package goroutine

import (
	"fmt"
	"os"
	"runtime"

	"go.uber.org/zap"
)

// stackBufferSize is the buffer size for stack trace collection.
const stackBufferSize = 4096

// Recover recovers from a panic in a goroutine and logs it with the
// goroutine's name. Intended as a deferred call at the top of every
// long-lived goroutine the engine owns. If logger is nil the panic is
// written to stderr so it is never silently lost.
func Recover(name string, logger *zap.SugaredLogger) {
	r := recover()
	if r == nil {
		return
	}

	buf := make([]byte, stackBufferSize)
	n := runtime.Stack(buf, false)

	if logger != nil {
		logger.Errorw("goroutine panic recovered",
			"goroutine", name,
			"panic", r,
			"stack", string(buf[:n]))
		return
	}
	fmt.Fprintf(os.Stderr, "PANIC in goroutine %s: %v\n%s\n", name, r, buf[:n])
}
