package browser

import (
	"context"
	"time"
)

// readyStateScript is the document-ready predicate polled by the gate
const readyStateScript = `document.readyState`

// WaitUntilReady polls the session until the document reports itself fully
// loaded, up to polls attempts spaced by interval. It returns false on
// exhaustion rather than an error; callers decide whether that is fatal.
// Readiness does not imply that asynchronously rendered content exists yet.
func WaitUntilReady(ctx context.Context, s Session, polls int, interval time.Duration) bool {
	for i := 0; i < polls; i++ {
		var state string
		if err := s.Evaluate(ctx, readyStateScript, &state); err == nil && state == "complete" {
			return true
		}

		select {
		case <-ctx.Done():
			return false
		case <-time.After(interval):
		}
	}
	return false
}
