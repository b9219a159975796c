// internal/browser/ready.go
package browser

import (
	"context"
	"time"
)

const readyPollInterval = 200 * time.Millisecond

// waitReadyState polls document.readyState until it reports "complete".
// Evaluation errors during a navigation are expected and retried.
func waitReadyState(ctx context.Context, ev evaluator) error {
	ticker := time.NewTicker(readyPollInterval)
	defer ticker.Stop()

	for {
		var state string
		if err := ev.Eval(ctx, ReadyStateScript, &state); err == nil && state == "complete" {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
