package main

import (
	"context"
	"os/signal"
)

// notifyContext returns a context that is canceled when one of the
// shutdownSignals is received. Pages in flight finish their current
// enhancement, queued pages are reported as canceled. Call stop() to
// release resources.
func notifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, shutdownSignals...)
}
