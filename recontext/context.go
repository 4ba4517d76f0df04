// Package recontext derives contexts that outlive their parent's cancellation but
// keep its values, such as the o11y provider. Shutdown work uses them once the
// run context is done.
package recontext

import (
	"context"
	"time"
)

type detached struct{ context.Context }

func (detached) Deadline() (time.Time, bool) { return time.Time{}, false }
func (detached) Done() <-chan struct{}       { return nil }
func (detached) Err() error                  { return nil }

// WithNewTimeout ignores the parent's cancellation and deadline. The timeout is
// mandatory so a detached context can never hang forever.
func WithNewTimeout(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(detached{parent}, timeout)
}
