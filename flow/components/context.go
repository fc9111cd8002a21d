package components

import (
	"context"
	"time"

	"github.com/rakunlabs/flow"
)

// contextWithTimeout derives a cancellable context from a firing's
// StdContext, the same pattern the teacher's http_request node uses around
// its outbound call.
func contextWithTimeout(ctx *flow.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx.StdContext(), timeout)
}
