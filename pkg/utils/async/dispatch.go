package async

import (
	"context"
	"runtime/debug"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/ctxlog"
)

// Dispatch executes a handler function asynchronously with proper context and panic recovery
//
// Parameters:
//   - ctx: Original context (the logger is preserved, cancellation is not)
//   - handler: Function to execute asynchronously
//
// Errors and panics are logged and, when a Sentry client is configured,
// reported to Sentry.
func Dispatch(ctx context.Context, handler func(ctx context.Context) error) {
	newCtx := newBackgroundContext(ctx)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				stack := debug.Stack()
				logger := ctxlog.From(newCtx)
				logger.Error("panic in async handler",
					"recover", r,
					"stack", string(stack))
				sentry.CurrentHub().Recover(r)
			}
		}()

		if err := handler(newCtx); err != nil {
			logger := ctxlog.From(newCtx)
			logger.Error("error in async handler", "error", err)
			sentry.CaptureException(err)
		}
	}()
}

// newBackgroundContext creates a new background context that keeps the
// logger of ctx, so an HTTP handler can return before the work finishes
func newBackgroundContext(ctx context.Context) context.Context {
	return ctxlog.With(context.Background(), ctxlog.From(ctx))
}
