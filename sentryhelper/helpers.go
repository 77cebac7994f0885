// Package sentryhelper manages Sentry transactions for work that outlives
// the HTTP request that triggered it. Extractions run on a detached context
// so a caller disconnect doesn't kill a shared flight; these helpers keep
// such work visible in tracing anyway.
package sentryhelper

import (
	"context"

	sentry "github.com/getsentry/sentry-go"
)

type contextKey string

const hubContextKey contextKey = "sentry_hub"

// StartDetachedTransaction starts a background transaction on a cloned hub.
// Use it for work whose originating request may already have finished, like
// a deduplicated audio extraction serving several callers.
func StartDetachedTransaction(ctx context.Context, name string, operation string) (context.Context, *sentry.Span) {
	hub := sentry.CurrentHub().Clone()
	ctx = context.WithValue(ctx, hubContextKey, hub)

	transaction := sentry.StartTransaction(ctx, name,
		sentry.WithOpName(operation),
		sentry.WithTransactionSource(sentry.SourceTask),
	)
	hub.Scope().SetSpan(transaction)

	return transaction.Context(), transaction
}

// HubFromContext returns the cloned hub bound by StartDetachedTransaction,
// falling back to the current hub.
func HubFromContext(ctx context.Context) *sentry.Hub {
	if ctx == nil {
		return sentry.CurrentHub()
	}
	if hub, ok := ctx.Value(hubContextKey).(*sentry.Hub); ok && hub != nil {
		return hub
	}
	return sentry.CurrentHub()
}

// CaptureException reports err on the hub in ctx so it carries the detached
// transaction's scope rather than the global one.
func CaptureException(ctx context.Context, err error) *sentry.EventID {
	return HubFromContext(ctx).CaptureException(err)
}
