package logging

import (
	"context"

	"github.com/sirupsen/logrus"
)

// RequestIDHeader carries the request id between clients and both services.
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id stored by WithRequestID, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// For returns base annotated with the request id of ctx, if any.
func For(ctx context.Context, base *logrus.Entry) *logrus.Entry {
	if id := RequestID(ctx); id != "" {
		return base.WithField("request_id", id)
	}
	return base
}
