package reqctx

import (
	"context"
	"errors"
)

// Key for request-scoped values in context
type contextKey string

const (
	requestIDKey contextKey = "requestID"
	callIDKey    contextKey = "callID"
)

// ErrNoRequestIDInContext is returned when no request ID is found in context
var ErrNoRequestIDInContext = errors.New("no request ID found in context")

// ErrNoCallIDInContext is returned when no call ID is found in context
var ErrNoCallIDInContext = errors.New("no call ID found in context")

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext extracts the request ID from the context
func RequestIDFromContext(ctx context.Context) (string, error) {
	requestID, ok := ctx.Value(requestIDKey).(string)
	if !ok || requestID == "" {
		return "", ErrNoRequestIDInContext
	}
	return requestID, nil
}

// WithCallID adds a call ID to the context
func WithCallID(ctx context.Context, callID string) context.Context {
	return context.WithValue(ctx, callIDKey, callID)
}

// CallIDFromContext extracts the call ID from the context
func CallIDFromContext(ctx context.Context) (string, error) {
	callID, ok := ctx.Value(callIDKey).(string)
	if !ok || callID == "" {
		return "", ErrNoCallIDInContext
	}
	return callID, nil
}
