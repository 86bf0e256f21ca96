package observability

import (
	"context"
)

// Context keys for observability data.
type contextKey string

const (
	requestIDKey contextKey = "request_id"
	schemaKey    contextKey = "schema"
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext retrieves the request ID from context.
// Returns empty string if not present.
func RequestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// WithSchema adds the extraction schema name to the context.
func WithSchema(ctx context.Context, schema string) context.Context {
	return context.WithValue(ctx, schemaKey, schema)
}

// SchemaFromContext retrieves the extraction schema name from context.
// Returns empty string if not present.
func SchemaFromContext(ctx context.Context) string {
	if v := ctx.Value(schemaKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
