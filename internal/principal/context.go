package principal

import (
	"context"
)

// PrincipalContextKey is the request context key for the authenticated principal.
type PrincipalContextKey struct{}

// RequestMetaContextKey is the request context key for request origin metadata.
type RequestMetaContextKey struct{}

// RequestMeta carries origin metadata captured by the transport layer.
type RequestMeta struct {
	RequestID string
	IPAddress string
	UserAgent string
}

// WithPrincipal stores the authenticated principal in the context.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, PrincipalContextKey{}, p)
}

// FromContext returns the authenticated principal from context, if set.
func FromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	value, ok := ctx.Value(PrincipalContextKey{}).(Principal)
	if !ok || value.ID == 0 {
		return Principal{}, false
	}
	return value, true
}

// WithRequestMeta stores request origin metadata in the context.
func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, RequestMetaContextKey{}, meta)
}

// RequestMetaFromContext returns origin metadata from context, if set.
func RequestMetaFromContext(ctx context.Context) RequestMeta {
	if ctx == nil {
		return RequestMeta{}
	}
	value, _ := ctx.Value(RequestMetaContextKey{}).(RequestMeta)
	return value
}
