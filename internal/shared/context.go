package shared

import "context"

// RequestMeta carries connection metadata captured by the routing layer
// before any handler logic runs.
type RequestMeta struct {
	SourceIP  string
	UserAgent string
}

type requestMetaContextKey struct{}

// ContextWithRequestMeta stores request metadata in context.
func ContextWithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaContextKey{}, meta)
}

// RequestMetaFromContext extracts request metadata from context.
func RequestMetaFromContext(ctx context.Context) RequestMeta {
	meta, _ := ctx.Value(requestMetaContextKey{}).(RequestMeta)
	return meta
}
