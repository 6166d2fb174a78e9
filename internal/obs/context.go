package obs

import "context"

type routePatternKey struct{}

// WithRoutePattern remembers the chi route pattern that matched the
// request, so request logs and HTTP metrics label by pattern (for
// example /api/v1/operational-costs/{id}) instead of raw paths.
func WithRoutePattern(ctx context.Context, pattern string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, routePatternKey{}, pattern)
}

// RoutePatternFromContext returns the matched pattern, or "" when the
// request never went through the route middleware.
func RoutePatternFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(routePatternKey{}).(string); ok {
		return v
	}
	return ""
}
