package authz

import (
	"context"
	"net/http"

	"github.com/clubops/clubcore/internal/shared"
)

// Middleware wires capability checks for HTTP handlers. Actors resolves the
// authenticated actor from the request context; the auth package provides
// the usual implementation.
type Middleware struct {
	Engine *Engine
	Actors func(ctx context.Context) Actor
}

// Require ensures the current actor holds the capability.
func (m Middleware) Require(capability Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := m.Actors(r.Context())
			if err := m.Engine.Authorize(r.Context(), Request{Actor: actor, Capability: capability}); err != nil {
				shared.RespondError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
