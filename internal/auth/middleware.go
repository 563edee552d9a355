package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/clubops/clubcore/internal/authz"
	"github.com/clubops/clubcore/internal/shared"
)

type claimsContextKey struct{}

// ClaimsFromContext extracts verified token claims from request context.
func ClaimsFromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(claimsContextKey{}).(*Claims)
	return claims
}

// ActorFromContext extracts the authorization actor from request context.
// The zero actor (role "") denies everything under deny-by-default.
func ActorFromContext(ctx context.Context) authz.Actor {
	claims := ClaimsFromContext(ctx)
	if claims == nil {
		return authz.Actor{}
	}
	return claims.Actor()
}

// Authenticate validates the bearer token for the given realm and stores the
// claims in context. Token verification is stateless and touches no storage.
func Authenticate(tokens *TokenManager, realm Realm) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := bearerToken(r)
			if err != nil {
				shared.RespondError(w, err)
				return
			}
			claims, err := tokens.ValidateRealm(raw, realm)
			if err != nil {
				shared.RespondError(w, err)
				return
			}
			ctx := context.WithValue(r.Context(), claimsContextKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", shared.ErrUnauthenticated
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", shared.ErrUnauthenticated
	}
	return parts[1], nil
}
