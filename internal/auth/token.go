package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/clubops/clubcore/internal/authz"
	"github.com/clubops/clubcore/internal/shared"
)

// Claims holds the custom JWT claims carried by a bearer token. Validation
// is stateless: everything needed to reconstruct the actor is in the token.
// Deactivation is caught by a fresh lookup on sensitive paths, not here.
type Claims struct {
	jwt.RegisteredClaims
	Realm Realm  `json:"realm"`
	Role  string `json:"role"`
	Name  string `json:"name,omitempty"`
}

// PrincipalID returns the numeric principal identifier from the subject.
func (c *Claims) PrincipalID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: malformed subject", shared.ErrUnauthenticated)
	}
	return id, nil
}

// Actor converts the claims into an authorization actor.
func (c *Claims) Actor() authz.Actor {
	id, _ := c.PrincipalID()
	return authz.Actor{ID: id, Name: c.Name, Role: authz.Role(c.Role)}
}

// TokenManager issues and validates signed bearer tokens. The signing key is
// process-wide configuration loaded once at startup; rotating it invalidates
// every outstanding token.
type TokenManager struct {
	secret      []byte
	operatorTTL time.Duration
	memberTTL   time.Duration
}

// NewTokenManager creates a token manager with realm-specific expiries.
func NewTokenManager(secret string, operatorTTL, memberTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:      []byte(secret),
		operatorTTL: operatorTTL,
		memberTTL:   memberTTL,
	}
}

// Issue produces a signed token for the account.
func (m *TokenManager) Issue(account *Account) (string, time.Time, error) {
	var ttl time.Duration
	switch account.Realm {
	case RealmOperator:
		ttl = m.operatorTTL
	case RealmMember:
		ttl = m.memberTTL
	default:
		return "", time.Time{}, fmt.Errorf("auth: unknown realm: %s", account.Realm)
	}

	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(account.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.New().String(),
		},
		Realm: account.Realm,
		Role:  string(account.Role),
		Name:  account.DisplayName,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: sign token", shared.ErrUnauthenticated)
	}
	return signed, expiresAt, nil
}

// Validate parses and verifies a token, returning its claims. Any signature,
// expiry or shape problem maps to ErrUnauthenticated.
func (m *TokenManager) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrUnauthenticated, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token claims", shared.ErrUnauthenticated)
	}
	if _, ok := ParseRealm(string(claims.Realm)); !ok {
		return nil, fmt.Errorf("%w: unknown realm", shared.ErrUnauthenticated)
	}
	return claims, nil
}

// ValidateRealm validates a token and ensures it belongs to the expected realm.
func (m *TokenManager) ValidateRealm(tokenString string, expected Realm) (*Claims, error) {
	claims, err := m.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Realm != expected {
		return nil, fmt.Errorf("%w: wrong realm", shared.ErrUnauthenticated)
	}
	return claims, nil
}
