package auth

import (
	"time"

	"github.com/clubops/clubcore/internal/authz"
)

// Realm separates the two credential namespaces. Operators and members can
// share a login string without colliding.
type Realm string

const (
	RealmOperator Realm = "operator"
	RealmMember   Realm = "member"
)

// ParseRealm validates a raw realm string.
func ParseRealm(raw string) (Realm, bool) {
	switch Realm(raw) {
	case RealmOperator, RealmMember:
		return Realm(raw), true
	}
	return "", false
}

// Account is the authentication view of a principal: identity, role and the
// stored credential digest. Management of principals lives elsewhere.
type Account struct {
	ID           int64
	Realm        Realm
	Login        string
	DisplayName  string
	Role         authz.Role
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Actor converts the account into an authorization actor.
func (a *Account) Actor() authz.Actor {
	return authz.Actor{ID: a.ID, Name: a.DisplayName, Role: a.Role}
}
