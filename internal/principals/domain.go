package principals

import (
	"time"

	"github.com/clubops/clubcore/internal/auth"
	"github.com/clubops/clubcore/internal/authz"
)

// MemberKind is the orthogonal classification of external subjects. It does
// not affect capabilities; members always evaluate as role "user".
type MemberKind string

const (
	KindAthlete MemberKind = "athlete"
	KindCoach   MemberKind = "coach"
)

// ParseMemberKind validates a raw member kind.
func ParseMemberKind(raw string) (MemberKind, bool) {
	switch MemberKind(raw) {
	case KindAthlete, KindCoach:
		return MemberKind(raw), true
	}
	return "", false
}

// Principal is a managed actor record. Principals are soft-disabled, never
// physically removed: audit events keep referencing them.
type Principal struct {
	ID          int64
	Realm       auth.Realm
	Login       string
	DisplayName string
	Role        authz.Role
	MemberKind  MemberKind
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
