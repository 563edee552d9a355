package principals

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/clubops/clubcore/internal/audit"
	"github.com/clubops/clubcore/internal/auth"
	"github.com/clubops/clubcore/internal/authz"
	"github.com/clubops/clubcore/internal/idrange"
	"github.com/clubops/clubcore/internal/shared"
)

// ErrInvalidInput rejects malformed management requests.
var ErrInvalidInput = errors.New("principals: invalid input")

// Allocator issues identifiers for new principals.
type Allocator interface {
	Next(ctx context.Context, kind idrange.Kind) (int64, error)
}

// Recorder is the audit append path as seen from principal management.
type Recorder interface {
	Record(ctx context.Context, event audit.Event) error
}

// Authorizer evaluates capability requests.
type Authorizer interface {
	Authorize(ctx context.Context, req authz.Request) error
}

// Fresher reloads the actor's account so a deactivated operator cannot keep
// using an unexpired token for sensitive operations.
type Fresher interface {
	FreshAccount(ctx context.Context, principalID int64) (*auth.Account, error)
}

// Service implements principal lifecycle operations. Every mutation is
// audited with actor attribution; mutation first, audit second (best-effort
// unless strict mode is configured on the recorder).
type Service struct {
	repo      Repository
	allocator Allocator
	hasher    *auth.Hasher
	engine    Authorizer
	recorder  Recorder
	fresher   Fresher
	logger    *slog.Logger

	titler cases.Caser
}

// NewService constructs a Service.
func NewService(repo Repository, allocator Allocator, hasher *auth.Hasher, engine Authorizer, recorder Recorder, fresher Fresher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		allocator: allocator,
		hasher:    hasher,
		engine:    engine,
		recorder:  recorder,
		fresher:   fresher,
		logger:    logger,
		titler:    cases.Title(language.Und, cases.NoLower),
	}
}

// CreateOperatorInput describes a new internal staff principal.
type CreateOperatorInput struct {
	Login       string
	DisplayName string
	Password    string
	Role        authz.Role
}

// CreateOperator allocates an id from the operator range and stores the new
// principal. Admins cannot create super_admins; the engine enforces that.
func (s *Service) CreateOperator(ctx context.Context, actor authz.Actor, input CreateOperatorInput) (Principal, error) {
	if err := s.authorize(ctx, actor, input.Role); err != nil {
		return Principal{}, err
	}
	if !validOperatorRole(input.Role) {
		return Principal{}, fmt.Errorf("%w: operator role %q", ErrInvalidInput, input.Role)
	}
	return s.create(ctx, actor, Principal{
		Realm:       auth.RealmOperator,
		Login:       strings.TrimSpace(input.Login),
		DisplayName: s.normalizeName(input.DisplayName),
		Role:        input.Role,
		IsActive:    true,
	}, idrange.KindOperator, input.Password)
}

// CreateMemberInput describes a new external subject.
type CreateMemberInput struct {
	Login       string
	DisplayName string
	Password    string
	Kind        MemberKind
}

// CreateMember allocates an id from the member range and stores the new
// principal with the capability role "user".
func (s *Service) CreateMember(ctx context.Context, actor authz.Actor, input CreateMemberInput) (Principal, error) {
	if err := s.authorize(ctx, actor, authz.RoleUser); err != nil {
		return Principal{}, err
	}
	if _, ok := ParseMemberKind(string(input.Kind)); !ok {
		return Principal{}, fmt.Errorf("%w: member kind %q", ErrInvalidInput, input.Kind)
	}
	return s.create(ctx, actor, Principal{
		Realm:       auth.RealmMember,
		Login:       strings.TrimSpace(input.Login),
		DisplayName: s.normalizeName(input.DisplayName),
		Role:        authz.RoleUser,
		MemberKind:  input.Kind,
		IsActive:    true,
	}, idrange.KindMember, input.Password)
}

func (s *Service) create(ctx context.Context, actor authz.Actor, p Principal, kind idrange.Kind, password string) (Principal, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return Principal{}, err
	}
	id, err := s.allocator.Next(ctx, kind)
	if err != nil {
		// Exhaustion is fatal to the creation; no fallback range.
		return Principal{}, err
	}
	p.ID = id
	if err := s.repo.Create(ctx, p, hash); err != nil {
		return Principal{}, fmt.Errorf("%w: create principal: %v", shared.ErrStorageUnavailable, err)
	}
	if err := s.audit(ctx, actor, "principal.created", p.ID,
		fmt.Sprintf("created %s %s with role %s", p.Realm, p.Login, p.Role)); err != nil {
		return Principal{}, err
	}
	return p, nil
}

// Get returns one principal.
func (s *Service) Get(ctx context.Context, actor authz.Actor, id int64) (Principal, error) {
	if err := s.authorize(ctx, actor, ""); err != nil {
		return Principal{}, err
	}
	return s.repo.Get(ctx, id)
}

// List returns every principal.
func (s *Service) List(ctx context.Context, actor authz.Actor) ([]Principal, error) {
	if err := s.authorize(ctx, actor, ""); err != nil {
		return nil, err
	}
	return s.repo.List(ctx)
}

// Deactivate soft-disables a principal. The last active super_admin cannot
// be deactivated.
func (s *Service) Deactivate(ctx context.Context, actor authz.Actor, id int64) error {
	if err := s.authorize(ctx, actor, ""); err != nil {
		return err
	}
	target, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if target.Role == authz.RoleSuperAdmin && target.IsActive {
		count, err := s.repo.CountActiveSuperAdmins(ctx)
		if err != nil {
			return fmt.Errorf("%w: count super admins: %v", shared.ErrStorageUnavailable, err)
		}
		if count <= 1 {
			return fmt.Errorf("%w: cannot deactivate the last super_admin", shared.ErrForbidden)
		}
	}
	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return err
	}
	return s.audit(ctx, actor, "principal.deactivated", id,
		fmt.Sprintf("deactivated %s %s", target.Realm, target.Login))
}

// ChangeRole assigns a new role to an operator. Role transitions are
// administrative acts and are themselves audited; the elevation carve-out
// is evaluated against the target role.
func (s *Service) ChangeRole(ctx context.Context, actor authz.Actor, id int64, role authz.Role) error {
	if err := s.authorize(ctx, actor, role); err != nil {
		return err
	}
	target, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if target.Realm != auth.RealmOperator || !validOperatorRole(role) {
		return fmt.Errorf("%w: role %q not assignable", shared.ErrForbidden, role)
	}
	if err := s.repo.UpdateRole(ctx, id, string(role)); err != nil {
		return err
	}
	return s.audit(ctx, actor, "principal.role_changed", id,
		fmt.Sprintf("changed role of %s from %s to %s", target.Login, target.Role, role))
}

// authorize runs the fresh-account check and the capability evaluation.
func (s *Service) authorize(ctx context.Context, actor authz.Actor, target authz.Role) error {
	if s.fresher != nil {
		if _, err := s.fresher.FreshAccount(ctx, actor.ID); err != nil {
			return err
		}
	}
	return s.engine.Authorize(ctx, authz.Request{
		Actor:      actor,
		Capability: authz.CapManagePrincipals,
		TargetRole: target,
	})
}

func (s *Service) audit(ctx context.Context, actor authz.Actor, action string, entityID int64, description string) error {
	if s.recorder == nil {
		return nil
	}
	actorID := actor.ID
	return s.recorder.Record(ctx, audit.Event{
		ActorID:     &actorID,
		ActorName:   actor.Name,
		Action:      action,
		EntityType:  "principal",
		EntityID:    &entityID,
		Description: description,
	})
}

func (s *Service) normalizeName(name string) string {
	return s.titler.String(strings.Join(strings.Fields(name), " "))
}

func validOperatorRole(role authz.Role) bool {
	for _, r := range authz.OperatorRoles() {
		if r == role {
			return true
		}
	}
	return false
}
