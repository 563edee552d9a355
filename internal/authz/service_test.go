package authz

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/clubops/clubcore/internal/shared"
)

type denialSpy struct {
	calls []Capability
}

func (s *denialSpy) AuthorizationDenied(ctx context.Context, actor Actor, capability Capability, reason string) {
	s.calls = append(s.calls, capability)
}

func testEngine(observer DenialObserver) *Engine {
	return NewEngine(slog.New(slog.NewTextHandler(io.Discard, nil)), observer, nil)
}

func TestAuthorizeAllows(t *testing.T) {
	e := testEngine(nil)
	err := e.Authorize(context.Background(), Request{
		Actor:      Actor{ID: 1, Role: RoleSuperAdmin},
		Capability: CapReadAuditLog,
	})
	if err != nil {
		t.Fatalf("expected allow, got %v", err)
	}
}

func TestAuthorizeDeniesByDefault(t *testing.T) {
	e := testEngine(nil)
	err := e.Authorize(context.Background(), Request{
		Actor:      Actor{ID: 2, Role: RoleChef},
		Capability: CapReadAuditLog,
	})
	if !errors.Is(err, shared.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestAuthorizeExceptionDeniesGrantedRole(t *testing.T) {
	e := testEngine(nil)
	// Admin holds manage_principals in the table; the carve-out still denies
	// the super_admin target.
	err := e.Authorize(context.Background(), Request{
		Actor:      Actor{ID: 3, Role: RoleAdmin},
		Capability: CapManagePrincipals,
		TargetRole: RoleSuperAdmin,
	})
	if !errors.Is(err, shared.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	err = e.Authorize(context.Background(), Request{
		Actor:      Actor{ID: 3, Role: RoleAdmin},
		Capability: CapManagePrincipals,
		TargetRole: RoleChef,
	})
	if err != nil {
		t.Fatalf("expected allow for non-elevating target, got %v", err)
	}
}

func TestDenialObserverSeesSensitiveDenials(t *testing.T) {
	spy := &denialSpy{}
	e := testEngine(spy)
	ctx := context.Background()

	_ = e.Authorize(ctx, Request{Actor: Actor{ID: 4, Role: RoleUser}, Capability: CapReadAuditLog})
	_ = e.Authorize(ctx, Request{Actor: Actor{ID: 4, Role: RoleUser}, Capability: CapManagePrincipals})
	// Non-sensitive capability: denied, but not reported.
	_ = e.Authorize(ctx, Request{Actor: Actor{ID: 4, Role: RoleUser}, Capability: CapAllocateIdentifier})

	if len(spy.calls) != 2 {
		t.Fatalf("expected 2 observer calls, got %d", len(spy.calls))
	}
	if spy.calls[0] != CapReadAuditLog || spy.calls[1] != CapManagePrincipals {
		t.Fatalf("unexpected observer calls %v", spy.calls)
	}
}

func TestObserverNeverSeesAllows(t *testing.T) {
	spy := &denialSpy{}
	e := testEngine(spy)
	err := e.Authorize(context.Background(), Request{
		Actor:      Actor{ID: 5, Role: RoleSuperAdmin},
		Capability: CapManagePrincipals,
	})
	if err != nil {
		t.Fatalf("expected allow, got %v", err)
	}
	if len(spy.calls) != 0 {
		t.Fatalf("observer called on an allow: %v", spy.calls)
	}
}

func TestAllowed(t *testing.T) {
	e := testEngine(nil)
	ctx := context.Background()
	if !e.Allowed(ctx, Request{Actor: Actor{Role: RoleSuperAdmin}, Capability: CapAllocateIdentifier}) {
		t.Fatal("expected true")
	}
	if e.Allowed(ctx, Request{Actor: Actor{Role: RoleUser}, Capability: CapAllocateIdentifier}) {
		t.Fatal("expected false")
	}
}
