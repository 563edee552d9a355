package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/clubops/clubcore/internal/audit"
	"github.com/clubops/clubcore/internal/authz"
	"github.com/clubops/clubcore/internal/shared"
)

type stubRepo struct {
	accounts map[string]*Account
}

func (r *stubRepo) FindByLogin(ctx context.Context, realm Realm, login string) (*Account, error) {
	account, ok := r.accounts[string(realm)+":"+login]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return account, nil
}

func (r *stubRepo) FindByID(ctx context.Context, id int64) (*Account, error) {
	for _, account := range r.accounts {
		if account.ID == id {
			return account, nil
		}
	}
	return nil, shared.ErrNotFound
}

type stubRecorder struct {
	events []audit.Event
	err    error
}

func (r *stubRecorder) Record(ctx context.Context, event audit.Event) error {
	r.events = append(r.events, event)
	return r.err
}

func newTestService(t *testing.T, recorder Recorder) (*Service, *stubRepo) {
	t.Helper()
	hasher := NewHasher(bcrypt.MinCost)
	hash, err := hasher.Hash("open sesame")
	require.NoError(t, err)

	repo := &stubRepo{accounts: map[string]*Account{
		"operator:root": {
			ID:           1,
			Realm:        RealmOperator,
			Login:        "root",
			DisplayName:  "Root Operator",
			Role:         authz.RoleSuperAdmin,
			PasswordHash: hash,
			IsActive:     true,
		},
		"member:casper": {
			ID:           1000,
			Realm:        RealmMember,
			Login:        "casper",
			DisplayName:  "Casper",
			Role:         authz.RoleUser,
			PasswordHash: hash,
			IsActive:     false,
		},
	}}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := NewTokenManager("test-secret", time.Hour, time.Hour)
	svc := NewService(repo, hasher, tokens, nil, recorder, nil, logger)
	return svc, repo
}

func TestLoginSuccess(t *testing.T) {
	recorder := &stubRecorder{}
	svc, _ := newTestService(t, recorder)

	result, err := svc.Login(context.Background(), RealmOperator, "root", "open sesame")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, int64(1), result.Account.ID)

	require.Len(t, recorder.events, 1)
	event := recorder.events[0]
	assert.Equal(t, audit.ActionLoginSucceeded, event.Action)
	require.NotNil(t, event.ActorID)
	assert.Equal(t, int64(1), *event.ActorID)
	assert.Equal(t, "Root Operator", event.ActorName)
}

func TestLoginWrongPassword(t *testing.T) {
	recorder := &stubRecorder{}
	svc, _ := newTestService(t, recorder)

	_, err := svc.Login(context.Background(), RealmOperator, "root", "wrong")
	assert.True(t, errors.Is(err, shared.ErrUnauthenticated))

	require.Len(t, recorder.events, 1)
	assert.Equal(t, audit.ActionLoginFailed, recorder.events[0].Action)
	assert.Nil(t, recorder.events[0].ActorID)
}

func TestLoginUnknownLoginSameError(t *testing.T) {
	svc, _ := newTestService(t, &stubRecorder{})

	wrongPass := mustFail(t, svc, RealmOperator, "root", "wrong")
	unknown := mustFail(t, svc, RealmOperator, "ghost", "whatever")

	// Unknown login and wrong password are indistinguishable to the caller.
	assert.Equal(t, wrongPass.Error(), unknown.Error())
}

func mustFail(t *testing.T, svc *Service, realm Realm, login, password string) error {
	t.Helper()
	_, err := svc.Login(context.Background(), realm, login, password)
	if !errors.Is(err, shared.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	return err
}

func TestLoginDeactivatedAccount(t *testing.T) {
	recorder := &stubRecorder{}
	svc, _ := newTestService(t, recorder)

	_, err := svc.Login(context.Background(), RealmMember, "casper", "open sesame")
	assert.True(t, errors.Is(err, shared.ErrUnauthenticated))
}

func TestLoginRealmsAreSeparate(t *testing.T) {
	svc, _ := newTestService(t, &stubRecorder{})

	// Valid operator credentials do not work in the member realm.
	_, err := svc.Login(context.Background(), RealmMember, "root", "open sesame")
	assert.True(t, errors.Is(err, shared.ErrUnauthenticated))
}

func TestLoginStrictAuditFailureAborts(t *testing.T) {
	recorder := &stubRecorder{err: shared.ErrStorageUnavailable}
	svc, _ := newTestService(t, recorder)

	_, err := svc.Login(context.Background(), RealmOperator, "root", "open sesame")
	assert.True(t, errors.Is(err, shared.ErrStorageUnavailable))
}

func TestFreshAccount(t *testing.T) {
	svc, repo := newTestService(t, &stubRecorder{})
	ctx := context.Background()

	account, err := svc.FreshAccount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "root", account.Login)

	// Deactivation invalidates outstanding sessions on sensitive paths.
	repo.accounts["operator:root"].IsActive = false
	_, err = svc.FreshAccount(ctx, 1)
	assert.True(t, errors.Is(err, shared.ErrUnauthenticated))

	_, err = svc.FreshAccount(ctx, 9999)
	assert.True(t, errors.Is(err, shared.ErrUnauthenticated))
}
