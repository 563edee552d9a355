package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/clubops/clubcore/internal/audit"
	"github.com/clubops/clubcore/internal/shared"
)

// Recorder is the audit append path as seen from authentication.
type Recorder interface {
	Record(ctx context.Context, event audit.Event) error
}

// MetricsSink abstracts the auth failure counter.
type MetricsSink interface {
	AuthFailure(realm string)
}

// Service wraps authentication business rules. Every outcome, success or
// failure, is visible in the audit log; failures before identification are
// recorded without an actor.
type Service struct {
	repo     Repository
	hasher   *Hasher
	tokens   *TokenManager
	throttle *LoginThrottle
	recorder Recorder
	metrics  MetricsSink
	logger   *slog.Logger
}

// NewService constructs a new Service. Throttle, recorder and metrics may be
// nil in tests.
func NewService(repo Repository, hasher *Hasher, tokens *TokenManager, throttle *LoginThrottle, recorder Recorder, metrics MetricsSink, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		hasher:   hasher,
		tokens:   tokens,
		throttle: throttle,
		recorder: recorder,
		metrics:  metrics,
		logger:   logger,
	}
}

// LoginResult carries a successful authentication outcome.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Account   *Account
}

// Login validates credentials in the given realm and issues a bearer token.
// All failure modes collapse into ErrUnauthenticated so the caller cannot
// distinguish unknown logins from wrong passwords.
func (s *Service) Login(ctx context.Context, realm Realm, login, password string) (*LoginResult, error) {
	blocked, err := s.throttle.Blocked(ctx, realm, login)
	if err != nil {
		s.logger.Warn("login throttle check", slog.Any("error", err))
	}
	if blocked {
		return nil, s.fail(ctx, realm, login, "throttled")
	}

	account, err := s.repo.FindByLogin(ctx, realm, login)
	if err != nil {
		s.hasher.Burn(password)
		return nil, s.fail(ctx, realm, login, "unknown login")
	}
	if !account.IsActive {
		s.hasher.Burn(password)
		return nil, s.fail(ctx, realm, login, "account deactivated")
	}
	if !s.hasher.Verify(password, account.PasswordHash) {
		return nil, s.fail(ctx, realm, login, "wrong password")
	}

	token, expiresAt, err := s.tokens.Issue(account)
	if err != nil {
		return nil, shared.ErrUnauthenticated
	}

	if err := s.throttle.Reset(ctx, realm, login); err != nil {
		s.logger.Warn("login throttle reset", slog.Any("error", err))
	}

	if s.recorder != nil {
		actorID := account.ID
		if err := s.recorder.Record(ctx, audit.Event{
			ActorID:     &actorID,
			ActorName:   account.DisplayName,
			Action:      audit.ActionLoginSucceeded,
			EntityType:  "principal",
			EntityID:    &actorID,
			Description: "login to realm " + string(realm),
		}); err != nil {
			// Strict mode only: the audit write aborts the login.
			return nil, err
		}
	}

	return &LoginResult{Token: token, ExpiresAt: expiresAt, Account: account}, nil
}

// FreshAccount reloads the account behind a claim. Sensitive capabilities
// must not trust the token's snapshot of the active flag.
func (s *Service) FreshAccount(ctx context.Context, principalID int64) (*Account, error) {
	account, err := s.repo.FindByID(ctx, principalID)
	if err != nil {
		return nil, shared.ErrUnauthenticated
	}
	if !account.IsActive {
		return nil, shared.ErrUnauthenticated
	}
	return account, nil
}

// fail records one failed attempt: anonymous audit event, metrics, throttle.
func (s *Service) fail(ctx context.Context, realm Realm, login, reason string) error {
	if s.metrics != nil {
		s.metrics.AuthFailure(string(realm))
	}
	if err := s.throttle.RecordFailure(ctx, realm, login); err != nil {
		s.logger.Warn("login throttle record", slog.Any("error", err))
	}
	if s.recorder != nil {
		// Failed attempts precede identification: no actor attribution.
		_ = s.recorder.Record(ctx, audit.Event{
			Action:      audit.ActionLoginFailed,
			EntityType:  "principal",
			Description: "failed login (" + reason + ") for " + login + " in realm " + string(realm),
		})
	}
	return shared.ErrUnauthenticated
}
