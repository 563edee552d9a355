package authz

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/clubops/clubcore/internal/shared"
)

// DenialObserver receives authorization denials on sensitive capabilities so
// repeated probing becomes discoverable. Implemented by the audit recorder.
type DenialObserver interface {
	AuthorizationDenied(ctx context.Context, actor Actor, capability Capability, reason string)
}

// MetricsSink abstracts the denial counter.
type MetricsSink interface {
	AuthzDenial(capability, role string)
}

// Engine evaluates capability requests against the policy table. Evaluation
// is pure; observers are side channels and never influence the decision.
type Engine struct {
	logger   *slog.Logger
	observer DenialObserver
	metrics  MetricsSink
}

// NewEngine constructs an Engine. Observer and metrics may be nil.
func NewEngine(logger *slog.Logger, observer DenialObserver, metrics MetricsSink) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger, observer: observer, metrics: metrics}
}

// sensitive capabilities report denials to the observer.
var sensitive = map[Capability]struct{}{
	CapReadAuditLog:     {},
	CapManagePrincipals: {},
}

// Authorize returns nil when the actor may exercise the capability and
// shared.ErrForbidden otherwise. Deny-by-default: unknown capabilities and
// unknown roles always deny.
func (e *Engine) Authorize(ctx context.Context, req Request) error {
	if !RoleAllowed(req.Actor.Role, req.Capability) {
		e.deny(ctx, req, "not granted")
		return shared.ErrForbidden
	}
	if rule, denied := deniedBy(req); denied {
		e.deny(ctx, req, rule)
		return shared.ErrForbidden
	}
	return nil
}

// Allowed is a convenience wrapper returning a bool instead of an error.
func (e *Engine) Allowed(ctx context.Context, req Request) bool {
	return e.Authorize(ctx, req) == nil
}

func (e *Engine) deny(ctx context.Context, req Request, reason string) {
	if e.metrics != nil {
		e.metrics.AuthzDenial(string(req.Capability), string(req.Actor.Role))
	}
	if _, ok := sensitive[req.Capability]; !ok {
		return
	}
	e.logger.Warn("authorization denied",
		slog.Int64("actor_id", req.Actor.ID),
		slog.String("role", string(req.Actor.Role)),
		slog.String("capability", string(req.Capability)),
		slog.String("reason", reason),
	)
	if e.observer != nil {
		e.observer.AuthorizationDenied(ctx, req.Actor, req.Capability,
			fmt.Sprintf("denied %s: %s", req.Capability, reason))
	}
}
