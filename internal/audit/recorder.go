package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/clubops/clubcore/internal/authz"
	"github.com/clubops/clubcore/internal/shared"
)

// Store provides the persistence operations the audit log needs. The only
// write it exposes is an append.
type Store interface {
	Insert(ctx context.Context, event Event) (int64, error)
	Window(ctx context.Context, filter Filter, limit, offset int) ([]Event, error)
	All(ctx context.Context, filter Filter) ([]Event, error)
}

// MetricsSink abstracts the audit failure counter.
type MetricsSink interface {
	AuditWriteFailure()
}

// Recorder exclusively owns the append path. Policy: act-then-best-effort
// record — a failed write is logged and counted but does not abort the
// triggering operation, unless strict mode is enabled.
type Recorder struct {
	store   Store
	logger  *slog.Logger
	metrics MetricsSink
	strict  bool
	now     func() time.Time
}

// NewRecorder constructs a Recorder. Metrics may be nil.
func NewRecorder(store Store, logger *slog.Logger, metrics MetricsSink, strict bool) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{store: store, logger: logger, metrics: metrics, strict: strict, now: time.Now}
}

// Record appends one event. Action and description are mandatory; source
// address and user agent are filled from the request context when absent.
// In strict mode a persistence failure propagates as ErrStorageUnavailable;
// otherwise Record always returns nil once the event is well-formed.
func (r *Recorder) Record(ctx context.Context, event Event) error {
	return r.record(ctx, event, r.strict)
}

func (r *Recorder) record(ctx context.Context, event Event, strict bool) error {
	if r == nil || r.store == nil {
		return errors.New("audit: recorder not configured")
	}
	if event.Action == "" || event.Description == "" {
		return errors.New("audit: event requires action and description")
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = r.now().UTC()
	}
	meta := shared.RequestMetaFromContext(ctx)
	if event.SourceIP == "" {
		event.SourceIP = meta.SourceIP
	}
	if event.UserAgent == "" {
		event.UserAgent = meta.UserAgent
	}
	if _, err := r.store.Insert(ctx, event); err != nil {
		if r.metrics != nil {
			r.metrics.AuditWriteFailure()
		}
		// Operational error channel, never the audit log itself.
		r.logger.Error("audit append failed",
			slog.String("action", event.Action),
			slog.Any("error", err),
		)
		if strict {
			return fmt.Errorf("%w: audit append: %v", shared.ErrStorageUnavailable, err)
		}
		return nil
	}
	return nil
}

// AuthorizationDenied implements authz.DenialObserver. Denial events are
// always best-effort, even in strict mode: observing a probe must never
// abort the denial itself.
func (r *Recorder) AuthorizationDenied(ctx context.Context, actor authz.Actor, capability authz.Capability, reason string) {
	event := Event{
		Action:      ActionAuthzDenied,
		ActorName:   actor.Name,
		EntityType:  "capability",
		Description: reason,
	}
	if actor.ID != 0 {
		id := actor.ID
		event.ActorID = &id
	}
	_ = r.record(ctx, event, false)
}

var _ authz.DenialObserver = (*Recorder)(nil)
