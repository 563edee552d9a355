package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/clubops/clubcore/internal/audit"
)

// ProbeScanJob flags actors who keep tripping authorization denials. The
// denial events themselves are already in the audit log; this job only
// surfaces clusters so an operator notices the probing.
type ProbeScanJob struct {
	store  audit.Store
	logger *slog.Logger
}

// NewProbeScanJob constructs the job.
func NewProbeScanJob(store audit.Store, logger *slog.Logger) *ProbeScanJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProbeScanJob{store: store, logger: logger}
}

// Handle processes TaskProbeScan tasks.
func (j *ProbeScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload ProbeScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	window := time.Duration(payload.WindowHours) * time.Hour
	if window <= 0 {
		window = 24 * time.Hour
	}
	threshold := payload.Threshold
	if threshold <= 0 {
		threshold = 5
	}

	events, err := j.store.All(ctx, audit.Filter{
		Action: audit.ActionAuthzDenied,
		From:   time.Now().UTC().Add(-window),
	})
	if err != nil {
		return fmt.Errorf("jobs: load denial events: %w", err)
	}

	counts := make(map[string]int)
	for _, event := range events {
		key := event.ActorName
		if event.ActorID != nil {
			key = fmt.Sprintf("%s#%d", event.ActorName, *event.ActorID)
		}
		counts[key]++
	}
	for actor, count := range counts {
		if count >= threshold {
			j.logger.Warn("repeated authorization denials",
				slog.String("actor", actor),
				slog.Int("denials", count),
				slog.Duration("window", window),
			)
		}
	}
	return nil
}
