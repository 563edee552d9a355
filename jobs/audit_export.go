package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/clubops/clubcore/internal/audit"
)

// AuditExportJob writes periodic CSV snapshots of the audit timeline. It
// reads through the store directly: this is a system-initiated read, not an
// external caller subject to the capability gate.
type AuditExportJob struct {
	store      audit.Store
	storageDir string
	logger     *slog.Logger
}

// NewAuditExportJob constructs the job.
func NewAuditExportJob(store audit.Store, storageDir string, logger *slog.Logger) *AuditExportJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditExportJob{store: store, storageDir: storageDir, logger: logger}
}

// Handle processes TaskAuditExport tasks.
func (j *AuditExportJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload AuditExportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	var filter audit.Filter
	if payload.FromRFC3339 != "" {
		from, err := time.Parse(time.RFC3339, payload.FromRFC3339)
		if err != nil {
			return asynq.SkipRetry
		}
		filter.From = from
	}
	if payload.ToRFC3339 != "" {
		to, err := time.Parse(time.RFC3339, payload.ToRFC3339)
		if err != nil {
			return asynq.SkipRetry
		}
		filter.To = to
	}

	events, err := j.store.All(ctx, filter)
	if err != nil {
		return fmt.Errorf("jobs: load audit events: %w", err)
	}
	data, err := audit.WriteCSV(events)
	if err != nil {
		return fmt.Errorf("jobs: render audit csv: %w", err)
	}

	if err := os.MkdirAll(j.storageDir, 0o755); err != nil {
		return fmt.Errorf("jobs: storage dir: %w", err)
	}
	name := fmt.Sprintf("audit-%s-%s.csv", time.Now().UTC().Format("20060102"), uuid.NewString()[:8])
	path := filepath.Join(j.storageDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("jobs: write export: %w", err)
	}

	j.logger.Info("audit export written",
		slog.String("path", path),
		slog.Int("events", len(events)),
	)
	return nil
}
