package jobs

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hibiken/asynq"

	"github.com/clubops/clubcore/internal/audit"
)

type stubStore struct {
	events []audit.Event
}

func (s *stubStore) Insert(ctx context.Context, event audit.Event) (int64, error) {
	event.ID = int64(len(s.events) + 1)
	s.events = append(s.events, event)
	return event.ID, nil
}

func (s *stubStore) Window(ctx context.Context, filter audit.Filter, limit, offset int) ([]audit.Event, error) {
	return s.All(ctx, filter)
}

func (s *stubStore) All(ctx context.Context, filter audit.Filter) ([]audit.Event, error) {
	var out []audit.Event
	for _, e := range s.events {
		if filter.Action != "" && e.Action != filter.Action {
			continue
		}
		if !filter.From.IsZero() && e.CreatedAt.Before(filter.From) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAuditExportWritesCSVFile(t *testing.T) {
	store := &stubStore{}
	for i := 0; i < 3; i++ {
		if _, err := store.Insert(context.Background(), audit.Event{
			Action:      "thing.done",
			Description: "did the thing",
			CreatedAt:   time.Now().UTC(),
		}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	dir := t.TempDir()
	job := NewAuditExportJob(store, dir, testLogger())

	task, err := NewAuditExportTask(AuditExportPayload{})
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	if err := job.Handle(context.Background(), task); err != nil {
		t.Fatalf("handle: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one export file, got %d", len(entries))
	}
	if !strings.HasPrefix(entries[0].Name(), "audit-") || !strings.HasSuffix(entries[0].Name(), ".csv") {
		t.Fatalf("unexpected file name %q", entries[0].Name())
	}

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header plus 3 rows, got %d lines", len(lines))
	}
}

func TestAuditExportBadPayloadSkipsRetry(t *testing.T) {
	job := NewAuditExportJob(&stubStore{}, t.TempDir(), testLogger())
	task := asynq.NewTask(TaskAuditExport, []byte("{not json"))
	if err := job.Handle(context.Background(), task); err != asynq.SkipRetry {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
}

func TestProbeScanCountsDenials(t *testing.T) {
	store := &stubStore{}
	actorID := int64(7)
	for i := 0; i < 6; i++ {
		if _, err := store.Insert(context.Background(), audit.Event{
			ActorID:     &actorID,
			ActorName:   "Pat",
			Action:      audit.ActionAuthzDenied,
			Description: "denied read_audit_log: not granted",
			CreatedAt:   time.Now().UTC(),
		}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	job := NewProbeScanJob(store, testLogger())
	task, err := NewProbeScanTask(24, 5)
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	if err := job.Handle(context.Background(), task); err != nil {
		t.Fatalf("handle: %v", err)
	}
}

func TestProbeScanBadPayloadSkipsRetry(t *testing.T) {
	job := NewProbeScanJob(&stubStore{}, testLogger())
	task := asynq.NewTask(TaskProbeScan, []byte("nope"))
	if err := job.Handle(context.Background(), task); err != asynq.SkipRetry {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
}
