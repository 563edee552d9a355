package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAuditExport renders the audit timeline to a CSV file on disk.
	TaskAuditExport = "audit:export"
	// TaskProbeScan looks for repeated authorization denials.
	TaskProbeScan = "audit:probe_scan"
)

// AuditExportPayload selects the window to export.
type AuditExportPayload struct {
	FromRFC3339 string `json:"from,omitempty"`
	ToRFC3339   string `json:"to,omitempty"`
}

// NewAuditExportTask constructs an Asynq task.
func NewAuditExportTask(payload AuditExportPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditExport, data), nil
}

// ProbeScanPayload tunes the denial scan.
type ProbeScanPayload struct {
	WindowHours int `json:"window_hours"`
	Threshold   int `json:"threshold"`
}

// NewProbeScanTask constructs an Asynq task.
func NewProbeScanTask(windowHours, threshold int) (*asynq.Task, error) {
	data, err := json.Marshal(ProbeScanPayload{WindowHours: windowHours, Threshold: threshold})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskProbeScan, data), nil
}
