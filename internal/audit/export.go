package audit

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"time"
)

// WriteCSV renders events as a CSV document for export downloads.
func WriteCSV(events []Event) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := []string{"id", "created_at", "actor_id", "actor_name", "action", "entity_type", "entity_id", "description", "source_ip", "user_agent"}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, event := range events {
		record := []string{
			strconv.FormatInt(event.ID, 10),
			event.CreatedAt.UTC().Format(time.RFC3339),
			formatOptional(event.ActorID),
			event.ActorName,
			event.Action,
			event.EntityType,
			formatOptional(event.EntityID),
			event.Description,
			event.SourceIP,
			event.UserAgent,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatOptional(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}
