package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestNewWithWriterTagsService(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "taskboard", slog.LevelInfo)
	log.Debug("hidden")
	log.Info("hello", "user_id", 7)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected a single JSON line, got %q: %v", buf.String(), err)
	}
	if entry["service"] != "taskboard" || entry["msg"] != "hello" {
		t.Fatalf("unexpected entry %v", entry)
	}
	if entry["user_id"] != float64(7) {
		t.Fatalf("missing attribute: %v", entry)
	}
}
