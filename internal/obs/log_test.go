package obs

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestLogWritesJSONLine(t *testing.T) {
	l := Logger()
	original := l.Writer()
	var buf bytes.Buffer
	l.SetOutput(&buf)
	defer l.SetOutput(original)

	Warn("authentication rejected", map[string]any{"reason": "password_mismatch"})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log not valid JSON: %v", err)
	}
	if entry["level"] != "warn" || entry["msg"] != "authentication rejected" {
		t.Fatalf("unexpected entry: %v", entry)
	}
	if entry["reason"] != "password_mismatch" {
		t.Fatalf("field missing: %v", entry)
	}
	if _, ok := entry["ts"].(string); !ok {
		t.Fatalf("timestamp missing: %v", entry)
	}
}
