package observability

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewLogger_JSONWithLevel(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "prod", "warn")
	l.Info().Msg("dropped")
	l.Warn().Str("account_id", "a1").Msg("kept")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %d: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("not JSON: %v", err)
	}
	if rec["message"] != "kept" || rec["account_id"] != "a1" || rec["service"] != "review-hero" {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestNewLogger_DevConsole(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "dev", "bogus")
	l.Info().Msg("hello")
	if out := buf.String(); strings.HasPrefix(out, "{") || !strings.Contains(out, "hello") {
		t.Fatalf("expected console output, got %q", out)
	}
}
