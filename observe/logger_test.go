package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("invalid JSON line %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestLogger_WritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithWriter("info", &buf)
	ctx := context.Background()

	l.Info(ctx, "scan complete", Field{Key: "nodes", Value: 12})

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	e := entries[0]
	if e["msg"] != "scan complete" {
		t.Errorf("msg = %v, want scan complete", e["msg"])
	}
	if e["level"] != "info" {
		t.Errorf("level = %v, want info", e["level"])
	}
	if e["nodes"] != float64(12) {
		t.Errorf("nodes = %v, want 12", e["nodes"])
	}
	if _, ok := e["timestamp"]; !ok {
		t.Error("timestamp missing")
	}
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithWriter("warn", &buf)
	ctx := context.Background()

	l.Debug(ctx, "dropped")
	l.Info(ctx, "dropped")
	l.Warn(ctx, "kept")
	l.Error(ctx, "kept")

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
}

func TestLogger_WithAdapter(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithWriter("info", &buf)
	scoped := l.WithAdapter("fs:abc")

	scoped.Info(context.Background(), "hello")

	entries := decodeLines(t, &buf)
	if entries[0]["adapter"] != "fs:abc" {
		t.Errorf("adapter = %v, want fs:abc", entries[0]["adapter"])
	}
}

func TestLogger_WithAdapterDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithWriter("info", &buf)
	_ = l.WithAdapter("fs:abc")

	l.Info(context.Background(), "plain")

	entries := decodeLines(t, &buf)
	if _, ok := entries[0]["adapter"]; ok {
		t.Error("parent logger inherited the adapter attribute")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"bogus", LevelInfo},
		{"", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLogLevel(tt.in); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNopLogger(t *testing.T) {
	l := NopLogger()
	ctx := context.Background()

	// Must not panic and must keep returning a usable logger.
	l.Info(ctx, "x")
	l.WithAdapter("y").Error(ctx, "z")
}
