package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func TestContextFieldsPropagate(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "test", Output: &buf})

	ctx := logg.WithRequestID(context.Background(), "req-123")
	ctx = logg.WithUserID(ctx, "user-1")
	ctx = logg.WithActorRole(ctx, "driver")
	logg.Info(ctx, "hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if entry["request_id"] != "req-123" || entry["user_id"] != "user-1" || entry["actor_role"] != "driver" {
		t.Fatalf("missing context fields: %v", entry)
	}
	if entry["service"] != "test" {
		t.Fatalf("missing service field: %v", entry)
	}
}

func TestErrorIncludesStack(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "test", Output: &buf})

	logg.Error(context.Background(), "boom", errors.New("kaput"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if entry["error"] != "kaput" {
		t.Fatalf("missing error field: %v", entry)
	}
	if entry["stack"] == nil || entry["stack"] == "" {
		t.Fatalf("missing stack field: %v", entry)
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("") != zerolog.InfoLevel {
		t.Fatal("empty level should default to info")
	}
	if ParseLevel("debug") != zerolog.DebugLevel {
		t.Fatal("debug level should parse")
	}
	if ParseLevel("nonsense") != zerolog.InfoLevel {
		t.Fatal("unknown level should default to info")
	}
}
