package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New("loud", "text"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestWithContextTagsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newWithOutput(&buf, "debug", "json")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	prev := std
	SetDefault(logger)
	defer SetDefault(prev)

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-42")
	WithContext(ctx).Info("hello")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if line["request_id"] != "req-42" {
		t.Fatalf("expected request_id field, got %+v", line)
	}
	if line["msg"] != "hello" {
		t.Fatalf("expected msg hello, got %+v", line)
	}
}
