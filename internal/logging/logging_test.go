package logging

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/apex/log"
)

func TestTextHandler_Format(t *testing.T) {
	var buf bytes.Buffer
	l := &log.Logger{Handler: NewTextHandler(&buf), Level: log.DebugLevel}

	l.WithFields(log.Fields{"isbn": "isbn-1234", "duration": "3s"}).Info("lookup")

	line := buf.String()
	if !strings.HasSuffix(line, " I lookup duration=3s isbn=isbn-1234\n") {
		t.Fatalf("unexpected line %q", line)
	}
	if _, err := time.Parse(time.DateTime, line[:len(time.DateTime)]); err != nil {
		t.Fatalf("line does not start with a timestamp: %q", line)
	}
}

func TestNewHandler_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := &log.Logger{Handler: NewHandler(&buf, "json"), Level: log.InfoLevel}
	l.WithField("isbn", "x").Info("hello")

	if !strings.Contains(buf.String(), `"message":"hello"`) {
		t.Fatalf("expected JSON output, got %q", buf.String())
	}
}

func TestInit_RejectsUnknownLevel(t *testing.T) {
	if err := Init("chatty", "text"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestInit_FallsBackToEnv(t *testing.T) {
	t.Setenv(EnvLevel, "debug")
	t.Cleanup(func() { _ = Init("info", "text") })

	if err := Init("", "text"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if l, ok := log.Log.(*log.Logger); ok && l.Level != log.DebugLevel {
		t.Fatalf("level = %v, want debug", l.Level)
	}
}

func TestFromContext_AddsRequestID(t *testing.T) {
	ctx := WithRequestID(t.Context(), "req-1")
	e, ok := FromContext(ctx).(*log.Entry)
	if !ok {
		t.Fatal("expected an entry carrying fields")
	}
	if got := e.Fields.Get("request_id"); got != "req-1" {
		t.Fatalf("request_id = %v, want %q", got, "req-1")
	}
}

func TestRequestIDFromContextMissing(t *testing.T) {
	if got := RequestIDFromContext(t.Context()); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
	if FromContext(t.Context()) != log.Log {
		t.Fatal("expected the package logger without a request ID")
	}
}
