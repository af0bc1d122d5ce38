// Package logging configures apex/log for goRawrBooks and attaches request
// scoped fields taken from the context.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/apex/log/handlers/json"
)

// EnvLevel names the environment variable consulted when no level is given.
const EnvLevel = "RAWRBOOKS_LOG"

// Init installs the handler for format ("text" or "json") on the package
// logger and sets its level. An empty level falls back to $RAWRBOOKS_LOG and
// then to "info".
func Init(level, format string) error {
	if level == "" {
		level = os.Getenv(EnvLevel)
	}
	if level == "" {
		level = "info"
	}
	lvl, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	log.SetHandler(NewHandler(os.Stdout, format))
	log.SetLevel(lvl)
	return nil
}

// NewHandler returns a JSON handler for format "json" and a [TextHandler]
// otherwise.
func NewHandler(w io.Writer, format string) log.Handler {
	if format == "json" {
		return json.New(w)
	}
	return NewTextHandler(w)
}

// TextHandler writes one line per entry:
//
//	2006-01-02 15:04:05 I message key=value ...
type TextHandler struct {
	mu sync.Mutex
	w  io.Writer
}

// NewTextHandler creates a TextHandler writing to w.
func NewTextHandler(w io.Writer) *TextHandler {
	return &TextHandler{w: w}
}

// HandleLog implements log.Handler.
func (h *TextHandler) HandleLog(e *log.Entry) error {
	var b strings.Builder
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	fmt.Fprintf(&b, "%s %.1s %s", ts.Format(time.DateTime), strings.ToUpper(e.Level.String()), e.Message)
	for _, name := range e.Fields.Names() {
		fmt.Fprintf(&b, " %s=%v", name, e.Fields.Get(name))
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

type contextKey struct{}

// WithRequestID returns a derived context that carries the given request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// RequestIDFromContext extracts the request ID stored in ctx. It returns an
// empty string when no request ID is present.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}

// FromContext returns the package logger annotated with the request ID
// carried by ctx, if any.
func FromContext(ctx context.Context) log.Interface {
	if id := RequestIDFromContext(ctx); id != "" {
		return log.WithField("request_id", id)
	}
	return log.Log
}
