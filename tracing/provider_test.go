package tracing

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"google.golang.org/grpc"
)

func TestNewStdoutConfig_WritesSpans(t *testing.T) {
	var buf bytes.Buffer
	cfg, tp, err := NewStdoutConfig(&buf)
	if err != nil {
		t.Fatalf("NewStdoutConfig: %v", err)
	}
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	ic := UnaryServerInterceptor(cfg)
	info := &grpc.UnaryServerInfo{FullMethod: "/rawr.Books/GetBook"}
	if _, err := ic(t.Context(), nil, info, func(_ context.Context, _ any) (any, error) { return nil, nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(buf.String(), "/rawr.Books/GetBook") {
		t.Fatalf("expected span output to mention the method, got %q", buf.String())
	}
}
