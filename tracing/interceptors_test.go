package tracing

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	grpccodes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/Keksclan/goRawrBooks/bookrpc"
	"github.com/Keksclan/goRawrBooks/internal/logging"
)

func newRecorder(t *testing.T) (*TracingConfig, *tracetest.SpanRecorder) {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return &TracingConfig{TracerProvider: tp, Propagators: propagation.TraceContext{}}, rec
}

func onlySpan(t *testing.T, rec *tracetest.SpanRecorder) sdktrace.ReadOnlySpan {
	t.Helper()
	spans := rec.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	return spans[0]
}

func attrValue(attrs []attribute.KeyValue, key string) (string, bool) {
	for _, a := range attrs {
		if string(a.Key) == key {
			return a.Value.Emit(), true
		}
	}
	return "", false
}

func wantAttrs(t *testing.T, span sdktrace.ReadOnlySpan, want map[string]string) {
	t.Helper()
	for k, v := range want {
		got, ok := attrValue(span.Attributes(), k)
		if !ok {
			t.Errorf("attribute %q not found", k)
			continue
		}
		if got != v {
			t.Errorf("attribute %q = %q, want %q", k, got, v)
		}
	}
}

func TestUnaryInterceptor_Outcomes(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus codes.Code
	}{
		{"ok", nil, "OK", codes.Ok},
		{"not found", status.Error(grpccodes.NotFound, "no such book"), "NotFound", codes.Error},
		{"plain error", errors.New("boom"), "Unknown", codes.Error},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, rec := newRecorder(t)
			info := &grpc.UnaryServerInfo{FullMethod: bookrpc.GetBookMethod}

			_, err := UnaryServerInterceptor(cfg)(t.Context(), &bookrpc.GetBookRequest{ISBN: "isbn-1234"}, info,
				func(context.Context, any) (any, error) { return nil, tt.err })
			if !errors.Is(err, tt.err) {
				t.Fatalf("handler error not passed through: %v", err)
			}

			span := onlySpan(t, rec)
			if span.Name() != bookrpc.GetBookMethod || span.SpanKind() != trace.SpanKindServer {
				t.Fatalf("unexpected span %q kind %v", span.Name(), span.SpanKind())
			}
			if span.Status().Code != tt.wantStatus {
				t.Fatalf("status = %v, want %v", span.Status().Code, tt.wantStatus)
			}
			wantAttrs(t, span, map[string]string{
				"rpc.system":           "grpc",
				"rpc.service":          "rawr.Books",
				"rpc.method":           "GetBook",
				"rpc.grpc.status_code": tt.wantCode,
				"book.isbn":            "isbn-1234",
			})
		})
	}
}

func TestUnaryInterceptor_ContinuesRemoteTrace(t *testing.T) {
	cfg, rec := newRecorder(t)
	md := metadata.Pairs("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	ctx := metadata.NewIncomingContext(t.Context(), md)

	_, err := UnaryServerInterceptor(cfg)(ctx, nil, &grpc.UnaryServerInfo{FullMethod: bookrpc.PeekBookMethod},
		func(context.Context, any) (any, error) { return nil, nil })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	span := onlySpan(t, rec)
	if got := span.SpanContext().TraceID().String(); got != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Fatalf("remote trace not continued, trace id %s", got)
	}
	if got := span.Parent().SpanID().String(); got != "00f067aa0ba902b7" {
		t.Fatalf("unexpected parent span %s", got)
	}
}

func TestUnaryInterceptor_TagsRequestID(t *testing.T) {
	cfg, rec := newRecorder(t)
	ctx := logging.WithRequestID(t.Context(), "req-7")

	_, _ = UnaryServerInterceptor(cfg)(ctx, &bookrpc.ClearBookRequest{}, &grpc.UnaryServerInfo{FullMethod: bookrpc.ClearBookMethod},
		func(context.Context, any) (any, error) { return nil, nil })

	span := onlySpan(t, rec)
	wantAttrs(t, span, map[string]string{"rpc.request_id": "req-7"})
	if _, ok := attrValue(span.Attributes(), "book.isbn"); ok {
		t.Fatal("empty isbn must not be recorded")
	}
}

type fakeStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (f *fakeStream) Context() context.Context { return f.ctx }

func TestStreamInterceptor_SpanAndContext(t *testing.T) {
	cfg, rec := newRecorder(t)
	info := &grpc.StreamServerInfo{FullMethod: "/rawr.Books/Watch"}

	var inner trace.SpanContext
	err := StreamServerInterceptor(cfg)(nil, &fakeStream{ctx: t.Context()}, info, func(_ any, ss grpc.ServerStream) error {
		inner = trace.SpanContextFromContext(ss.Context())
		return errors.New("stream failed")
	})
	if err == nil {
		t.Fatal("expected error")
	}

	span := onlySpan(t, rec)
	if inner.SpanID() != span.SpanContext().SpanID() {
		t.Fatal("handler stream context does not carry the server span")
	}
	if span.Status().Code != codes.Error {
		t.Fatalf("expected Error status, got %v", span.Status().Code)
	}
	wantAttrs(t, span, map[string]string{"rpc.service": "rawr.Books", "rpc.method": "Watch"})
}

func TestInterceptors_NilConfigPassthrough(t *testing.T) {
	resp, err := UnaryServerInterceptor(nil)(t.Context(), "hello", &grpc.UnaryServerInfo{},
		func(_ context.Context, req any) (any, error) { return req, nil })
	if err != nil || resp != "hello" {
		t.Fatalf("unary passthrough returned %v, %v", resp, err)
	}

	called := false
	err = StreamServerInterceptor(nil)(nil, &fakeStream{ctx: t.Context()}, &grpc.StreamServerInfo{},
		func(any, grpc.ServerStream) error { called = true; return nil })
	if err != nil || !called {
		t.Fatalf("stream passthrough: called=%v err=%v", called, err)
	}
}

func TestSplitFullMethod(t *testing.T) {
	tests := []struct {
		input, service, method string
	}{
		{"/rawr.Books/GetBook", "rawr.Books", "GetBook"},
		{"rawr.Books/ClearBook", "rawr.Books", "ClearBook"},
		{"noSlash", "noSlash", ""},
	}
	for _, tt := range tests {
		svc, meth := splitFullMethod(tt.input)
		if svc != tt.service || meth != tt.method {
			t.Errorf("splitFullMethod(%q) = (%q, %q), want (%q, %q)", tt.input, svc, meth, tt.service, tt.method)
		}
	}
}
