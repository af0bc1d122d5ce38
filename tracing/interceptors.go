// Package tracing opens OpenTelemetry server spans for rawr.Books RPCs and
// builds a stdout tracer provider for local debugging. Nothing is traced
// unless the server is built with the WithOpenTelemetry option.
package tracing

import (
	"context"
	"maps"
	"slices"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/Keksclan/goRawrBooks/internal/logging"
)

const instrumentationName = "github.com/Keksclan/goRawrBooks/tracing"

// TracingConfig selects the provider and propagator used by the interceptors.
// Nil fields fall back to the otel globals at call time.
type TracingConfig struct {
	TracerProvider trace.TracerProvider
	Propagators    propagation.TextMapPropagator
}

func (c *TracingConfig) tracer() trace.Tracer {
	if c.TracerProvider != nil {
		return c.TracerProvider.Tracer(instrumentationName)
	}
	return otel.GetTracerProvider().Tracer(instrumentationName)
}

func (c *TracingConfig) propagator() propagation.TextMapPropagator {
	if c.Propagators != nil {
		return c.Propagators
	}
	return otel.GetTextMapPropagator()
}

// UnaryServerInterceptor opens one server span per unary call. Requests that
// carry an ISBN tag the span with it. A nil cfg disables tracing.
func UnaryServerInterceptor(cfg *TracingConfig) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if cfg == nil {
			return handler(ctx, req)
		}
		ctx, span := cfg.start(ctx, info.FullMethod)
		defer span.End()
		if r, ok := req.(isbnRequest); ok && r.GetISBN() != "" {
			span.SetAttributes(attribute.String("book.isbn", r.GetISBN()))
		}

		resp, err := handler(ctx, req)
		finish(span, err)
		return resp, err
	}
}

// StreamServerInterceptor opens one server span per stream. A nil cfg
// disables tracing.
func StreamServerInterceptor(cfg *TracingConfig) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if cfg == nil {
			return handler(srv, ss)
		}
		ctx, span := cfg.start(ss.Context(), info.FullMethod)
		defer span.End()

		err := handler(srv, &tracedStream{ServerStream: ss, ctx: ctx})
		finish(span, err)
		return err
	}
}

// isbnRequest is implemented by the bookrpc request messages.
type isbnRequest interface {
	GetISBN() string
}

// start continues the caller's trace, if any, with a server span named after
// the full method.
func (c *TracingConfig) start(ctx context.Context, fullMethod string) (context.Context, trace.Span) {
	md, _ := metadata.FromIncomingContext(ctx)
	ctx = c.propagator().Extract(ctx, mdCarrier{md: md})

	service, method := splitFullMethod(fullMethod)
	attrs := []attribute.KeyValue{
		attribute.String("rpc.system", "grpc"),
		attribute.String("rpc.service", service),
		attribute.String("rpc.method", method),
	}
	if id := logging.RequestIDFromContext(ctx); id != "" {
		attrs = append(attrs, attribute.String("rpc.request_id", id))
	}
	return c.tracer().Start(ctx, fullMethod,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attrs...),
	)
}

// finish records the gRPC outcome on span.
func finish(span trace.Span, err error) {
	st := status.Convert(err)
	span.SetAttributes(attribute.String("rpc.grpc.status_code", st.Code().String()))
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, st.Message())
}

// mdCarrier exposes incoming gRPC metadata to otel propagators. A nil md
// reads as empty.
type mdCarrier struct {
	md metadata.MD
}

func (c mdCarrier) Get(key string) string {
	if vals := c.md.Get(key); len(vals) > 0 {
		return vals[0]
	}
	return ""
}

func (c mdCarrier) Set(key, value string) {
	if c.md != nil {
		c.md.Set(key, value)
	}
}

func (c mdCarrier) Keys() []string {
	return slices.Collect(maps.Keys(c.md))
}

// splitFullMethod turns "/rawr.Books/GetBook" into ("rawr.Books", "GetBook").
func splitFullMethod(fullMethod string) (service, method string) {
	service, method, _ = strings.Cut(strings.TrimPrefix(fullMethod, "/"), "/")
	return service, method
}

type tracedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *tracedStream) Context() context.Context { return s.ctx }
