package gorawrbooks

import (
	"github.com/Keksclan/goRawrBooks/interceptors"
	"github.com/Keksclan/goRawrBooks/ratelimit"
	"github.com/Keksclan/goRawrBooks/tracing"
	"google.golang.org/grpc"
)

// Option configures a Server.
type Option func(*config)

// WithUnaryInterceptor appends a unary server interceptor after all built-in
// middleware. Custom interceptors keep their registration order.
func WithUnaryInterceptor(i grpc.UnaryServerInterceptor) Option {
	return func(c *config) {
		c.middlewares.Add(orderCustom, i, nil)
	}
}

// WithStreamInterceptor appends a stream server interceptor after all built-in
// middleware.
func WithStreamInterceptor(i grpc.StreamServerInterceptor) Option {
	return func(c *config) {
		c.middlewares.Add(orderCustom, nil, i)
	}
}

// WithRecovery installs panic-recovery interceptors so that a panic inside a
// handler returns codes.Internal instead of crashing the process. Recovery
// always runs first.
func WithRecovery() Option {
	return func(c *config) {
		c.middlewares.Add(orderRecovery, interceptors.RecoveryUnary(), interceptors.RecoveryStream())
	}
}

// WithRequestID tags every request with an ID taken from the x-request-id
// header or generated, and echoes it back in the response header.
func WithRequestID() Option {
	return func(c *config) {
		c.middlewares.Add(orderRequestID, interceptors.RequestIDUnary(), interceptors.RequestIDStream())
	}
}

// WithOpenTelemetry opens a server span per RPC. A nil cfg uses the global
// tracer provider and propagator.
func WithOpenTelemetry(cfg *tracing.TracingConfig) Option {
	if cfg == nil {
		cfg = &tracing.TracingConfig{}
	}
	return func(c *config) {
		c.middlewares.Add(orderOpenTelemetry, tracing.UnaryServerInterceptor(cfg), tracing.StreamServerInterceptor(cfg))
	}
}

// WithAccessLog logs one line per RPC and counts requests by method and code.
func WithAccessLog() Option {
	return func(c *config) {
		c.middlewares.Add(orderAccessLog, interceptors.AccessLogUnary(), interceptors.AccessLogStream())
	}
}

// WithRateLimitGlobal limits the whole server to rps requests per second with
// the given burst. Methods listed in perMethod get their own limiter instead.
// Rejected calls fail with codes.ResourceExhausted.
func WithRateLimitGlobal(rps float64, burst int, perMethod ...MethodLimit) Option {
	return func(c *config) {
		rl := &interceptors.RateLimit{Global: ratelimit.NewLimiter(rps, burst)}
		if len(perMethod) > 0 {
			rl.PerMethod = make(map[string]*ratelimit.Limiter, len(perMethod))
			for _, m := range perMethod {
				rl.PerMethod[m.Method] = ratelimit.NewLimiter(m.RPS, m.Burst)
			}
		}
		c.middlewares.Add(orderRateLimit, rl.Unary(), rl.Stream())
	}
}

// MethodLimit overrides the global rate limit for one full method name, for
// example bookrpc.ClearBookMethod.
type MethodLimit struct {
	Method string
	RPS    float64
	Burst  int
}
