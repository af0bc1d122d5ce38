package interceptors

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Keksclan/goRawrBooks/internal/metrics"
	"github.com/Keksclan/goRawrBooks/ratelimit"
)

// RateLimit gates RPCs with token buckets. Methods in PerMethod (keyed by
// full method name) use their own bucket; every other method shares Global.
// A nil Global leaves unlisted methods unlimited.
type RateLimit struct {
	Global    *ratelimit.Limiter
	PerMethod map[string]*ratelimit.Limiter
}

func (rl *RateLimit) admit(fullMethod string) error {
	l := rl.Global
	if m, ok := rl.PerMethod[fullMethod]; ok {
		l = m
	}
	if l == nil || l.Allow() {
		return nil
	}
	metrics.RateLimitRejections.WithLabelValues(fullMethod).Inc()
	return status.Errorf(codes.ResourceExhausted, "rate limit exceeded for %s", fullMethod)
}

// Unary rejects calls over the limit with codes.ResourceExhausted.
func (rl *RateLimit) Unary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if err := rl.admit(info.FullMethod); err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

// Stream rejects streams over the limit before the handler runs.
func (rl *RateLimit) Stream() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if err := rl.admit(info.FullMethod); err != nil {
			return err
		}
		return handler(srv, ss)
	}
}
