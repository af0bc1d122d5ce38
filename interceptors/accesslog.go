package interceptors

import (
	"context"
	"time"

	"github.com/apex/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/Keksclan/goRawrBooks/internal/logging"
	"github.com/Keksclan/goRawrBooks/internal/metrics"
)

func logCall(ctx context.Context, method string, start time.Time, err error) {
	code := status.Code(err)
	metrics.RPCRequests.WithLabelValues(method, code.String()).Inc()

	entry := logging.FromContext(ctx).WithFields(log.Fields{
		"method":   method,
		"code":     code.String(),
		"duration": time.Since(start).Round(time.Microsecond).String(),
	})
	if err != nil {
		entry.WithError(err).Warn("rpc failed")
		return
	}
	entry.Info("rpc")
}

// AccessLogUnary returns a unary server interceptor that logs every call with
// its status code and duration and counts it in the RPC metrics.
func AccessLogUnary() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logCall(ctx, info.FullMethod, start, err)
		return resp, err
	}
}

// AccessLogStream is the streaming counterpart of [AccessLogUnary].
func AccessLogStream() grpc.StreamServerInterceptor {
	return func(
		srv any,
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		start := time.Now()
		err := handler(srv, ss)
		logCall(ss.Context(), info.FullMethod, start, err)
		return err
	}
}
