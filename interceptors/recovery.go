package interceptors

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/apex/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Keksclan/goRawrBooks/internal/logging"
)

// recovered turns a panic value into the error the client sees. The value
// itself and the stack only go to the log.
func recovered(ctx context.Context, method string, r any) error {
	logging.FromContext(ctx).WithFields(log.Fields{
		"method": method,
		"panic":  fmt.Sprint(r),
		"stack":  string(debug.Stack()),
	}).Error("handler panicked")
	return status.Error(codes.Internal, "internal server error")
}

// RecoveryUnary keeps a panicking handler from taking the server down. The
// caller gets codes.Internal.
func RecoveryUnary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				resp, err = nil, recovered(ctx, info.FullMethod, r)
			}
		}()
		return handler(ctx, req)
	}
}

// RecoveryStream is the streaming counterpart of [RecoveryUnary]. It copes
// with a nil stream.
func RecoveryStream() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			ctx := context.Background()
			if ss != nil {
				ctx = ss.Context()
			}
			err = recovered(ctx, info.FullMethod, r)
		}()
		return handler(srv, ss)
	}
}
