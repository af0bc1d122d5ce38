package interceptors

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/Keksclan/goRawrBooks/internal/logging"
)

// RequestIDHeader is the metadata key a caller may set to choose the request
// ID. The server always answers with it in the response header.
const RequestIDHeader = "x-request-id"

func incomingRequestID(ctx context.Context) string {
	if id := logging.RequestIDFromContext(ctx); id != "" {
		return id
	}
	md, _ := metadata.FromIncomingContext(ctx)
	if ids := md.Get(RequestIDHeader); len(ids) > 0 && ids[0] != "" {
		return ids[0]
	}
	var b [16]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

// tagRequest attaches the request ID to ctx and the response header.
func tagRequest(ctx context.Context) context.Context {
	id := incomingRequestID(ctx)
	_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDHeader, id))
	return logging.WithRequestID(ctx, id)
}

// RequestIDUnary makes a request ID available to the handler through
// logging.RequestIDFromContext and logging.FromContext.
func RequestIDUnary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		return handler(tagRequest(ctx), req)
	}
}

// RequestIDStream is the streaming counterpart of [RequestIDUnary].
func RequestIDStream() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, _ *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		return handler(srv, withContext(ss, tagRequest(ss.Context())))
	}
}

type ctxStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *ctxStream) Context() context.Context { return s.ctx }

func withContext(ss grpc.ServerStream, ctx context.Context) grpc.ServerStream {
	return &ctxStream{ServerStream: ss, ctx: ctx}
}
