// Package gorawrbooks assembles the rawr.Books gRPC server: a composable
// wrapper around grpc.Server whose middleware runs in a fixed priority order.
package gorawrbooks

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"

	"github.com/Keksclan/goRawrBooks/bookrpc"
)

// Server hosts rawr.Books behind the middleware selected with [Option]s.
//
//	srv := gorawrbooks.NewServer(gorawrbooks.DefaultOptions()...)
//	srv.RegisterBooks(bookrpc.NewHandler(book.NewCached(src)))
type Server struct {
	grpcServer *grpc.Server
}

// NewServer applies opts and builds the gRPC server. Interceptors run in
// their fixed priority order (recovery, request id, tracing, access log,
// rate limit, custom) no matter how opts are ordered.
func NewServer(opts ...Option) *Server {
	var cfg config
	for _, o := range opts {
		o(&cfg)
	}
	return &Server{grpcServer: grpc.NewServer(cfg.middlewares.ServerOptions()...)}
}

// GRPC exposes the underlying server, for Serve, GracefulStop and
// registering extra services.
func (s *Server) GRPC() *grpc.Server { return s.grpcServer }

// RegisterBooks mounts h as the rawr.Books service.
func (s *Server) RegisterBooks(h bookrpc.Handler) {
	bookrpc.Register(s.grpcServer, h)
}

// MetricsHandler serves the process's Prometheus registry, which includes
// the source and RPC collectors.
func (s *Server) MetricsHandler() http.Handler {
	return promhttp.Handler()
}
