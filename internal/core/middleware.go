// Package core orders server middleware and turns it into grpc options.
package core

import (
	"cmp"
	"slices"

	"google.golang.org/grpc"
)

// entry is one interceptor pair registered at a priority. Either side may be
// nil.
type entry struct {
	order  int
	unary  grpc.UnaryServerInterceptor
	stream grpc.StreamServerInterceptor
}

// MiddlewareBuilder collects interceptors by priority. Lower priorities run
// first (outermost); equal priorities keep registration order. The zero value
// is ready to use.
type MiddlewareBuilder struct {
	entries []entry
}

// Add registers an interceptor pair at the given priority.
func (b *MiddlewareBuilder) Add(order int, unary grpc.UnaryServerInterceptor, stream grpc.StreamServerInterceptor) {
	b.entries = append(b.entries, entry{order: order, unary: unary, stream: stream})
}

// Build returns the unary and stream interceptors in execution order.
func (b *MiddlewareBuilder) Build() ([]grpc.UnaryServerInterceptor, []grpc.StreamServerInterceptor) {
	sorted := slices.Clone(b.entries)
	slices.SortStableFunc(sorted, func(x, y entry) int {
		return cmp.Compare(x.order, y.order)
	})

	var (
		unary  []grpc.UnaryServerInterceptor
		stream []grpc.StreamServerInterceptor
	)
	for _, e := range sorted {
		if e.unary != nil {
			unary = append(unary, e.unary)
		}
		if e.stream != nil {
			stream = append(stream, e.stream)
		}
	}
	return unary, stream
}

// ServerOptions chains the built interceptors with grpc's own chaining
// options. Empty directions contribute no option.
func (b *MiddlewareBuilder) ServerOptions() []grpc.ServerOption {
	unary, stream := b.Build()
	var opts []grpc.ServerOption
	if len(unary) > 0 {
		opts = append(opts, grpc.ChainUnaryInterceptor(unary...))
	}
	if len(stream) > 0 {
		opts = append(opts, grpc.ChainStreamInterceptor(stream...))
	}
	return opts
}
