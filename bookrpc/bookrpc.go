// Package bookrpc exposes a cached book repository as the rawr.Books gRPC
// service. It uses [grpc.ServiceDesc] registration so that no protobuf code
// generation is required.
//
// Because the request/response types are plain Go structs (not generated
// protobuf messages), the package registers a thin codec wrapper that
// JSON-encodes book messages while delegating all other messages to the
// standard proto codec. Importing this package activates the codec.
package bookrpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	grpcEncoding "google.golang.org/grpc/encoding"
	_ "google.golang.org/grpc/encoding/proto" // ensure default proto codec is registered first
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"

	"github.com/Keksclan/goRawrBooks/book"
	"github.com/Keksclan/goRawrBooks/internal/logging"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "rawr.Books"

// Full method names, usable for per-method policies such as rate limits.
const (
	GetBookMethod   = "/" + ServiceName + "/GetBook"
	PeekBookMethod  = "/" + ServiceName + "/PeekBook"
	ClearBookMethod = "/" + ServiceName + "/ClearBook"
)

// GetBookRequest asks for a book, loading it on a cache miss.
type GetBookRequest struct {
	ISBN string `json:"isbn"`
}

// PeekBookRequest asks for a cached book without loading it.
type PeekBookRequest struct {
	ISBN string `json:"isbn"`
}

// ClearBookRequest evicts one cached book, or all of them when ISBN is empty.
type ClearBookRequest struct {
	ISBN string `json:"isbn"`
}

// BookResponse carries a book.
type BookResponse struct {
	ISBN  string `json:"isbn"`
	Title string `json:"title"`
}

// PeekBookResponse reports whether the book is cached and, if so, the book.
type PeekBookResponse struct {
	Found bool          `json:"found"`
	Book  *BookResponse `json:"book,omitempty"`
}

// ClearBookResponse echoes what was cleared.
type ClearBookResponse struct {
	ISBN string `json:"isbn,omitempty"`
	All  bool   `json:"all"`
}

func (r *GetBookRequest) GetISBN() string   { return r.ISBN }
func (r *PeekBookRequest) GetISBN() string  { return r.ISBN }
func (r *ClearBookRequest) GetISBN() string { return r.ISBN }

// Book converts the response back into a book.Book.
func (r *BookResponse) Book() book.Book {
	return book.Book{ISBN: r.ISBN, Title: r.Title}
}

func fromBook(b book.Book) *BookResponse {
	return &BookResponse{ISBN: b.ISBN, Title: b.Title}
}

// bookMsg is a marker interface satisfied by every message of the service.
type bookMsg interface {
	isBookMsg()
}

func (*GetBookRequest) isBookMsg()    {}
func (*PeekBookRequest) isBookMsg()   {}
func (*ClearBookRequest) isBookMsg()  {}
func (*BookResponse) isBookMsg()      {}
func (*PeekBookResponse) isBookMsg()  {}
func (*ClearBookResponse) isBookMsg() {}

// Handler is the interface that a rawr.Books implementation must satisfy.
type Handler interface {
	GetBook(ctx context.Context, req *GetBookRequest) (*BookResponse, error)
	PeekBook(ctx context.Context, req *PeekBookRequest) (*PeekBookResponse, error)
	ClearBook(ctx context.Context, req *ClearBookRequest) (*ClearBookResponse, error)
}

// CachedRepository is what [NewHandler] serves: a repository that can also
// be inspected and evicted. *book.Cached satisfies it.
type CachedRepository interface {
	book.Repository
	Peek(ctx context.Context, isbn string) (book.Book, bool)
	Evict(ctx context.Context, isbn string) error
	EvictAll(ctx context.Context) error
}

// NewHandler returns a Handler backed by repo.
func NewHandler(repo CachedRepository) Handler {
	return &handler{repo: repo}
}

type handler struct {
	repo CachedRepository
}

func (h *handler) GetBook(ctx context.Context, req *GetBookRequest) (*BookResponse, error) {
	b, err := h.repo.GetByISBN(ctx, req.ISBN)
	if err != nil {
		return nil, toStatus(err)
	}
	return fromBook(b), nil
}

func (h *handler) PeekBook(ctx context.Context, req *PeekBookRequest) (*PeekBookResponse, error) {
	if req.ISBN == "" {
		return nil, toStatus(book.ErrInvalidKey)
	}
	b, ok := h.repo.Peek(ctx, req.ISBN)
	if !ok {
		return &PeekBookResponse{}, nil
	}
	return &PeekBookResponse{Found: true, Book: fromBook(b)}, nil
}

func (h *handler) ClearBook(ctx context.Context, req *ClearBookRequest) (*ClearBookResponse, error) {
	if req.ISBN == "" {
		if err := h.repo.EvictAll(ctx); err != nil {
			return nil, toStatus(err)
		}
		logging.FromContext(ctx).Info("all books evicted")
		return &ClearBookResponse{All: true}, nil
	}
	if err := h.repo.Evict(ctx, req.ISBN); err != nil {
		return nil, toStatus(err)
	}
	logging.FromContext(ctx).WithField("isbn", req.ISBN).Info("book evicted")
	return &ClearBookResponse{ISBN: req.ISBN}, nil
}

// toStatus maps domain errors onto gRPC status codes.
func toStatus(err error) error {
	switch {
	case errors.Is(err, book.ErrInvalidKey):
		return status.Error(codes.InvalidArgument, "isbn must not be empty")
	case errors.Is(err, book.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, book.ErrSourceUnavailable):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// ServiceDesc is the grpc.ServiceDesc for the rawr.Books service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*Handler)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("GetBook", Handler.GetBook),
		unaryMethod("PeekBook", Handler.PeekBook),
		unaryMethod("ClearBook", Handler.ClearBook),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rawr/books.proto",
}

// unaryMethod builds the MethodDesc for one unary call, decoding into a fresh
// Req and routing through the server's interceptor chain when present.
func unaryMethod[Req, Resp any](name string, call func(Handler, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			req := new(Req)
			if err := dec(req); err != nil {
				return nil, err
			}
			h := srv.(Handler)
			if interceptor == nil {
				return call(h, ctx, req)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: fullMethod,
			}
			return interceptor(ctx, req, info, func(ctx context.Context, r any) (any, error) {
				return call(h, ctx, r.(*Req))
			})
		},
	}
}

// Register registers a rawr.Books implementation on the given gRPC server.
func Register(s *grpc.Server, h Handler) {
	s.RegisterService(&ServiceDesc, h)
}

// ---------- codec wrapper ----------

func init() {
	// Replace the default proto codec with a thin wrapper that JSON-encodes
	// book messages and delegates all other (protobuf) messages to proto.Marshal.
	grpcEncoding.RegisterCodec(bookCodec{})
}

// bookCodec wraps the default proto codec.
type bookCodec struct{}

func (bookCodec) Name() string { return "proto" }

func (bookCodec) Marshal(v any) ([]byte, error) {
	if _, ok := v.(bookMsg); ok {
		return json.Marshal(v)
	}
	if m, ok := v.(proto.Message); ok {
		return proto.Marshal(m)
	}
	return nil, fmt.Errorf("bookrpc codec: unsupported message type %T", v)
}

func (bookCodec) Unmarshal(data []byte, v any) error {
	if _, ok := v.(bookMsg); ok {
		return json.Unmarshal(data, v)
	}
	if m, ok := v.(proto.Message); ok {
		return proto.Unmarshal(data, m)
	}
	return fmt.Errorf("bookrpc codec: unsupported message type %T", v)
}
