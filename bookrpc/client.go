package bookrpc

import (
	"context"

	"google.golang.org/grpc"

	"github.com/Keksclan/goRawrBooks/book"
)

// Client calls the rawr.Books service over an existing connection.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// GetBook fetches a book, loading it on the server on a cache miss.
func (c *Client) GetBook(ctx context.Context, isbn string, opts ...grpc.CallOption) (book.Book, error) {
	resp := new(BookResponse)
	if err := c.cc.Invoke(ctx, GetBookMethod, &GetBookRequest{ISBN: isbn}, resp, opts...); err != nil {
		return book.Book{}, err
	}
	return resp.Book(), nil
}

// PeekBook reports the cached book for isbn, if any.
func (c *Client) PeekBook(ctx context.Context, isbn string, opts ...grpc.CallOption) (book.Book, bool, error) {
	resp := new(PeekBookResponse)
	if err := c.cc.Invoke(ctx, PeekBookMethod, &PeekBookRequest{ISBN: isbn}, resp, opts...); err != nil {
		return book.Book{}, false, err
	}
	if !resp.Found || resp.Book == nil {
		return book.Book{}, false, nil
	}
	return resp.Book.Book(), true, nil
}

// ClearBook evicts isbn on the server. An empty isbn evicts everything.
func (c *Client) ClearBook(ctx context.Context, isbn string, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, ClearBookMethod, &ClearBookRequest{ISBN: isbn}, new(ClearBookResponse), opts...)
}
