package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/Keksclan/goRawrBooks/book"
	"github.com/Keksclan/goRawrBooks/bookrpc"
	"github.com/Keksclan/goRawrBooks/ratelimit"
	"github.com/Keksclan/goRawrBooks/retry"
)

// clientFlags are shared by the commands that talk to a running server.
type clientFlags struct {
	addr    string
	timeout time.Duration
}

func (f *clientFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.addr, "addr", "", "Server address (defaults to grpc_addr from config)")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 10*time.Second, "Per-call timeout")
}

func (f *clientFlags) dial(a *app) (*bookrpc.Client, func() error, error) {
	addr := f.addr
	if addr == "" {
		addr = a.cfg.GRPCAddr
	}
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return bookrpc.NewClient(conn), conn.Close, nil
}

func newGetCmd(a *app) *cobra.Command {
	var (
		cf       clientFlags
		attempts int
		rps      float64
		peek     bool
	)

	cmd := &cobra.Command{
		Use:   "get <isbn>...",
		Short: "Look up books on a running server",
		Long: `Look up each ISBN through the rawr.Books service and print the result.

Calls failing with Unavailable are retried with exponential back-off.
With --peek only the server's cache is consulted.

Examples:
  rawrbooks get isbn-1234
  rawrbooks get --addr localhost:50051 isbn-1234 isbn-5669
  rawrbooks get --peek isbn-1234`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			client, closeConn, err := cf.dial(a)
			if err != nil {
				return err
			}
			defer closeConn()

			limiter := ratelimit.NewLimiter(rps, 1)
			rc := retry.Config{
				MaxAttempts: attempts,
				BaseDelay:   100 * time.Millisecond,
				MaxDelay:    2 * time.Second,
				Jitter:      0.2,
				Retryable:   retry.Codes(codes.Unavailable),
			}

			for _, isbn := range args {
				if err := limiter.Wait(ctx); err != nil {
					return err
				}
				start := time.Now()
				if peek {
					b, ok, err := client.PeekBook(ctx, isbn)
					if err != nil {
						return fmt.Errorf("peek %s: %w", isbn, err)
					}
					if !ok {
						fmt.Fprintf(out, "%s --> not cached\n", isbn)
						continue
					}
					fmt.Fprintf(out, "%s -->%s\n", isbn, b)
					continue
				}
				b, err := retry.Do(ctx, rc, func(ctx context.Context) (book.Book, error) {
					ctx, cancel := context.WithTimeout(ctx, cf.timeout)
					defer cancel()
					return client.GetBook(ctx, isbn)
				})
				if err != nil {
					return fmt.Errorf("get %s: %w", isbn, err)
				}
				fmt.Fprintf(out, "%s -->%s (%s)\n", isbn, b, time.Since(start).Round(time.Millisecond))
			}
			return nil
		},
	}

	cf.register(cmd)
	cmd.Flags().IntVar(&attempts, "attempts", 4, "Maximum attempts per lookup")
	cmd.Flags().Float64Var(&rps, "rps", 0, "Client-side lookups per second (0 = unlimited)")
	cmd.Flags().BoolVar(&peek, "peek", false, "Only report books already cached on the server")
	return cmd
}

func newEvictCmd(a *app) *cobra.Command {
	var cf clientFlags

	cmd := &cobra.Command{
		Use:   "evict [isbn]",
		Short: "Evict one cached book, or all of them, on a running server",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, closeConn, err := cf.dial(a)
			if err != nil {
				return err
			}
			defer closeConn()

			isbn := ""
			if len(args) == 1 {
				isbn = args[0]
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), cf.timeout)
			defer cancel()
			if err := client.ClearBook(ctx, isbn); err != nil {
				return err
			}
			if isbn == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "evicted all books")
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "evicted %s\n", isbn)
			}
			return nil
		},
	}

	cf.register(cmd)
	return cmd
}
