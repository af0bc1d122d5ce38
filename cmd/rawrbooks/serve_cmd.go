package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/apex/log"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	gorawrbooks "github.com/Keksclan/goRawrBooks"
	"github.com/Keksclan/goRawrBooks/book"
	"github.com/Keksclan/goRawrBooks/bookrpc"
	"github.com/Keksclan/goRawrBooks/cache"
	"github.com/Keksclan/goRawrBooks/tracing"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var grpcAddr, metricsAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the rawr.Books gRPC service and Prometheus metrics",
		Long: `Start the rawr.Books gRPC server backed by the configured source and
cache store, plus an HTTP endpoint exposing /metrics.

Examples:
  rawrbooks serve
  rawrbooks serve --grpc-addr :6000 --metrics-addr :9100
  rawrbooks serve -c rawrbooks.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("grpc-addr") {
				a.cfg.GRPCAddr = grpcAddr
			}
			if cmd.Flags().Changed("metrics-addr") {
				a.cfg.MetricsAddr = metricsAddr
			}
			return a.serve(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&grpcAddr, "grpc-addr", "", "gRPC listen address (overrides config)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Metrics listen address (overrides config)")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	cfg := a.cfg
	opts := append(gorawrbooks.DefaultOptions(), gorawrbooks.WithAccessLog())
	var cacheOpts []cache.ReadThroughOption[book.Book]

	if cfg.Tracing {
		tc, tp, err := tracing.NewStdoutConfig(os.Stdout)
		if err != nil {
			return fmt.Errorf("tracing: %w", err)
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()
			_ = tp.Shutdown(sctx)
		}()
		otel.SetTracerProvider(tp)
		opts = append(opts, gorawrbooks.WithOpenTelemetry(tc))
		cacheOpts = append(cacheOpts, cache.WithTracerProvider[book.Book](tp))
	}
	if cfg.RateLimit.RPS > 0 {
		opts = append(opts, gorawrbooks.WithRateLimitGlobal(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	}

	repo, done, err := buildCached(ctx, cfg, cacheOpts...)
	if err != nil {
		return err
	}
	defer done.Close()

	srv := gorawrbooks.NewServer(opts...)
	srv.RegisterBooks(bookrpc.NewHandler(repo))

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.GRPCAddr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", srv.MetricsHandler())
	httpSrv := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithFields(log.Fields{"addr": lis.Addr().String(), "store": cfg.Store.Kind, "source": cfg.Source.Kind}).
			Info("grpc server listening")
		return srv.GRPC().Serve(lis)
	})
	g.Go(func() error {
		log.WithField("addr", cfg.MetricsAddr).Info("metrics server listening")
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		srv.GRPC().GracefulStop()
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(sctx)
	})
	return g.Wait()
}
