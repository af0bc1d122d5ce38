package main

import (
	"context"
	"time"

	"github.com/apex/log"
	"github.com/spf13/cobra"

	"github.com/Keksclan/goRawrBooks/book"
)

// demoISBNs is the lookup sequence of the demo: three cold lookups followed
// by two repeats that are served from the cache.
var demoISBNs = []string{"isbn-1234", "isbn-5669", "isbn-8569", "isbn-1234", "isbn-1234"}

func newDemoCmd(a *app) *cobra.Command {
	var delay time.Duration

	cmd := &cobra.Command{
		Use:   "demo [isbn...]",
		Short: "Run the cached lookup sequence and log each result",
		Long: `Look up a fixed sequence of ISBNs through the cache and log each book
with the time it took. Cold lookups pay the source latency; repeats do not.

Examples:
  rawrbooks demo
  rawrbooks demo --delay 500ms
  rawrbooks demo isbn-1 isbn-2 isbn-1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if cmd.Flags().Changed("delay") {
				a.cfg.Delay = delay.String()
			}
			repo, done, err := buildCached(ctx, a.cfg)
			if err != nil {
				return err
			}
			defer done.Close()

			isbns := demoISBNs
			if len(args) > 0 {
				isbns = args
			}
			return runDemo(ctx, repo, log.Log, isbns)
		},
	}

	cmd.Flags().DurationVar(&delay, "delay", book.DefaultDelay, "Simulated latency of the slow source")
	return cmd
}

// runDemo looks up every isbn in order and logs the result.
func runDemo(ctx context.Context, repo book.Repository, logger log.Interface, isbns []string) error {
	logger.Info("....Fetching books")
	for _, isbn := range isbns {
		start := time.Now()
		b, err := repo.GetByISBN(ctx, isbn)
		if err != nil {
			return err
		}
		logger.WithField("duration", time.Since(start).Round(time.Millisecond).String()).
			Infof("%s -->%s", isbn, b)
	}
	return nil
}
