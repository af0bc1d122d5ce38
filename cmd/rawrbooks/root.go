package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Keksclan/goRawrBooks/internal/config"
	"github.com/Keksclan/goRawrBooks/internal/logging"
)

// app is the state shared by all subcommands.
type app struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "rawrbooks",
		Short: "Read-through cached book lookups",
		Long: `rawrbooks puts a read-through cache in front of a slow book repository.

The first lookup of an ISBN pays the repository latency; repeated lookups are
answered from the cache until the entry is evicted.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       versionString(),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}
			cfg, err := config.Resolve(a.configPath)
			if err != nil {
				return err
			}
			if a.logLevel != "" {
				cfg.Log.Level = a.logLevel
			}
			if a.logFormat != "" {
				cfg.Log.Format = a.logFormat
			}
			if err := logging.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Config file (.yaml, .yml or .json); defaults to $"+config.EnvPath)
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "Log format (text or json)")
	cmd.SetVersionTemplate("{{.Version}}\n")

	cmd.AddCommand(newDemoCmd(a))
	cmd.AddCommand(newServeCmd(a))
	cmd.AddCommand(newGetCmd(a))
	cmd.AddCommand(newEvictCmd(a))
	cmd.AddCommand(newPutCmd(a))

	return cmd
}

// Execute runs the root command with a context cancelled on SIGINT/SIGTERM.
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "rawrbooks:", err)
		cancel()
		os.Exit(1)
	}
}
