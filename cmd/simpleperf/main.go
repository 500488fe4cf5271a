package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/getsentry/simpleperf/internal/config"
	"github.com/getsentry/simpleperf/internal/logutil"
	"github.com/getsentry/simpleperf/internal/nodetree"
	"github.com/getsentry/simpleperf/internal/simpleperf"
)

type cli struct {
	configPath string
	logLevel   string
	workers    int
	clock      string

	config config.ServiceConfig
}

func newRootCommand() *cobra.Command {
	c := &cli{}
	rootCmd := &cobra.Command{
		Use:           "simpleperf",
		Short:         "Import simpleperf traces",
		Long:          "simpleperf reads traces recorded by Android's simpleperf and rebuilds the call tree of every sampled thread.\n\n" + config.Description(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			c.config, err = config.Load(c.configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				c.config.LogLevel = c.logLevel
			}
			if cmd.Flags().Changed("workers") {
				c.config.Workers = c.workers
			}
			logutil.ConfigureLogger(c.config.LogLevel)
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "read the configuration from a YAML or TOML file")
	flags.StringVar(&c.logLevel, "log-level", "info", "minimum level of logged events")
	flags.IntVar(&c.workers, "workers", 4, "threads whose call trees are built concurrently")
	flags.StringVar(&c.clock, "clock", string(nodetree.GlobalClock), "clock to measure durations with (Global or Thread)")

	rootCmd.AddCommand(
		newImportCommand(c),
		newTagsCommand(c),
		newFunctionsCommand(c),
		newDownloadCommand(c),
	)
	return rootCmd
}

// parse reads the trace at path with the configured options. Warnings go to
// the global logger.
func (c *cli) parse(cmd *cobra.Command, path string) (*simpleperf.Trace, error) {
	logger := log.Logger.With().Str("trace", path).Logger()
	return simpleperf.ParseFile(cmd.Context(), path, simpleperf.Options{
		Logger:  &logger,
		Workers: c.config.Workers,
	})
}

// selectedClock falls back to the global clock when thread time isn't
// available in the trace.
func (c *cli) selectedClock(t *simpleperf.Trace) (nodetree.Clock, error) {
	switch nodetree.Clock(c.clock) {
	case nodetree.GlobalClock:
		return nodetree.GlobalClock, nil
	case nodetree.ThreadClock:
		if !t.SupportsThreadTime() {
			log.Warn().Msg(t.ThreadTimeMessage())
			return nodetree.GlobalClock, nil
		}
		return nodetree.ThreadClock, nil
	default:
		return "", errInvalidClock(c.clock)
	}
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
