// gcodewriter renders job scripts into G-code for a configured printer.
//
// Usage:
//
//	gcodewriter render --config printer.cfg --job job.txt [-o out.gcode]
//	gcodewriter watch --config printer.cfg --job job.txt -o out.gcode [--metrics-addr :9464]
//	gcodewriter flavors
//	gcodewriter version
//
// Logging follows GCODEWRITER_LOG_LEVEL, GCODEWRITER_LOG_FORMAT and
// NO_COLOR unless overridden by --log-level and --log-format.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gcodewriter/pkg/log"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type exitError struct {
	Code int
	Err  error
}

func (e *exitError) Error() string {
	if e == nil || e.Err == nil {
		return "command failed"
	}
	return e.Err.Error()
}

func (e *exitError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var coded *exitError
		if errors.As(err, &coded) {
			if coded.Err != nil {
				_, _ = fmt.Fprintln(os.Stderr, coded.Err)
			}
			os.Exit(coded.Code)
		}
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel, logFormat string

	root := &cobra.Command{
		Use:           "gcodewriter",
		Short:         "Render job scripts into firmware G-code",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			logger := log.New("gcodewriter")
			log.ConfigureFromEnv(logger)
			if cmd.Flags().Changed("log-level") {
				logger.SetLevel(log.ParseLevel(logLevel))
			}
			switch logFormat {
			case "json":
				logger.SetFormat(log.FormatJSON)
			case "text":
				logger.SetFormat(log.FormatText)
			}
			log.SetDefaultLogger(logger)
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text or json")

	root.AddCommand(
		newVersionCmd(),
		newFlavorsCmd(),
		newRenderCmd(),
		newWatchCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print gcodewriter version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "gcodewriter %s (%s, %s)\n", version, commit, date)
			return err
		},
	}
}
