package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"gcodewriter/pkg/config"
	"gcodewriter/pkg/log"
	"gcodewriter/pkg/metrics"
)

type watchOptions struct {
	renderOptions
	MetricsAddr string
	Debounce    time.Duration
}

func newWatchCmd() *cobra.Command {
	opts := watchOptions{Debounce: config.DefaultDebounce}

	command := &cobra.Command{
		Use:   "watch",
		Short: "Re-render whenever the config or job script changes",
		Long: `Render once, then re-render every time the printer configuration or
the job script is saved. A failed render leaves the previous output in
place. With --metrics-addr the render metrics are served over HTTP at
/metrics, with a liveness probe at /health.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.validate(); err != nil {
				return &exitError{Code: 2, Err: err}
			}
			if opts.Output == "" || opts.Output == "-" {
				return &exitError{Code: 2, Err: fmt.Errorf("watch needs -o to name an output file")}
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return watch(ctx, opts)
		},
	}

	command.Flags().StringVar(&opts.ConfigPath, "config", "", "printer configuration file")
	command.Flags().StringVar(&opts.JobPath, "job", "", "job script to render")
	command.Flags().StringVarP(&opts.Output, "output", "o", "", "output file")
	command.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9464")
	command.Flags().DurationVar(&opts.Debounce, "debounce", opts.Debounce, "quiet period before re-rendering")
	return command
}

func watch(ctx context.Context, opts watchOptions) error {
	logger := log.GetLogger("watch")
	m := metrics.NewWriterMetrics()

	if opts.MetricsAddr != "" {
		ln, err := net.Listen("tcp", opts.MetricsAddr)
		if err != nil {
			return fmt.Errorf("metrics listener: %w", err)
		}
		srv := metrics.NewServer(m, opts.MetricsAddr)
		go func() {
			if err := srv.Serve(ln); err != nil {
				logger.WithError(err).Error("metrics server stopped")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
		logger.WithField("addr", ln.Addr().String()).Info("serving metrics")
	}

	prev, _ := config.Load(opts.ConfigPath)
	pass := func() {
		stats, err := render(ctx, opts.renderOptions, nil, m)
		if err != nil {
			logger.WithError(err).Error("render failed, keeping previous output")
			return
		}
		logger.WithFields(log.Fields{
			"output": opts.Output,
			"lines":  stats.Lines,
			"bytes":  stats.Bytes,
		}).Info("rendered")
	}
	pass()

	w, err := config.NewWatcher([]string{opts.ConfigPath, opts.JobPath}, opts.Debounce, func(changed []string) {
		logger.WithField("files", strings.Join(changed, ", ")).Info("change detected")
		if next, err := config.Load(opts.ConfigPath); err == nil {
			if prev != nil {
				if sections := config.Diff(prev, next); len(sections) > 0 {
					logger.WithField("sections", strings.Join(sections, ", ")).Info("config sections changed")
				}
			}
			prev = next
		}
		pass()
	})
	if err != nil {
		return err
	}
	defer w.Close()

	logger.WithFields(log.Fields{"config": opts.ConfigPath, "job": opts.JobPath}).Info("watching for changes")
	return w.Run(ctx)
}
