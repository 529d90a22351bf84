package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"gcodewriter/pkg/config"
	"gcodewriter/pkg/errors"
	"gcodewriter/pkg/flavor"
	"gcodewriter/pkg/job"
	"gcodewriter/pkg/log"
	"gcodewriter/pkg/metrics"
)

type renderOptions struct {
	ConfigPath  string
	JobPath     string
	Output      string
	MetricsPath string
}

func (o renderOptions) validate() error {
	if o.ConfigPath == "" {
		return fmt.Errorf("--config is required")
	}
	if o.JobPath == "" {
		return fmt.Errorf("--job is required")
	}
	return nil
}

func newRenderCmd() *cobra.Command {
	var opts renderOptions

	command := &cobra.Command{
		Use:   "render",
		Short: "Render a job script to G-code",
		Long: `Render a job script to G-code.

The printer configuration selects the firmware flavor and declares the
extruders and mills. Output goes to stdout unless -o names a file; a file
is only replaced once the whole job rendered without error.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.validate(); err != nil {
				return &exitError{Code: 2, Err: err}
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var m *metrics.WriterMetrics
			if opts.MetricsPath != "" {
				m = metrics.NewWriterMetrics()
			}
			_, err := render(ctx, opts, cmd.OutOrStdout(), m)
			if m != nil {
				if werr := os.WriteFile(opts.MetricsPath, []byte(m.Gather()), 0o644); werr != nil && err == nil {
					err = errors.OutputError(werr)
				}
			}
			return err
		},
	}

	command.Flags().StringVar(&opts.ConfigPath, "config", "", "printer configuration file")
	command.Flags().StringVar(&opts.JobPath, "job", "", "job script to render")
	command.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default stdout)")
	command.Flags().StringVar(&opts.MetricsPath, "metrics", "", "write Prometheus metrics to this file")
	return command
}

// render runs one full pass: load config, run the job, write output.
// Each pass gets its own session id.
func render(ctx context.Context, opts renderOptions, stdout io.Writer, m *metrics.WriterMetrics) (job.Stats, error) {
	session := uuid.NewString()
	logger := log.GetLogger("render").Bind(log.Fields{"session": session})

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return job.Stats{}, errors.Wrap(err, errors.ErrConfigValidation, err.Error()).SetFile(opts.ConfigPath)
	}
	settings, err := config.LoadSettings(cfg)
	if err != nil {
		return job.Stats{}, err
	}
	w, err := settings.NewWriter()
	if err != nil {
		return job.Stats{}, err
	}
	w.SetLogger(logger.WithPrefix("gcode"))

	script, err := os.Open(opts.JobPath)
	if err != nil {
		return job.Stats{}, errors.Wrap(err, errors.ErrRuntime, fmt.Sprintf("opening job: %v", err))
	}
	defer script.Close()

	out, err := openOutput(opts.Output, stdout)
	if err != nil {
		return job.Stats{}, err
	}
	defer out.abort()

	if w.Dialect().Motion != flavor.MotionLaser {
		if _, err := fmt.Fprintf(out, "; generated by gcodewriter %s\n; session %s flavor %s\n", version, session, w.Config().Flavor); err != nil {
			return job.Stats{}, errors.OutputError(err)
		}
	}

	logger.WithFields(log.Fields{"config": opts.ConfigPath, "job": opts.JobPath, "flavor": w.Config().Flavor.String()}).Info("render started")
	runOpts := []job.Option{job.WithLogger(logger.WithPrefix("job"))}
	if m != nil {
		runOpts = append(runOpts, job.WithMetrics(m))
	}
	stats, err := job.NewRunner(w, out, runOpts...).Run(ctx, script)
	if err != nil {
		if he, ok := err.(*errors.HostError); ok && he.Line > 0 {
			he.SetFile(opts.JobPath)
		}
		return stats, err
	}
	if err := out.commit(); err != nil {
		return stats, errors.OutputError(err)
	}
	return stats, nil
}

// output writes to stdout, or to a temporary file renamed over the
// target on commit.
type output struct {
	io.Writer
	tmp    *os.File
	target string
	done   bool
}

func openOutput(path string, stdout io.Writer) (*output, error) {
	if path == "" || path == "-" {
		return &output{Writer: stdout}, nil
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return nil, errors.OutputError(err)
	}
	return &output{Writer: tmp, tmp: tmp, target: path}, nil
}

func (o *output) commit() error {
	if o.tmp == nil || o.done {
		return nil
	}
	o.done = true
	if err := o.tmp.Chmod(0o644); err != nil {
		o.tmp.Close()
		os.Remove(o.tmp.Name())
		return err
	}
	if err := o.tmp.Close(); err != nil {
		os.Remove(o.tmp.Name())
		return err
	}
	return os.Rename(o.tmp.Name(), o.target)
}

func (o *output) abort() {
	if o.tmp == nil || o.done {
		return
	}
	o.done = true
	o.tmp.Close()
	os.Remove(o.tmp.Name())
}
