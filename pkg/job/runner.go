package job

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"gcodewriter/pkg/errors"
	"gcodewriter/pkg/gcode"
	"gcodewriter/pkg/log"
	"gcodewriter/pkg/metrics"
)

// Stats summarises one run.
type Stats struct {
	// Lines is the number of script lines read, including blank ones.
	Lines    int
	Commands int
	Bytes    int64
	// Filament is the net filament used per extruder id, in mm.
	Filament map[uint16]float64
	Elapsed  time.Duration
}

// Runner feeds a job script through one writer.
type Runner struct {
	w       *gcode.Writer
	out     *bufio.Writer
	metrics *metrics.WriterMetrics
	logger  *log.Logger
	stats   Stats
}

// Option configures a Runner.
type Option func(*Runner)

// WithMetrics records per-operation metrics into m.
func WithMetrics(m *metrics.WriterMetrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithLogger replaces the default "job" logger.
func WithLogger(l *log.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// NewRunner creates a runner writing fragments to out in call order.
func NewRunner(w *gcode.Writer, out io.Writer, opts ...Option) *Runner {
	r := &Runner{
		w:      w,
		out:    bufio.NewWriter(out),
		logger: log.GetLogger("job"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Writer returns the writer being driven.
func (r *Runner) Writer() *gcode.Writer { return r.w }

// Run executes every line of script. It stops at the first parse error,
// parameter error or emitter contract violation and returns it as a
// *errors.HostError carrying the line number. Output produced before the
// failing line is flushed.
func (r *Runner) Run(ctx context.Context, script io.Reader) (Stats, error) {
	start := time.Now()
	err := r.run(ctx, script)
	if ferr := r.out.Flush(); ferr != nil && err == nil {
		err = errors.OutputError(ferr)
	}
	r.stats.Elapsed = time.Since(start)
	r.stats.Filament = r.filament()

	if r.metrics != nil {
		code := ""
		if he, ok := err.(*errors.HostError); ok {
			code = string(he.Code)
		} else if err != nil {
			code = string(errors.ErrRuntime)
		}
		r.metrics.RecordRender(r.stats.Elapsed, code)
		for id, mm := range r.stats.Filament {
			r.metrics.SetFilamentUsed(fmt.Sprintf("T%d", id), mm)
		}
	}

	fields := log.Fields{
		"lines":    r.stats.Lines,
		"commands": r.stats.Commands,
		"bytes":    r.stats.Bytes,
		"elapsed":  r.stats.Elapsed.String(),
	}
	if err != nil {
		r.logger.WithFields(fields).WithError(err).Error("job failed")
		return r.stats, err
	}
	r.logger.WithFields(fields).Info("job complete")
	return r.stats, nil
}

func (r *Runner) run(ctx context.Context, script io.Reader) error {
	scanner := bufio.NewScanner(script)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.stats.Lines++
		if r.metrics != nil {
			r.metrics.JobLines.Inc(nil)
		}

		cmd, err := ParseLine(scanner.Text(), r.stats.Lines)
		if err != nil {
			return err
		}
		if cmd == nil {
			continue
		}
		text, err := r.Exec(cmd)
		cmd.Release()
		if err != nil {
			return err
		}
		if text == "" {
			continue
		}
		n, err := r.out.WriteString(text)
		r.stats.Bytes += int64(n)
		if err != nil {
			return errors.OutputError(err)
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, errors.ErrRuntime, fmt.Sprintf("reading job: %v", err))
	}
	return nil
}

// Exec runs one command against the writer and returns the emitted text.
// A contract violation raised by the writer is returned as an error.
func (r *Runner) Exec(cmd *Command) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text = ""
			err = errors.WithLineNumber(errors.FromPanic(rec), cmd.Line)
		}
	}()

	op, text, err := r.dispatch(cmd)
	if err != nil {
		if he, ok := err.(*errors.HostError); ok {
			return "", errors.WithLineNumber(he, cmd.Line)
		}
		return "", err
	}
	r.stats.Commands++
	if r.metrics != nil {
		r.metrics.RecordFragment(op, text)
	}
	r.logger.WithFields(log.Fields{"line": cmd.Line, "op": op, "bytes": len(text)}).Debug("exec")
	return text, nil
}

func (r *Runner) dispatch(cmd *Command) (op, text string, err error) {
	w := r.w
	switch cmd.Name {
	case "PREAMBLE":
		return "preamble", w.Preamble(), nil

	case "POSTAMBLE":
		return "postamble", w.Postamble(), nil

	case "TEMP":
		s, err := cmd.uintArg("S")
		if err != nil {
			return "", "", err
		}
		t := -1
		if cmd.hasArg("T") {
			id, err := cmd.toolArg("T")
			if err != nil {
				return "", "", err
			}
			t = int(id)
		}
		return "set_temperature", w.SetTemperature(s, cmd.hasArg("W"), t), nil

	case "BED":
		s, err := cmd.uintArg("S")
		if err != nil {
			return "", "", err
		}
		return "set_bed_temperature", w.SetBedTemperature(s, cmd.hasArg("W")), nil

	case "FAN":
		s, err := cmd.uintArg("S")
		if err != nil {
			return "", "", err
		}
		return "set_fan", w.SetFan(s, cmd.hasArg("FORCE")), nil

	case "ACCEL":
		s, err := cmd.uintArg("S")
		if err != nil {
			return "", "", err
		}
		return "set_acceleration", w.SetAcceleration(s), nil

	case "RESET_E":
		return "reset_e", w.ResetE(cmd.hasArg("FORCE")), nil

	case "TOOL":
		id, err := cmd.toolArg("T")
		if err != nil {
			return "", "", err
		}
		return "set_tool", w.SetTool(id), nil

	case "SPEED":
		f, err := cmd.floatArg("F")
		if err != nil {
			return "", "", err
		}
		return "set_speed", w.SetSpeed(f, cmd.stringArg("C"), cmd.stringArg("MARKER")), nil

	case "TRAVEL":
		x, y, err := xy(cmd)
		if err != nil {
			return "", "", err
		}
		if cmd.hasArg("Z") {
			z, err := cmd.floatArg("Z")
			if err != nil {
				return "", "", err
			}
			return "travel_to_xyz", w.TravelToXYZ(mgl64.Vec3{x, y, z}, cmd.stringArg("C")), nil
		}
		return "travel_to_xy", w.TravelToXY(mgl64.Vec2{x, y}, cmd.stringArg("C")), nil

	case "TRAVEL_Z":
		z, err := cmd.floatArg("Z")
		if err != nil {
			return "", "", err
		}
		return "travel_to_z", w.TravelToZ(z, cmd.stringArg("C")), nil

	case "EXTRUDE":
		x, y, err := xy(cmd)
		if err != nil {
			return "", "", err
		}
		de, err := cmd.floatArg("E")
		if err != nil {
			return "", "", err
		}
		if cmd.hasArg("Z") {
			z, err := cmd.floatArg("Z")
			if err != nil {
				return "", "", err
			}
			return "extrude_to_xyz", w.ExtrudeToXYZ(mgl64.Vec3{x, y, z}, de, cmd.stringArg("C")), nil
		}
		return "extrude_to_xy", w.ExtrudeToXY(mgl64.Vec2{x, y}, de, cmd.stringArg("C")), nil

	case "RETRACT":
		return "retract", w.Retract(cmd.hasArg("WIPE")), nil

	case "RETRACT_TOOLCHANGE":
		return "retract_for_toolchange", w.RetractForToolchange(cmd.hasArg("WIPE")), nil

	case "UNRETRACT":
		return "unretract", w.Unretract(), nil

	case "LIFT":
		extra, err := cmd.floatArgOr("EXTRA", 0)
		if err != nil {
			return "", "", err
		}
		if extra != 0 {
			w.SetExtraLift(extra)
		}
		return "lift", w.Lift(), nil

	case "UNLIFT":
		return "unlift", w.Unlift(), nil

	case "PROGRESS":
		n, err := cmd.uintArg("N")
		if err != nil {
			return "", "", err
		}
		total, err := cmd.uintArg("TOTAL")
		if err != nil {
			return "", "", err
		}
		return "update_progress", w.UpdateProgress(n, total, cmd.hasArg("ALL")), nil

	case "PAUSE":
		return "pause", gcode.PausePrintCode + "\n", nil

	case "RAW":
		if cmd.Text == "" {
			return "raw", "", nil
		}
		return "raw", cmd.Text + "\n", nil
	}
	return "", "", errors.JobUnknownCommandError(cmd.Name)
}

func xy(cmd *Command) (x, y float64, err error) {
	if x, err = cmd.floatArg("X"); err != nil {
		return 0, 0, err
	}
	if y, err = cmd.floatArg("Y"); err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

func (r *Runner) filament() map[uint16]float64 {
	out := make(map[uint16]float64)
	for _, x := range r.w.Extruders() {
		out[x.ID()] = x.UsedFilament()
	}
	return out
}
