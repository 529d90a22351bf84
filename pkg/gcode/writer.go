// Package gcode turns abstract motion and machine-state requests into
// G-code text for one firmware flavor.
//
// A Writer is the whole mutable state of one output-generation pass:
// position, pending lift, active tool and the caches used to avoid
// re-emitting commands whose effect is already in force. Every operation
// returns the text to append to the program (possibly empty); non-empty
// fragments always end in a newline.
//
// A Writer must be driven by one goroutine at a time. Independent passes
// use independent writers; Clone seeds a new pass from the state of a
// finished one.
package gcode

import (
	"github.com/go-gl/mathgl/mgl64"

	"gcodewriter/pkg/errors"
	"gcodewriter/pkg/flavor"
	"gcodewriter/pkg/log"
	"gcodewriter/pkg/tool"
)

// Epsilon is the tolerance used for lift bookkeeping.
const Epsilon = 1e-4

// PausePrintCode is the command a caller inserts to pause the print.
const PausePrintCode = "M601"

// Config is the session configuration.
type Config struct {
	Flavor   flavor.Flavor
	Comments bool
	// RelativeE selects M83 relative extrusion distances.
	RelativeE          bool
	FirmwareRetraction bool
	// VolumetricE expresses retraction lengths as filament volume.
	VolumetricE bool
	// TravelSpeed in mm/s.
	TravelSpeed float64
	// ExtrusionAxis overrides "E" for flavors that do not force an axis.
	ExtrusionAxis string
	// SingleExtruderMultiMaterial drops tool suffixes on temperature
	// commands since all tools share one hotend.
	SingleExtruderMultiMaterial bool
	// MaxAcceleration clamps SetAcceleration on flavors that honour
	// machine limits. 0 disables the clamp.
	MaxAcceleration uint
}

// DefaultConfig returns a Marlin configuration with absolute E distances.
func DefaultConfig() Config {
	return Config{
		Flavor:      flavor.Marlin,
		TravelSpeed: 130,
	}
}

// Writer renders G-code for one session.
type Writer struct {
	cfg     Config
	dialect flavor.Dialect
	logger  *log.Logger

	tools         *tool.Set
	tool          tool.Tool
	multipleTools bool
	extrusionAxis string
	maxAccel      uint

	pos       mgl64.Vec3
	lifted    float64
	extraLift float64

	lastAcceleration   uint
	lastFanSpeed       uint
	lastBedTemperature uint
	lastBedTempReached bool
	lastSpeed          float64
}

// NewWriter validates cfg and creates a writer for the given tools.
func NewWriter(cfg Config, tools *tool.Set) (*Writer, error) {
	if !cfg.Flavor.Valid() {
		return nil, errors.UnknownFlavorError(cfg.Flavor.String())
	}
	if cfg.TravelSpeed <= 0 {
		return nil, errors.ConfigValidationError("gcode", "travel_speed", "must be above 0")
	}
	if tools == nil {
		tools = tool.NewSet(nil, nil)
	}

	d := flavor.Lookup(cfg.Flavor)
	w := &Writer{
		cfg:                cfg,
		dialect:            d,
		logger:             log.GetLogger("gcode"),
		extrusionAxis:      d.ExtrusionAxis,
		lastBedTempReached: true,
	}
	if w.extrusionAxis == "E" && cfg.ExtrusionAxis != "" {
		w.extrusionAxis = cfg.ExtrusionAxis
	}
	if d.ClampAcceleration {
		w.maxAccel = cfg.MaxAcceleration
	}
	w.SetTools(tools)
	return w, nil
}

// SetTools declares the tool set. Declaring more than one tool index
// turns on tool-select output for the rest of the session.
func (w *Writer) SetTools(tools *tool.Set) {
	w.tools = tools
	w.tool = nil
	w.multipleTools = w.multipleTools || tools.NeedsToolSelect()
}

// SetLogger replaces the diagnostic logger.
func (w *Writer) SetLogger(l *log.Logger) {
	w.logger = l
}

// Clone returns an independent copy of the session, including deep
// copies of the tools, for seeding a following pass.
func (w *Writer) Clone() *Writer {
	c := *w
	c.tools = w.tools.Clone()
	if w.tool != nil {
		c.tool, _ = c.tools.Lookup(w.tool.ID())
	}
	return &c
}

// Config returns the session configuration.
func (w *Writer) Config() Config { return w.cfg }

// Dialect returns the formatting rules in effect.
func (w *Writer) Dialect() flavor.Dialect { return w.dialect }

// Tools returns the declared tools.
func (w *Writer) Tools() *tool.Set { return w.tools }

// Tool returns the active tool, or nil before the first tool change.
func (w *Writer) Tool() tool.Tool { return w.tool }

// MultipleTools reports whether tool-select commands are written.
func (w *Writer) MultipleTools() bool { return w.multipleTools }

// ExtrusionAxis returns the axis letter used for filament moves.
func (w *Writer) ExtrusionAxis() string { return w.extrusionAxis }

// Position returns the last commanded position, including any lift.
func (w *Writer) Position() mgl64.Vec3 { return w.pos }

// Lifted returns the pending lift amount; 0 means settled.
func (w *Writer) Lifted() float64 { return w.lifted }

// ToolIsExtruder reports whether the active tool is an extruder.
func (w *Writer) ToolIsExtruder() bool {
	_, ok := w.tool.(*tool.Extruder)
	return ok
}

// SetExtraLift adds mm to the next lift only.
func (w *Writer) SetExtraLift(mm float64) {
	w.extraLift = mm
}

func (w *Writer) requireTool(op string) tool.Tool {
	if w.tool == nil {
		panic(errors.ContractViolation(op, "no active tool selected"))
	}
	return w.tool
}
