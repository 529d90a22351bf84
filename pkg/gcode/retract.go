package gcode

import (
	"fmt"
	"math"

	"gcodewriter/pkg/errors"
)

// Retract pulls filament back by the active tool's retract length. With
// beforeWipe only the configured fraction is retracted; the rest is left
// to the wipe move.
func (w *Writer) Retract(beforeWipe bool) string {
	t := w.requireTool("retract")
	factor := w.wipeFactor(beforeWipe)
	return w.retract(factor*t.RetractLength(), factor*t.RetractRestartExtra(), "retract")
}

// RetractForToolchange retracts by the longer toolchange length.
func (w *Writer) RetractForToolchange(beforeWipe bool) string {
	t := w.requireTool("retract_for_toolchange")
	factor := w.wipeFactor(beforeWipe)
	return w.retract(factor*t.RetractLengthToolchange(), factor*t.RetractRestartExtraToolchange(), "retract for toolchange")
}

func (w *Writer) wipeFactor(beforeWipe bool) float64 {
	if !beforeWipe {
		return 1
	}
	f := w.tool.RetractBeforeWipe()
	if f < 0 || f > 1+Epsilon {
		panic(errors.ContractViolation("retract", fmt.Sprintf("retract_before_wipe fraction %g outside [0, 1]", f)))
	}
	return f
}

func (w *Writer) retract(length, restartExtra float64, comment string) string {
	t := w.tool
	if w.cfg.FirmwareRetraction {
		// The firmware owns the distance; only the state change is tracked.
		length = 1
	}
	if w.cfg.VolumetricE {
		d := t.FilamentDiameter()
		area := d * d * math.Pi / 4
		length *= area
		restartExtra *= area
	}

	l := w.newLine()
	if dE := t.Retract(length, restartExtra); dE != 0 {
		if w.cfg.FirmwareRetraction {
			l.str(w.dialect.RetractCode).str(" ; retract\n")
		} else if w.extrusionAxis != "" {
			l.str("G1").e(t.E()).str(" F").shortest(t.RetractSpeed() * 60).comment(comment).end()
		}
	}
	if w.dialect.ToggleExtruder {
		l.str("M103 ; extruder off\n")
	}
	return l.finish()
}

// Unretract restores the filament retracted since the last unretract,
// plus any restart extra.
func (w *Writer) Unretract() string {
	t := w.requireTool("unretract")

	l := w.newLine()
	if w.dialect.ToggleExtruder {
		l.str("M101 ; extruder on\n")
	}
	if dE := t.Unretract(); dE != 0 {
		if w.cfg.FirmwareRetraction {
			l.str(w.dialect.UnretractCode).str(" ; unretract\n")
			l.str(w.ResetE(false))
		} else if w.extrusionAxis != "" {
			// G1 rather than G0 so the restart is not blended into the travel.
			l.str("G1").e(t.E()).str(" F").shortest(t.DeretractSpeed() * 60).comment("unretract").end()
		}
	}
	return l.finish()
}
