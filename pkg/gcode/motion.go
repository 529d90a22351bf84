package gcode

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"gcodewriter/pkg/errors"
	"gcodewriter/pkg/flavor"
)

// Feed rates at or above this are treated as a unit mix-up by the caller.
const maxFeedRate = 100000

// SetSpeed sets the feed rate in mm/min. It is always written. A rate
// outside (0, 100000) panics with a contract violation.
func (w *Writer) SetSpeed(f float64, comment, coolingMarker string) string {
	if !(f > 0 && f < maxFeedRate) {
		panic(errors.ContractViolation("set_speed", fmt.Sprintf("feed rate %g outside (0, %d)", f, maxFeedRate)))
	}
	w.lastSpeed = f

	l := w.newLine()
	if w.laser() {
		l.str("dt=")
		l.buf.AppendFixed(f, 3)
		return l.end().finish()
	}
	l.str("G1").xyzf("F", f).comment(comment).str(coolingMarker).end()
	return l.finish()
}

// TravelToXY moves in the XY plane at travel speed.
func (w *Writer) TravelToXY(p mgl64.Vec2, comment string) string {
	w.pos[0], w.pos[1] = p.X(), p.Y()
	if w.laser() {
		return w.laserPoint(p, laserPowerOff, w.cfg.TravelSpeed)
	}
	l := w.newLine()
	l.str("G1").xyzf("X", p.X()).xyzf("Y", p.Y()).xyzf("F", w.cfg.TravelSpeed*60).comment(comment).end()
	return l.finish()
}

// TravelToXYZ moves to p at travel speed. A target Z inside the pending
// lift is absorbed into the lift bookkeeping and only XY is moved.
func (w *Writer) TravelToXYZ(p mgl64.Vec3, comment string) string {
	if !w.WillMoveZ(p.Z()) {
		w.absorbLift(p.Z())
		return w.TravelToXY(p.Vec2(), comment)
	}

	w.lifted = 0
	if w.laser() {
		z := ""
		if p.Z() != w.pos.Z() {
			z = w.travelToZ(p.Z(), comment)
		}
		w.pos = p
		return z + w.laserPoint(p.Vec2(), laserPowerOff, w.cfg.TravelSpeed)
	}
	w.pos = p
	l := w.newLine()
	l.str("G1").xyzf("X", p.X()).xyzf("Y", p.Y()).xyzf("Z", p.Z()).xyzf("F", w.cfg.TravelSpeed*60).comment(comment).end()
	return l.finish()
}

// TravelToZ moves Z only, with the same lift absorption as TravelToXYZ.
func (w *Writer) TravelToZ(z float64, comment string) string {
	if !w.WillMoveZ(z) {
		w.absorbLift(z)
		return ""
	}
	w.lifted = 0
	return w.travelToZ(z, comment)
}

// WillMoveZ reports whether travelling to z needs a physical Z move. A
// z between the nominal layer height and the lifted height does not.
func (w *Writer) WillMoveZ(z float64) bool {
	if w.lifted > 0 {
		nominal := w.pos.Z() - w.lifted
		if z >= nominal && z <= w.pos.Z() {
			return false
		}
	}
	return true
}

// absorbLift lowers the nominal height to z without moving.
func (w *Writer) absorbLift(z float64) {
	nominal := w.pos.Z() - w.lifted
	w.lifted -= z - nominal
	// Snap float residue so a later Lift is not skipped.
	if math.Abs(w.lifted) < Epsilon {
		w.lifted = 0
	}
}

func (w *Writer) travelToZ(z float64, comment string) string {
	w.pos[2] = z
	l := w.newLine()
	if w.laser() {
		l.str("0x04 ZFeedRate ")
		l.buf.AppendFixed(w.lastSpeed, 3)
		l.str("\n0x03 ZMove ")
		l.buf.AppendFixed(z, 3)
		return l.end().finish()
	}
	l.str("G1").xyzf("Z", z).xyzf("F", w.cfg.TravelSpeed*60).comment(comment).end()
	return l.finish()
}

// ExtrudeToXY moves in the XY plane while the active tool extrudes dE.
// The extrusion term is left out when the tool applied no filament.
func (w *Writer) ExtrudeToXY(p mgl64.Vec2, dE float64, comment string) string {
	t := w.requireTool("extrude_to_xy")
	w.pos[0], w.pos[1] = p.X(), p.Y()
	extruding := t.Extrude(dE) != 0

	if w.laser() {
		return w.laserPoint(p, laserPowerOn, w.lastSpeed)
	}
	l := w.newLine()
	l.str("G1").xyzf("X", p.X()).xyzf("Y", p.Y())
	if extruding && w.extrusionAxis != "" {
		l.e(t.E())
	}
	l.comment(comment).end()
	return l.finish()
}

// ExtrudeToXYZ moves to p while extruding dE and settles any lift.
func (w *Writer) ExtrudeToXYZ(p mgl64.Vec3, dE float64, comment string) string {
	t := w.requireTool("extrude_to_xyz")
	extruding := t.Extrude(dE) != 0
	w.lifted = 0

	if w.laser() {
		z := ""
		if p.Z() != w.pos.Z() {
			z = w.travelToZ(p.Z(), comment)
		}
		w.pos = p
		return z + w.laserPoint(p.Vec2(), laserPowerOn, w.lastSpeed)
	}
	w.pos = p
	l := w.newLine()
	l.str("G1").xyzf("X", p.X()).xyzf("Y", p.Y()).xyzf("Z", p.Z())
	if extruding && w.extrusionAxis != "" {
		l.e(t.E())
	}
	l.comment(comment).end()
	return l.finish()
}

// Lift raises Z by the active tool's lift, plus any extra lift set with
// SetExtraLift. Extruders only lift inside their configured Z band; mills
// always lift. A lift that is already pending is not stacked.
func (w *Writer) Lift() string {
	t := w.requireTool("lift")

	var target float64
	if w.ToolIsExtruder() {
		above, below := t.RetractLiftAbove(), t.RetractLiftBelow()
		if z := w.pos.Z(); z >= above && (below == 0 || z <= below) {
			target = t.RetractLift()
		}
	} else {
		target = t.RetractLift()
	}
	if w.extraLift > 0 {
		target += w.extraLift
		w.extraLift = 0
	}

	if math.Abs(w.lifted) < Epsilon && target > 0 {
		w.lifted = target
		return w.travelToZ(w.pos.Z()+target, "lift Z")
	}
	return ""
}

// Unlift lowers Z by the pending lift.
func (w *Writer) Unlift() string {
	var s string
	if w.lifted > 0 {
		s = w.travelToZ(w.pos.Z()-w.lifted, "restore layer Z")
	}
	w.lifted = 0
	return s
}

func (w *Writer) laser() bool {
	return w.dialect.Motion == flavor.MotionLaser
}
