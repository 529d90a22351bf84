// Package tool models the print heads a G-code writer drives: extruders,
// which account for filament moved in and out of the nozzle, and milling
// heads, which only carry a travel lift.
package tool

import (
	"math"
	"sort"
)

// Tool is an extruder or milling head.
type Tool interface {
	ID() uint16

	// Extrude applies dE to the E accumulator and returns the applied delta.
	Extrude(dE float64) float64
	// Retract pulls filament back up to length and returns the applied
	// (negative-direction) amount, 0 when already retracted that far.
	Retract(length, restartExtra float64) float64
	// Unretract restores retracted filament plus any restart extra.
	Unretract() float64

	E() float64
	ResetE()
	AbsoluteE() float64
	Retracted() float64
	UsedFilament() float64
	ExtrudedVolume() float64

	RetractLength() float64
	RetractRestartExtra() float64
	RetractLengthToolchange() float64
	RetractRestartExtraToolchange() float64
	RetractSpeed() float64
	DeretractSpeed() float64
	RetractLift() float64
	RetractLiftAbove() float64
	RetractLiftBelow() float64
	RetractBeforeWipe() float64
	FilamentDiameter() float64
}

// Params is the static configuration of one tool. Lengths are in mm,
// speeds in mm/s.
type Params struct {
	RetractLength                 float64
	RetractRestartExtra           float64
	RetractLengthToolchange       float64
	RetractRestartExtraToolchange float64
	RetractSpeed                  float64
	DeretractSpeed                float64
	RetractLift                   float64
	RetractLiftAbove              float64
	RetractLiftBelow              float64
	// RetractBeforeWipe is the fraction (0..1) retracted before a wipe.
	RetractBeforeWipe float64
	FilamentDiameter  float64
}

// DefaultParams mirrors common single-extruder defaults.
func DefaultParams() Params {
	return Params{
		RetractLength:           2,
		RetractLengthToolchange: 10,
		RetractSpeed:            40,
		FilamentDiameter:        1.75,
	}
}

// Extruder accounts for filament on one extruder.
type Extruder struct {
	id           uint16
	params       Params
	relativeE    bool
	e            float64
	absoluteE    float64
	retracted    float64
	restartExtra float64
}

// NewExtruder creates an extruder. With relativeE the E accumulator is
// zeroed before every change so E() always reports the last delta.
func NewExtruder(id uint16, params Params, relativeE bool) *Extruder {
	return &Extruder{id: id, params: params, relativeE: relativeE}
}

func (x *Extruder) ID() uint16 { return x.id }

func (x *Extruder) Extrude(dE float64) float64 {
	if x.relativeE {
		x.e = 0
	}
	x.e += dE
	x.absoluteE += dE
	if dE < 0 {
		x.retracted -= dE
	}
	return dE
}

func (x *Extruder) Retract(length, restartExtra float64) float64 {
	if x.relativeE {
		x.e = 0
	}
	toRetract := math.Max(0, length-x.retracted)
	if toRetract > 0 {
		x.e -= toRetract
		x.absoluteE -= toRetract
		x.retracted += toRetract
		x.restartExtra = restartExtra
	}
	return toRetract
}

func (x *Extruder) Unretract() float64 {
	dE := x.retracted + x.restartExtra
	x.Extrude(dE)
	x.retracted = 0
	x.restartExtra = 0
	return dE
}

func (x *Extruder) E() float64 { return x.e }
func (x *Extruder) ResetE() { x.e = 0 }
func (x *Extruder) AbsoluteE() float64 { return x.absoluteE }
func (x *Extruder) Retracted() float64 { return x.retracted }

// UsedFilament is the net filament length consumed, excluding what is
// currently retracted.
func (x *Extruder) UsedFilament() float64 {
	return x.absoluteE + x.retracted
}

// ExtrudedVolume converts UsedFilament to mm³.
func (x *Extruder) ExtrudedVolume() float64 {
	d := x.params.FilamentDiameter
	return x.UsedFilament() * d * d * math.Pi / 4
}

func (x *Extruder) RetractLength() float64 { return x.params.RetractLength }
func (x *Extruder) RetractRestartExtra() float64 { return x.params.RetractRestartExtra }
func (x *Extruder) RetractLengthToolchange() float64 {
	return x.params.RetractLengthToolchange
}
func (x *Extruder) RetractRestartExtraToolchange() float64 {
	return x.params.RetractRestartExtraToolchange
}
func (x *Extruder) RetractSpeed() float64 { return x.params.RetractSpeed }

// DeretractSpeed falls back to RetractSpeed when unset.
func (x *Extruder) DeretractSpeed() float64 {
	if x.params.DeretractSpeed > 0 {
		return x.params.DeretractSpeed
	}
	return x.params.RetractSpeed
}

func (x *Extruder) RetractLift() float64 { return x.params.RetractLift }
func (x *Extruder) RetractLiftAbove() float64 { return x.params.RetractLiftAbove }
func (x *Extruder) RetractLiftBelow() float64 { return x.params.RetractLiftBelow }
func (x *Extruder) RetractBeforeWipe() float64 { return x.params.RetractBeforeWipe }
func (x *Extruder) FilamentDiameter() float64 { return x.params.FilamentDiameter }

// Mill is a milling head. It never moves filament.
type Mill struct {
	id   uint16
	lift float64
}

// NewMill creates a milling head that lifts by zLift on travel.
func NewMill(id uint16, zLift float64) *Mill {
	return &Mill{id: id, lift: zLift}
}

func (m *Mill) ID() uint16 { return m.id }
func (m *Mill) Extrude(float64) float64 { return 0 }
func (m *Mill) Retract(float64, float64) float64 { return 0 }
func (m *Mill) Unretract() float64 { return 0 }
func (m *Mill) E() float64 { return 0 }
func (m *Mill) ResetE() {}
func (m *Mill) AbsoluteE() float64 { return 0 }
func (m *Mill) Retracted() float64 { return 0 }
func (m *Mill) UsedFilament() float64 { return 0 }
func (m *Mill) ExtrudedVolume() float64 { return 0 }
func (m *Mill) RetractLength() float64 { return 0 }
func (m *Mill) RetractRestartExtra() float64 { return 0 }
func (m *Mill) RetractLengthToolchange() float64 { return 0 }
func (m *Mill) RetractRestartExtraToolchange() float64 { return 0 }
func (m *Mill) RetractSpeed() float64 { return 0 }
func (m *Mill) DeretractSpeed() float64 { return 0 }
func (m *Mill) RetractLift() float64 { return m.lift }
func (m *Mill) RetractLiftAbove() float64 { return 0 }
func (m *Mill) RetractLiftBelow() float64 { return 0 }
func (m *Mill) RetractBeforeWipe() float64 { return 0 }
func (m *Mill) FilamentDiameter() float64 { return 0 }

// Set is the fixed collection of tools declared for a session.
type Set struct {
	extruders []*Extruder
	mills     []*Mill
}

// NewSet sorts both groups by id.
func NewSet(extruders []*Extruder, mills []*Mill) *Set {
	s := &Set{
		extruders: append([]*Extruder(nil), extruders...),
		mills:     append([]*Mill(nil), mills...),
	}
	sort.Slice(s.extruders, func(i, j int) bool { return s.extruders[i].id < s.extruders[j].id })
	sort.Slice(s.mills, func(i, j int) bool { return s.mills[i].id < s.mills[j].id })
	return s
}

// Clone deep-copies every tool so the copy accumulates independently.
func (s *Set) Clone() *Set {
	c := &Set{
		extruders: make([]*Extruder, len(s.extruders)),
		mills:     make([]*Mill, len(s.mills)),
	}
	for i, x := range s.extruders {
		cp := *x
		c.extruders[i] = &cp
	}
	for i, m := range s.mills {
		cp := *m
		c.mills[i] = &cp
	}
	return c
}

// Extruders returns the extruders sorted by id.
func (s *Set) Extruders() []*Extruder { return s.extruders }

// Mills returns the mills sorted by id.
func (s *Set) Mills() []*Mill { return s.mills }

// Len is the total number of tools.
func (s *Set) Len() int { return len(s.extruders) + len(s.mills) }

// Lookup finds a tool by id, searching extruders before mills.
func (s *Set) Lookup(id uint16) (Tool, bool) {
	for _, x := range s.extruders {
		if x.id == id {
			return x, true
		}
	}
	for _, m := range s.mills {
		if m.id == id {
			return m, true
		}
	}
	return nil, false
}

// FirstMill returns the id of the first mill, or one past the highest
// extruder id when there are no mills. It saturates at 65535.
func (s *Set) FirstMill() uint16 {
	if len(s.mills) > 0 {
		return s.mills[0].id
	}
	var highest uint16
	for _, x := range s.extruders {
		if x.id > highest {
			highest = x.id
		}
	}
	if highest == math.MaxUint16 {
		return highest
	}
	return highest + 1
}

// NeedsToolSelect reports whether tool-select commands must be written,
// which is when more than one tool index is declared.
func (s *Set) NeedsToolSelect() bool {
	return s.Len() > 1
}
