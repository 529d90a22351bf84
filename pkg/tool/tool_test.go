package tool

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtruderAbsoluteAccounting(t *testing.T) {
	x := NewExtruder(0, DefaultParams(), false)

	assert.Equal(t, 1.5, x.Extrude(1.5))
	assert.Equal(t, 0.5, x.Extrude(0.5))
	assert.InDelta(t, 2.0, x.E(), 1e-12)
	assert.InDelta(t, 2.0, x.AbsoluteE(), 1e-12)

	x.ResetE()
	assert.Zero(t, x.E())
	assert.InDelta(t, 2.0, x.AbsoluteE(), 1e-12)
}

func TestExtruderRelativeAccounting(t *testing.T) {
	x := NewExtruder(0, DefaultParams(), true)

	x.Extrude(1.5)
	x.Extrude(0.25)
	assert.InDelta(t, 0.25, x.E(), 1e-12)
	assert.InDelta(t, 1.75, x.AbsoluteE(), 1e-12)
}

func TestExtruderRetractIsIdempotent(t *testing.T) {
	x := NewExtruder(0, DefaultParams(), false)
	x.Extrude(10)

	assert.InDelta(t, 2.0, x.Retract(2, 0.1), 1e-12)
	assert.InDelta(t, 8.0, x.E(), 1e-12)
	assert.InDelta(t, 2.0, x.Retracted(), 1e-12)

	// Already retracted that far.
	assert.Zero(t, x.Retract(2, 0.1))
	// Only the missing part is applied for a longer request.
	assert.InDelta(t, 1.0, x.Retract(3, 0), 1e-12)
	assert.InDelta(t, 7.0, x.E(), 1e-12)
}

func TestExtruderUnretract(t *testing.T) {
	x := NewExtruder(0, DefaultParams(), false)
	x.Extrude(10)
	x.Retract(2, 0.5)

	assert.InDelta(t, 2.5, x.Unretract(), 1e-12)
	assert.Zero(t, x.Retracted())
	assert.InDelta(t, 10.5, x.E(), 1e-12)

	assert.Zero(t, x.Unretract())
}

func TestExtruderUsedFilament(t *testing.T) {
	p := DefaultParams()
	x := NewExtruder(0, p, false)
	x.Extrude(10)
	x.Retract(2, 0)

	assert.InDelta(t, 10.0, x.UsedFilament(), 1e-12)
	area := 1.75 * 1.75 * math.Pi / 4
	assert.InDelta(t, 10*area, x.ExtrudedVolume(), 1e-9)
}

func TestDeretractSpeedFallback(t *testing.T) {
	p := DefaultParams()
	x := NewExtruder(0, p, false)
	assert.Equal(t, 40.0, x.DeretractSpeed())

	p.DeretractSpeed = 25
	x = NewExtruder(0, p, false)
	assert.Equal(t, 25.0, x.DeretractSpeed())
}

func TestMillNeverMovesFilament(t *testing.T) {
	m := NewMill(3, 1.5)
	assert.Zero(t, m.Extrude(4))
	assert.Zero(t, m.Retract(2, 1))
	assert.Zero(t, m.Unretract())
	assert.Zero(t, m.E())
	assert.Equal(t, 1.5, m.RetractLift())
}

func TestSetLookup(t *testing.T) {
	s := NewSet(
		[]*Extruder{
			NewExtruder(1, DefaultParams(), false),
			NewExtruder(0, DefaultParams(), false),
		},
		[]*Mill{NewMill(2, 1)},
	)

	require.Equal(t, 3, s.Len())
	assert.Equal(t, uint16(0), s.Extruders()[0].ID())

	tl, ok := s.Lookup(2)
	require.True(t, ok)
	assert.IsType(t, &Mill{}, tl)

	tl, ok = s.Lookup(1)
	require.True(t, ok)
	assert.IsType(t, &Extruder{}, tl)

	_, ok = s.Lookup(9)
	assert.False(t, ok)
}

func TestSetFirstMill(t *testing.T) {
	s := NewSet([]*Extruder{NewExtruder(0, DefaultParams(), false), NewExtruder(3, DefaultParams(), false)}, nil)
	assert.Equal(t, uint16(4), s.FirstMill())

	s = NewSet([]*Extruder{NewExtruder(0, DefaultParams(), false)}, []*Mill{NewMill(5, 0), NewMill(2, 0)})
	assert.Equal(t, uint16(2), s.FirstMill())

	s = NewSet([]*Extruder{NewExtruder(math.MaxUint16, DefaultParams(), false)}, nil)
	assert.Equal(t, uint16(math.MaxUint16), s.FirstMill())
}

func TestSetNeedsToolSelect(t *testing.T) {
	single := NewSet([]*Extruder{NewExtruder(0, DefaultParams(), false)}, nil)
	assert.False(t, single.NeedsToolSelect())

	onlyT1 := NewSet([]*Extruder{NewExtruder(1, DefaultParams(), false)}, nil)
	assert.False(t, onlyT1.NeedsToolSelect())

	onlyMill := NewSet(nil, []*Mill{NewMill(0, 1)})
	assert.False(t, onlyMill.NeedsToolSelect())

	two := NewSet([]*Extruder{NewExtruder(0, DefaultParams(), false), NewExtruder(1, DefaultParams(), false)}, nil)
	assert.True(t, two.NeedsToolSelect())

	withMill := NewSet([]*Extruder{NewExtruder(0, DefaultParams(), false)}, []*Mill{NewMill(1, 0)})
	assert.True(t, withMill.NeedsToolSelect())
}
