package gcode

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gcodewriter/pkg/errors"
	"gcodewriter/pkg/flavor"
	"gcodewriter/pkg/tool"
)

func singleExtruder(params tool.Params) *tool.Set {
	return tool.NewSet([]*tool.Extruder{tool.NewExtruder(0, params, false)}, nil)
}

func newTestWriter(t *testing.T, cfg Config, tools *tool.Set) *Writer {
	t.Helper()
	w, err := NewWriter(cfg, tools)
	require.NoError(t, err)
	return w
}

// newLiftedWriter returns a writer at z=10 with a pending lift of 2.
func newLiftedWriter(t *testing.T) *Writer {
	t.Helper()
	p := tool.DefaultParams()
	p.RetractLift = 2
	w := newTestWriter(t, DefaultConfig(), singleExtruder(p))
	w.Toolchange(0)
	w.TravelToXYZ(mgl64.Vec3{0, 0, 8}, "")
	require.Equal(t, "G1 Z10.000 F7800.000\n", w.Lift())
	require.Equal(t, 2.0, w.Lifted())
	require.Equal(t, 10.0, w.Position().Z())
	return w
}

func TestNewWriterRejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Flavor = flavor.Flavor(99)
	_, err := NewWriter(cfg, nil)
	require.Error(t, err)
	assert.True(t, errors.IsConfig(err))

	cfg = DefaultConfig()
	cfg.TravelSpeed = 0
	_, err = NewWriter(cfg, nil)
	assert.True(t, errors.IsConfig(err))
}

func TestFanSuppression(t *testing.T) {
	w := newTestWriter(t, DefaultConfig(), nil)

	assert.Equal(t, "M106 S127.5\n", w.SetFan(50, false))
	assert.Empty(t, w.SetFan(50, false))
	assert.Equal(t, "M106 S127.5\n", w.SetFan(50, true))
	assert.Equal(t, "M106 S127.5\n", w.SetFan(50, true))

	assert.Equal(t, "M107\n", w.SetFan(0, false))
	assert.Empty(t, w.SetFan(0, false))
	assert.Equal(t, "M106 S255\n", w.SetFan(150, false))
}

func TestForcedFanDoesNotUpdateCache(t *testing.T) {
	w := newTestWriter(t, DefaultConfig(), nil)

	assert.Equal(t, "M106 S255\n", w.SetFan(100, true))
	// The forced value was not recorded, so 100 is still a change.
	assert.Equal(t, "M106 S255\n", w.SetFan(100, false))
	assert.Empty(t, w.SetFan(100, false))
}

func TestLiftUnliftRoundTrip(t *testing.T) {
	p := tool.DefaultParams()
	p.RetractLift = 0.4
	w := newTestWriter(t, DefaultConfig(), singleExtruder(p))
	w.Toolchange(0)
	w.TravelToXYZ(mgl64.Vec3{10, 10, 0.3}, "")

	assert.Equal(t, "G1 Z0.700 F7800.000\n", w.Lift())
	assert.InDelta(t, 0.4, w.Lifted(), 1e-12)

	assert.Equal(t, "G1 Z0.300 F7800.000\n", w.Unlift())
	assert.InDelta(t, 0.3, w.Position().Z(), 1e-12)
	assert.Zero(t, w.Lifted())

	assert.Empty(t, w.Unlift())
}

func TestSinglePendingLift(t *testing.T) {
	w := newLiftedWriter(t)

	assert.Empty(t, w.Lift())
	assert.Equal(t, 2.0, w.Lifted())
	assert.Equal(t, 10.0, w.Position().Z())
}

func TestTravelWhileLiftedIsAbsorbed(t *testing.T) {
	w := newLiftedWriter(t)

	assert.False(t, w.WillMoveZ(9))
	assert.Empty(t, w.TravelToZ(9, ""))
	assert.InDelta(t, 1.0, w.Lifted(), 1e-12)

	// Unlift now only has the remaining millimetre to undo.
	assert.Equal(t, "G1 Z9.000 F7800.000\n", w.Unlift())
}

func TestTravelXYZWhileLiftedMovesOnlyXY(t *testing.T) {
	w := newLiftedWriter(t)

	out := w.TravelToXYZ(mgl64.Vec3{5, 6, 8.5}, "")
	assert.Equal(t, "G1 X5.000 Y6.000 F7800.000\n", out)
	assert.NotContains(t, out, "Z")
	assert.InDelta(t, 1.5, w.Lifted(), 1e-12)
}

func TestAbsorbedLiftSnapsToZero(t *testing.T) {
	w := newLiftedWriter(t)

	assert.Empty(t, w.TravelToZ(10-0.00001, ""))
	assert.Zero(t, w.Lifted())
	// Settled again, so the next lift is honoured.
	assert.NotEmpty(t, w.Lift())
}

func TestTravelOutsideLiftBandMoves(t *testing.T) {
	w := newLiftedWriter(t)

	assert.True(t, w.WillMoveZ(12))
	assert.Equal(t, "G1 Z12.000 F7800.000\n", w.TravelToZ(12, ""))
	assert.Zero(t, w.Lifted())
}

func TestLiftBand(t *testing.T) {
	p := tool.DefaultParams()
	p.RetractLift = 1
	p.RetractLiftAbove = 1
	p.RetractLiftBelow = 5
	w := newTestWriter(t, DefaultConfig(), singleExtruder(p))
	w.Toolchange(0)

	w.TravelToZ(0.5, "")
	assert.Empty(t, w.Lift())

	w.TravelToZ(6, "")
	assert.Empty(t, w.Lift())

	w.TravelToZ(2, "")
	assert.Equal(t, "G1 Z3.000 F7800.000\n", w.Lift())
}

func TestExtraLiftIsOneShot(t *testing.T) {
	w := newTestWriter(t, DefaultConfig(), singleExtruder(tool.DefaultParams()))
	w.Toolchange(0)
	w.TravelToZ(1, "")

	w.SetExtraLift(0.5)
	assert.Equal(t, "G1 Z1.500 F7800.000\n", w.Lift())
	w.Unlift()
	assert.Empty(t, w.Lift())
}

func TestMillAlwaysLifts(t *testing.T) {
	tools := tool.NewSet(
		[]*tool.Extruder{tool.NewExtruder(0, tool.DefaultParams(), false)},
		[]*tool.Mill{tool.NewMill(1, 3)},
	)
	w := newTestWriter(t, DefaultConfig(), tools)
	w.Toolchange(1)
	assert.False(t, w.ToolIsExtruder())

	assert.Equal(t, "G1 Z3.000 F7800.000\n", w.Lift())
}

func TestExtruderAtHighestIDKeepsLiftBand(t *testing.T) {
	p := tool.DefaultParams()
	p.RetractLift = 1
	p.RetractLiftAbove = 5
	w := newTestWriter(t, DefaultConfig(), tool.NewSet([]*tool.Extruder{tool.NewExtruder(65535, p, false)}, nil))
	w.Toolchange(65535)
	require.True(t, w.ToolIsExtruder())

	assert.Empty(t, w.Lift())
}

func TestAccelerationClamp(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxAcceleration = 1000
	w := newTestWriter(t, cfg, nil)

	assert.Equal(t, "M204 S1000\n", w.SetAcceleration(5000))
	assert.Empty(t, w.SetAcceleration(1000))
	assert.Empty(t, w.SetAcceleration(0))
	assert.Equal(t, "M204 S800\n", w.SetAcceleration(800))
}

func TestAccelerationNotClampedOnSmoothie(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Flavor = flavor.Smoothie
	cfg.MaxAcceleration = 1000
	w := newTestWriter(t, cfg, nil)

	assert.Equal(t, "M204 S5000\n", w.SetAcceleration(5000))
}

func TestRepetierAcceleration(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Flavor = flavor.Repetier
	cfg.Comments = true
	w := newTestWriter(t, cfg, nil)

	assert.Equal(t,
		"M201 X1500 Y1500 ; adjust acceleration\nM202 X1500 Y1500 ; adjust acceleration\n",
		w.SetAcceleration(1500))
}

func TestToolchangeWithSingleTool(t *testing.T) {
	w := newTestWriter(t, DefaultConfig(), singleExtruder(tool.DefaultParams()))
	assert.False(t, w.MultipleTools())

	for i := 0; i < 3; i++ {
		assert.Empty(t, w.Toolchange(0))
	}
	require.NotNil(t, w.Tool())
	assert.Equal(t, uint16(0), w.Tool().ID())

	// The active tool is in effect: extrusion is accounted on it.
	assert.Equal(t, "G1 X1.000 Y1.000 E0.50000\n", w.ExtrudeToXY(mgl64.Vec2{1, 1}, 0.5, ""))
	assert.InDelta(t, 0.5, w.Tool().E(), 1e-12)
}

func TestToolchangeWithMultipleTools(t *testing.T) {
	tools := tool.NewSet([]*tool.Extruder{
		tool.NewExtruder(0, tool.DefaultParams(), false),
		tool.NewExtruder(1, tool.DefaultParams(), false),
	}, nil)
	cfg := DefaultConfig()
	cfg.Comments = true
	w := newTestWriter(t, cfg, tools)
	require.True(t, w.MultipleTools())

	assert.Equal(t, "T1 ; change extruder\nG92 E0 ; reset extrusion distance\n", w.Toolchange(1))
	assert.Empty(t, w.SetTool(1))
	assert.True(t, w.NeedToolchange(0))
}

func TestToolchangePrefixPerFlavor(t *testing.T) {
	tools := tool.NewSet([]*tool.Extruder{
		tool.NewExtruder(0, tool.DefaultParams(), false),
		tool.NewExtruder(1, tool.DefaultParams(), false),
	}, nil)
	tests := []struct {
		flavor flavor.Flavor
		want   string
	}{
		{flavor.Marlin, "T1\nG92 E0\n"},
		{flavor.Klipper, "ACTIVATE_EXTRUDER EXTRUDER=extruder1\nG92 E0\n"},
		{flavor.MakerWare, "M135 T1\n"},
		{flavor.Sailfish, "M108 T1\n"},
		{flavor.Mach3, "T1\n"},
		{flavor.Machinekit, "T1\nG92 A0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.flavor.String(), func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Flavor = tt.flavor
			w := newTestWriter(t, cfg, tools.Clone())
			assert.Equal(t, tt.want, w.Toolchange(1))
		})
	}
}

func TestToolchangeUnknownToolKeepsActive(t *testing.T) {
	w := newTestWriter(t, DefaultConfig(), singleExtruder(tool.DefaultParams()))
	w.Toolchange(0)

	assert.Empty(t, w.Toolchange(7))
	require.NotNil(t, w.Tool())
	assert.Equal(t, uint16(0), w.Tool().ID())
}

func TestToolchangeWithSingleNonZeroTool(t *testing.T) {
	tests := []struct {
		name  string
		tools *tool.Set
		id    uint16
	}{
		{"extruder 1", tool.NewSet([]*tool.Extruder{tool.NewExtruder(1, tool.DefaultParams(), false)}, nil), 1},
		{"mill 0", tool.NewSet(nil, []*tool.Mill{tool.NewMill(0, 1)}), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newTestWriter(t, DefaultConfig(), tt.tools)
			assert.False(t, w.MultipleTools())
			for i := 0; i < 2; i++ {
				assert.Empty(t, w.Toolchange(tt.id))
			}
			require.NotNil(t, w.Tool())
			assert.Equal(t, tt.id, w.Tool().ID())
			assert.Equal(t, "M104 S200 ; set temperature\n", w.SetTemperature(200, false, int(tt.id)))
		})
	}
}

func TestMultipleToolsIsSticky(t *testing.T) {
	w := newTestWriter(t, DefaultConfig(), tool.NewSet([]*tool.Extruder{
		tool.NewExtruder(0, tool.DefaultParams(), false),
		tool.NewExtruder(2, tool.DefaultParams(), false),
	}, nil))
	require.True(t, w.MultipleTools())

	w.SetTools(singleExtruder(tool.DefaultParams()))
	assert.True(t, w.MultipleTools())
}

func TestSetSpeedContract(t *testing.T) {
	w := newTestWriter(t, DefaultConfig(), nil)

	for _, f := range []float64{0, -5, 100000, 150000} {
		func() {
			defer func() {
				r := recover()
				require.NotNil(t, r, "feed rate %v", f)
				err, ok := r.(*errors.HostError)
				require.True(t, ok)
				assert.True(t, errors.IsContractViolation(err))
			}()
			w.SetSpeed(f, "", "")
		}()
	}

	assert.Equal(t, "G1 F1200.000\n", w.SetSpeed(1200, "", ""))
	assert.Equal(t, "G1 F1200.000\n", w.SetSpeed(1200, "", ""))
}

func TestSetSpeedCommentAndMarker(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Comments = true
	w := newTestWriter(t, cfg, nil)

	assert.Equal(t, "G1 F1800.000 ; perimeter;_EXTRUDE_SET_SPEED\n", w.SetSpeed(1800, "perimeter", ";_EXTRUDE_SET_SPEED"))
}

func TestExtrudeZeroDeltaHasNoETerm(t *testing.T) {
	w := newTestWriter(t, DefaultConfig(), singleExtruder(tool.DefaultParams()))
	w.Toolchange(0)

	out := w.ExtrudeToXY(mgl64.Vec2{3, 4}, 0, "")
	assert.Equal(t, "G1 X3.000 Y4.000\n", out)
	assert.Equal(t, mgl64.Vec3{3, 4, 0}, w.Position())

	out = w.ExtrudeToXYZ(mgl64.Vec3{5, 6, 0.2}, 0, "")
	assert.Equal(t, "G1 X5.000 Y6.000 Z0.200\n", out)
	assert.Equal(t, mgl64.Vec3{5, 6, 0.2}, w.Position())
}

func TestMillExtrudeHasNoETerm(t *testing.T) {
	tools := tool.NewSet(nil, []*tool.Mill{tool.NewMill(0, 1)})
	w := newTestWriter(t, DefaultConfig(), tools)
	w.Toolchange(0)

	assert.Equal(t, "G1 X1.000 Y2.000\n", w.ExtrudeToXY(mgl64.Vec2{1, 2}, 3, ""))
}

func TestExtrudeAbsoluteAndRelative(t *testing.T) {
	w := newTestWriter(t, DefaultConfig(), singleExtruder(tool.DefaultParams()))
	w.Toolchange(0)
	w.ExtrudeToXY(mgl64.Vec2{1, 0}, 0.5, "")
	assert.Equal(t, "G1 X2.000 Y0.000 E1.00000\n", w.ExtrudeToXY(mgl64.Vec2{2, 0}, 0.5, ""))

	cfg := DefaultConfig()
	cfg.RelativeE = true
	w = newTestWriter(t, cfg, tool.NewSet([]*tool.Extruder{tool.NewExtruder(0, tool.DefaultParams(), true)}, nil))
	w.Toolchange(0)
	w.ExtrudeToXY(mgl64.Vec2{1, 0}, 0.5, "")
	assert.Equal(t, "G1 X2.000 Y0.000 E0.50000\n", w.ExtrudeToXY(mgl64.Vec2{2, 0}, 0.5, ""))
}

func TestExtrudeWithoutToolPanics(t *testing.T) {
	w := newTestWriter(t, DefaultConfig(), singleExtruder(tool.DefaultParams()))

	assert.Panics(t, func() { w.ExtrudeToXY(mgl64.Vec2{1, 1}, 1, "") })
	assert.Panics(t, func() { w.Retract(false) })
	assert.Panics(t, func() { w.Lift() })
}

func TestRetractAndUnretract(t *testing.T) {
	p := tool.DefaultParams()
	p.RetractRestartExtra = 0.1
	cfg := DefaultConfig()
	cfg.Comments = true
	w := newTestWriter(t, cfg, singleExtruder(p))
	w.Toolchange(0)
	w.ExtrudeToXY(mgl64.Vec2{1, 1}, 5, "")

	assert.Equal(t, "G1 E3.00000 F2400 ; retract\n", w.Retract(false))
	assert.Empty(t, w.Retract(false))
	assert.Equal(t, "G1 E5.10000 F2400 ; unretract\n", w.Unretract())
	assert.Empty(t, w.Unretract())
}

func TestRetractBeforeWipe(t *testing.T) {
	p := tool.DefaultParams()
	p.RetractBeforeWipe = 0.5
	w := newTestWriter(t, DefaultConfig(), singleExtruder(p))
	w.Toolchange(0)

	assert.Equal(t, "G1 E-1.00000 F2400\n", w.Retract(true))
	assert.InDelta(t, 1.0, w.Tool().Retracted(), 1e-12)
}

func TestRetractBeforeWipeOutOfRangePanics(t *testing.T) {
	p := tool.DefaultParams()
	p.RetractBeforeWipe = 1.5
	w := newTestWriter(t, DefaultConfig(), singleExtruder(p))
	w.Toolchange(0)

	assert.Panics(t, func() { w.Retract(true) })
}

func TestRetractForToolchange(t *testing.T) {
	w := newTestWriter(t, DefaultConfig(), singleExtruder(tool.DefaultParams()))
	w.Toolchange(0)

	assert.Equal(t, "G1 E-10.00000 F2400\n", w.RetractForToolchange(false))
}

func TestFirmwareRetraction(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FirmwareRetraction = true
	w := newTestWriter(t, cfg, singleExtruder(tool.DefaultParams()))
	w.Toolchange(0)

	assert.Equal(t, "G10 ; retract\n", w.Retract(false))
	assert.Empty(t, w.Retract(false))
	assert.Equal(t, "G11 ; unretract\n", w.Unretract())

	cfg.Flavor = flavor.Machinekit
	w = newTestWriter(t, cfg, singleExtruder(tool.DefaultParams()))
	w.Toolchange(0)
	assert.Equal(t, "G22 ; retract\n", w.Retract(false))
	assert.Equal(t, "G23 ; unretract\n", w.Unretract())
}

func TestVolumetricRetraction(t *testing.T) {
	p := tool.DefaultParams()
	p.FilamentDiameter = 2
	cfg := DefaultConfig()
	cfg.VolumetricE = true
	w := newTestWriter(t, cfg, singleExtruder(p))
	w.Toolchange(0)

	// 2mm of 2mm filament is 2π mm³.
	assert.Equal(t, "G1 E-6.28319 F2400\n", w.Retract(false))
}

func TestMakerWareToggleExtruder(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Flavor = flavor.MakerWare
	w := newTestWriter(t, cfg, singleExtruder(tool.DefaultParams()))
	w.Toolchange(0)

	assert.Equal(t, "G1 E-2.00000 F2400\nM103 ; extruder off\n", w.Retract(false))
	assert.Equal(t, "M101 ; extruder on\nG1 E0.00000 F2400\n", w.Unretract())
}

func TestNoExtrusionFlavorOmitsAxis(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Flavor = flavor.NoExtrusion
	w := newTestWriter(t, cfg, singleExtruder(tool.DefaultParams()))
	w.Toolchange(0)

	assert.Equal(t, "G1 X1.000 Y1.000\n", w.ExtrudeToXY(mgl64.Vec2{1, 1}, 2, ""))
	assert.Empty(t, w.Retract(false))
	assert.Empty(t, w.ResetE(true))
}

func TestResetE(t *testing.T) {
	w := newTestWriter(t, DefaultConfig(), singleExtruder(tool.DefaultParams()))
	w.Toolchange(0)

	assert.Empty(t, w.ResetE(false))
	assert.Equal(t, "G92 E0\n", w.ResetE(true))

	w.ExtrudeToXY(mgl64.Vec2{1, 1}, 1, "")
	assert.Equal(t, "G92 E0\n", w.ResetE(false))
	assert.Zero(t, w.Tool().E())

	cfg := DefaultConfig()
	cfg.RelativeE = true
	w = newTestWriter(t, cfg, singleExtruder(tool.DefaultParams()))
	assert.Empty(t, w.ResetE(true))
}

func TestExtrusionAxisOverride(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ExtrusionAxis = "B"
	w := newTestWriter(t, cfg, nil)
	assert.Equal(t, "B", w.ExtrusionAxis())

	cfg.Flavor = flavor.Mach3
	w = newTestWriter(t, cfg, nil)
	assert.Equal(t, "A", w.ExtrusionAxis())
}

func TestPreamble(t *testing.T) {
	cfg := DefaultConfig()
	w := newTestWriter(t, cfg, nil)
	assert.Equal(t,
		"G21 ; set units to millimeters\nG90 ; use absolute coordinates\nM82 ; use absolute distances for extrusion\nG92 E0\n",
		w.Preamble())

	cfg.RelativeE = true
	w = newTestWriter(t, cfg, nil)
	assert.Equal(t,
		"G21 ; set units to millimeters\nG90 ; use absolute coordinates\nM83 ; use relative distances for extrusion\n",
		w.Preamble())

	cfg = DefaultConfig()
	cfg.Flavor = flavor.MakerWare
	w = newTestWriter(t, cfg, nil)
	assert.Empty(t, w.Preamble())

	cfg.Flavor = flavor.Mach3
	w = newTestWriter(t, cfg, nil)
	assert.Equal(t, "G21 ; set units to millimeters\nG90 ; use absolute coordinates\n", w.Preamble())
}

func TestPostamble(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Flavor = flavor.Machinekit
	w := newTestWriter(t, cfg, nil)
	assert.Equal(t, "M2 ; end of program\n", w.Postamble())

	w = newTestWriter(t, DefaultConfig(), nil)
	assert.Empty(t, w.Postamble())
}

func TestSetTemperature(t *testing.T) {
	tests := []struct {
		name   string
		flavor flavor.Flavor
		temp   uint
		wait   bool
		tool   int
		want   string
	}{
		{"marlin set", flavor.Marlin, 210, false, -1, "M104 S210 ; set temperature\n"},
		{"marlin wait", flavor.Marlin, 210, true, -1, "M109 S210 ; set temperature and wait for it to be reached\n"},
		{"marlin single tool", flavor.Marlin, 210, false, 0, "M104 S210 ; set temperature\n"},
		{"mach3 letter", flavor.Mach3, 200, false, -1, "M104 P200 ; set temperature\n"},
		{"teacup wait", flavor.Teacup, 200, true, -1, "M104 S200 ; set temperature\nM116 ; wait for temperature to be reached\n"},
		{"makerware set", flavor.MakerWare, 220, false, 0, "M104 S220 T0 ; set temperature\n"},
		{"makerware wait", flavor.MakerWare, 220, true, 0, ""},
		{"sailfish wait", flavor.Sailfish, 220, true, 0, ""},
		{"openfl", flavor.OpenFL, 220, false, -1, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Flavor = tt.flavor
			w := newTestWriter(t, cfg, singleExtruder(tool.DefaultParams()))
			assert.Equal(t, tt.want, w.SetTemperature(tt.temp, tt.wait, tt.tool))
		})
	}
}

func TestSetTemperatureToolSuffix(t *testing.T) {
	tools := tool.NewSet([]*tool.Extruder{
		tool.NewExtruder(0, tool.DefaultParams(), false),
		tool.NewExtruder(1, tool.DefaultParams(), false),
	}, nil)
	w := newTestWriter(t, DefaultConfig(), tools)
	assert.Equal(t, "M104 S200 T1 ; set temperature\n", w.SetTemperature(200, false, 1))

	cfg := DefaultConfig()
	cfg.SingleExtruderMultiMaterial = true
	w = newTestWriter(t, cfg, tools.Clone())
	assert.Equal(t, "M104 S200 ; set temperature\n", w.SetTemperature(200, false, 1))
}

func TestBedTemperatureSuppression(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Comments = true
	w := newTestWriter(t, cfg, nil)

	// Initial cache is 0 and reached.
	assert.Empty(t, w.SetBedTemperature(0, false))
	assert.Equal(t, "M140 S60 ; set bed temperature\n", w.SetBedTemperature(60, false))
	assert.Empty(t, w.SetBedTemperature(60, false))
	// Set but never waited on, so a wait is still written.
	assert.Equal(t, "M190 S60 ; set bed temperature and wait for it to be reached\n", w.SetBedTemperature(60, true))
	assert.Empty(t, w.SetBedTemperature(60, true))
	assert.Empty(t, w.SetBedTemperature(60, false))
}

func TestBedTemperatureFlavors(t *testing.T) {
	tests := []struct {
		flavor flavor.Flavor
		want   string
	}{
		{flavor.Marlin, "M190 S70 ; set bed temperature and wait for it to be reached\n"},
		{flavor.MakerWare, "M109 S70 ; set bed temperature and wait for it to be reached\n"},
		{flavor.Teacup, "M140 S70 ; set bed temperature\nM116 ; wait for bed temperature to be reached\n"},
		{flavor.Machinekit, "M190 P70 ; set bed temperature and wait for it to be reached\n"},
	}
	for _, tt := range tests {
		t.Run(tt.flavor.String(), func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Flavor = tt.flavor
			w := newTestWriter(t, cfg, nil)
			assert.Equal(t, tt.want, w.SetBedTemperature(70, true))
		})
	}
}

func TestFanFlavors(t *testing.T) {
	tests := []struct {
		flavor  flavor.Flavor
		on, off string
	}{
		{flavor.Marlin, "M106 S255\n", "M107\n"},
		{flavor.Teacup, "M106 S255\n", "M106 S0\n"},
		{flavor.MakerWare, "M126\n", "M127\n"},
		{flavor.Sailfish, "M126\n", "M127\n"},
		{flavor.Mach3, "M106 P255\n", "M107\n"},
	}
	for _, tt := range tests {
		t.Run(tt.flavor.String(), func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Flavor = tt.flavor
			w := newTestWriter(t, cfg, nil)
			assert.Equal(t, tt.on, w.SetFan(100, false))
			assert.Equal(t, tt.off, w.SetFan(0, false))
		})
	}
}

func TestUpdateProgress(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Flavor = flavor.Sailfish
	w := newTestWriter(t, cfg, nil)

	assert.Equal(t, "M73 P50\n", w.UpdateProgress(1, 2, false))
	assert.Equal(t, "M73 P99\n", w.UpdateProgress(2, 2, false))
	assert.Equal(t, "M73 P100\n", w.UpdateProgress(2, 2, true))
	assert.Empty(t, w.UpdateProgress(1, 0, false))

	w = newTestWriter(t, DefaultConfig(), nil)
	assert.Empty(t, w.UpdateProgress(1, 2, false))
}

func TestCommentsFlag(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Comments = true
	w := newTestWriter(t, cfg, nil)
	assert.Equal(t, "G1 X1.000 Y2.000 F7800.000 ; move to first point\n", w.TravelToXY(mgl64.Vec2{1, 2}, "move to first point"))

	w = newTestWriter(t, DefaultConfig(), nil)
	assert.Equal(t, "G1 X1.000 Y2.000 F7800.000\n", w.TravelToXY(mgl64.Vec2{1, 2}, "move to first point"))
}

func TestCloneIsIndependent(t *testing.T) {
	w := newTestWriter(t, DefaultConfig(), singleExtruder(tool.DefaultParams()))
	w.Toolchange(0)
	w.ExtrudeToXY(mgl64.Vec2{1, 1}, 1, "")

	c := w.Clone()
	c.ExtrudeToXY(mgl64.Vec2{2, 2}, 1, "")

	assert.InDelta(t, 1.0, w.Tool().E(), 1e-12)
	assert.InDelta(t, 2.0, c.Tool().E(), 1e-12)
	assert.Equal(t, mgl64.Vec3{1, 1, 0}, w.Position())
	assert.Equal(t, mgl64.Vec3{2, 2, 0}, c.Position())
}

func TestOpenFLLaserStream(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Flavor = flavor.OpenFL
	w := newTestWriter(t, cfg, singleExtruder(tool.DefaultParams()))
	w.Toolchange(0)

	assert.Empty(t, w.Preamble())
	assert.Equal(t, "dt=600.000\n", w.SetSpeed(600, "", ""))
	assert.Equal(t,
		"0x01 LaserPowerLevel 0\n0x00 XY Move 1\nLaserPoint(x=524, y=1049, dt=130.000)\n",
		w.TravelToXY(mgl64.Vec2{1, 2}, ""))
	assert.Equal(t,
		"0x01 LaserPowerLevel 43074\n0x00 XY Move 1\nLaserPoint(x=1049, y=1049, dt=600.000)\n",
		w.ExtrudeToXY(mgl64.Vec2{2, 2}, 0.1, ""))
	assert.Equal(t, "0x04 ZFeedRate 600.000\n0x03 ZMove 0.050\n", w.TravelToZ(0.05, ""))
	assert.Empty(t, w.SetFan(100, false))
	assert.Empty(t, w.SetBedTemperature(60, true))
}
