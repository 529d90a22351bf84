package flavor

// MotionStyle selects how moves are rendered.
type MotionStyle int

const (
	// MotionGCode renders moves as G1 words.
	MotionGCode MotionStyle = iota
	// MotionLaser renders moves as OpenFL laser point records.
	MotionLaser
)

// Dialect is the complete set of formatting rules for one flavor.
type Dialect struct {
	Flavor      Flavor
	Description string

	// UnitsPreamble emits "G21" and "G90" at the start of a program.
	UnitsPreamble bool
	// ExtrusionModePreamble emits M82/M83 followed by a forced E reset.
	ExtrusionModePreamble bool
	Postamble             string

	// NoThermal drops temperature, fan and acceleration commands.
	NoThermal bool
	// ParamLetter is used for temperature and fan values ('S' or 'P').
	ParamLetter byte
	// WaitUnsupported means a wait request produces no command at all.
	WaitUnsupported bool
	// SeparateWait sets with M104/M140 and waits with a following M116.
	SeparateWait bool
	// ToolSuffix always appends " T<n>" to tool temperature commands.
	ToolSuffix  bool
	BedWaitCode string

	FanOffCode string
	FanOnCode  string
	// FanOnValue appends the 0-255 value to FanOnCode.
	FanOnValue bool

	// SplitAcceleration emits M201/M202 pairs instead of M204.
	SplitAcceleration bool
	// ClampAcceleration honours the configured machine maximum.
	ClampAcceleration bool

	// ResetsExtrusion means "G92 E0" is understood.
	ResetsExtrusion bool
	ExtrusionAxis   string

	ReportsProgress bool
	ToolPrefix      string

	RetractCode    string
	UnretractCode  string
	ToggleExtruder bool

	Motion MotionStyle
}

// Lookup returns the rules for f. f must be valid.
func Lookup(f Flavor) Dialect {
	return dialects[f]
}

// Dialect returns the rules for f.
func (f Flavor) Dialect() Dialect {
	return dialects[f]
}

func standard(f Flavor, description string) Dialect {
	return Dialect{
		Flavor:                f,
		Description:           description,
		UnitsPreamble:         true,
		ExtrusionModePreamble: true,
		ParamLetter:           'S',
		BedWaitCode:           "M190",
		FanOffCode:            "M107",
		FanOnCode:             "M106",
		FanOnValue:            true,
		ResetsExtrusion:       true,
		ExtrusionAxis:         "E",
		ToolPrefix:            "T",
		RetractCode:           "G10",
		UnretractCode:         "G11",
		Motion:                MotionGCode,
	}
}

func (d Dialect) clamped() Dialect {
	d.ClampAcceleration = true
	return d
}

// makerbot covers the MakerWare and Sailfish families, which share the
// extruder-on/off fan and wait quirks.
func makerbot(f Flavor, description, toolPrefix string) Dialect {
	d := standard(f, description)
	d.ExtrusionModePreamble = false
	d.WaitUnsupported = true
	d.ToolSuffix = true
	d.BedWaitCode = "M109"
	d.FanOffCode = "M127"
	d.FanOnCode = "M126"
	d.FanOnValue = false
	d.ResetsExtrusion = false
	d.ReportsProgress = true
	d.ToolPrefix = toolPrefix
	return d
}

func cnc(f Flavor, description, axis string) Dialect {
	d := standard(f, description)
	d.ExtrusionModePreamble = false
	d.ParamLetter = 'P'
	d.ExtrusionAxis = axis
	return d
}

var dialects = [numFlavors]Dialect{
	RepRapSprinter: standard(RepRapSprinter, "RepRap/Sprinter"),
	RepRapFirmware: standard(RepRapFirmware, "RepRapFirmware"),
	Repetier: func() Dialect {
		d := standard(Repetier, "Repetier")
		d.SplitAcceleration = true
		return d
	}(),
	Teacup: func() Dialect {
		d := standard(Teacup, "Teacup")
		d.SeparateWait = true
		d.FanOffCode = "M106 S0"
		return d
	}(),
	MakerWare: func() Dialect {
		d := makerbot(MakerWare, "MakerWare (MakerBot)", "M135 T")
		d.UnitsPreamble = false
		d.ToggleExtruder = true
		return d
	}(),
	Marlin:  standard(Marlin, "Marlin (legacy)").clamped(),
	Marlin2: standard(Marlin2, "Marlin 2").clamped(),
	Lerdge:  standard(Lerdge, "Lerdge").clamped(),
	Klipper: func() Dialect {
		d := standard(Klipper, "Klipper").clamped()
		d.ToolPrefix = "ACTIVATE_EXTRUDER EXTRUDER=extruder"
		return d
	}(),
	Sailfish: makerbot(Sailfish, "Sailfish (MakerBot)", "M108 T"),
	Mach3:    func() Dialect {
		d := cnc(Mach3, "Mach3/LinuxCNC", "A")
		d.ResetsExtrusion = false
		return d
	}(),
	Machinekit: func() Dialect {
		d := cnc(Machinekit, "Machinekit", "A")
		d.Postamble = "M2 ; end of program\n"
		d.RetractCode = "G22"
		d.UnretractCode = "G23"
		return d
	}(),
	Smoothie: standard(Smoothie, "Smoothie"),
	Sprinter: standard(Sprinter, "Sprinter"),
	NoExtrusion: func() Dialect {
		d := standard(NoExtrusion, "No extrusion")
		d.ExtrusionModePreamble = false
		d.ExtrusionAxis = ""
		return d
	}(),
	OpenFL: Dialect{
		Flavor:        OpenFL,
		Description:   "OpenFL laser stream (Form 1/1+)",
		NoThermal:     true,
		ParamLetter:   'S',
		ToolPrefix:    "T",
		RetractCode:   "G10",
		UnretractCode: "G11",
		Motion:        MotionLaser,
	},
}
