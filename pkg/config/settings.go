package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gcodewriter/pkg/flavor"
	"gcodewriter/pkg/gcode"
	"gcodewriter/pkg/log"
	"gcodewriter/pkg/tool"
)

// ExtruderSettings is one [extruder] or [extruderN] section.
type ExtruderSettings struct {
	ID     uint16
	Params tool.Params
}

// MillSettings is one [mill N] section.
type MillSettings struct {
	ID    uint16
	ZLift float64
}

// Settings is a validated machine configuration.
type Settings struct {
	GCode     gcode.Config
	Extruders []ExtruderSettings
	Mills     []MillSettings
}

var zero = 0.0

// LoadSettings reads [gcode], the extruder sections and the mill sections
// from c. Errors are returned as *errors.HostError.
func LoadSettings(c *Config) (*Settings, error) {
	s := &Settings{GCode: gcode.DefaultConfig()}
	if err := s.loadGCode(c); err != nil {
		return nil, hostError(err)
	}
	if err := s.loadTools(c); err != nil {
		return nil, hostError(err)
	}

	logger := log.GetLogger("config")
	if unused := c.GetUnusedSections(); len(unused) > 0 {
		logger.WithField("sections", strings.Join(unused, ", ")).Warn("unused config sections")
	}
	if unused := c.GetUnusedOptions(); len(unused) > 0 {
		logger.WithField("options", strings.Join(unused, ", ")).Warn("unused config options")
	}
	return s, nil
}

func (s *Settings) loadGCode(c *Config) error {
	sec := c.GetSectionOptional("gcode")
	if sec == nil {
		return nil
	}
	g := &s.GCode

	name, err := sec.Get("flavor", g.Flavor.String())
	if err != nil {
		return err
	}
	if g.Flavor, err = flavor.Parse(name); err != nil {
		return err
	}
	if g.Comments, err = sec.GetBool("gcode_comments", false); err != nil {
		return err
	}
	if g.RelativeE, err = sec.GetBool("use_relative_e_distances", false); err != nil {
		return err
	}
	if g.FirmwareRetraction, err = sec.GetBool("use_firmware_retraction", false); err != nil {
		return err
	}
	if g.VolumetricE, err = sec.GetBool("use_volumetric_e", false); err != nil {
		return err
	}
	if g.TravelSpeed, err = sec.GetFloatWithBounds("travel_speed", FloatBounds{Above: &zero}, g.TravelSpeed); err != nil {
		return err
	}
	if g.ExtrusionAxis, err = sec.Get("extrusion_axis", ""); err != nil {
		return err
	}
	if g.SingleExtruderMultiMaterial, err = sec.GetBool("single_extruder_multi_material", false); err != nil {
		return err
	}
	minAccel := 0
	accel, err := sec.GetIntWithBounds("machine_max_acceleration_extruding", &minAccel, nil, 0)
	if err != nil {
		return err
	}
	g.MaxAcceleration = uint(accel)
	return nil
}

func (s *Settings) loadTools(c *Config) error {
	seen := make(map[uint16]string)
	claim := func(id uint16, section string) error {
		if prev, ok := seen[id]; ok {
			return NewConfigError(section, "", fmt.Sprintf("tool id %d already used by [%s]", id, prev))
		}
		seen[id] = section
		return nil
	}

	for _, sec := range c.GetPrefixSections("extruder") {
		id, err := toolID(sec.GetName(), "extruder", true)
		if err != nil {
			return err
		}
		if err := claim(id, sec.GetName()); err != nil {
			return err
		}
		params, err := extruderParams(sec)
		if err != nil {
			return err
		}
		s.Extruders = append(s.Extruders, ExtruderSettings{ID: id, Params: params})
	}

	for _, sec := range c.GetPrefixSections("mill") {
		id, err := toolID(sec.GetName(), "mill", false)
		if err != nil {
			return err
		}
		if err := claim(id, sec.GetName()); err != nil {
			return err
		}
		lift, err := sec.GetFloatWithBounds("milling_z_lift", FloatBounds{MinVal: &zero}, 0)
		if err != nil {
			return err
		}
		s.Mills = append(s.Mills, MillSettings{ID: id, ZLift: lift})
	}

	if len(s.Extruders)+len(s.Mills) == 0 {
		return NewConfigError("", "", "no [extruder] or [mill] section defined")
	}

	sort.Slice(s.Extruders, func(i, j int) bool { return s.Extruders[i].ID < s.Extruders[j].ID })
	sort.Slice(s.Mills, func(i, j int) bool { return s.Mills[i].ID < s.Mills[j].ID })

	// Mill ids follow extruder ids so id order tells the tool kind apart.
	if len(s.Mills) > 0 && len(s.Extruders) > 0 {
		lastExtruder := s.Extruders[len(s.Extruders)-1].ID
		if first := s.Mills[0]; first.ID < lastExtruder {
			return NewConfigError(fmt.Sprintf("mill %d", first.ID), "",
				fmt.Sprintf("mill ids must be above the highest extruder id %d", lastExtruder))
		}
	}
	return nil
}

// toolID parses the index out of "extruder", "extruder1", "extruder 1"
// or "mill 2". A bare prefix is index 0 when allowBare is set.
func toolID(name, prefix string, allowBare bool) (uint16, error) {
	rest := strings.TrimSpace(strings.TrimPrefix(name, prefix))
	if rest == "" {
		if allowBare {
			return 0, nil
		}
		return 0, NewConfigError(name, "", "missing tool index")
	}
	id, err := strconv.ParseUint(rest, 10, 16)
	if err != nil {
		return 0, NewConfigError(name, "", fmt.Sprintf("invalid tool index %q", rest))
	}
	return uint16(id), nil
}

func extruderParams(sec *Section) (tool.Params, error) {
	p := tool.DefaultParams()
	nonNeg := FloatBounds{MinVal: &zero}
	positive := FloatBounds{Above: &zero}

	fields := []struct {
		option string
		bounds FloatBounds
		dst    *float64
	}{
		{"retract_length", nonNeg, &p.RetractLength},
		{"retract_restart_extra", FloatBounds{}, &p.RetractRestartExtra},
		{"retract_length_toolchange", nonNeg, &p.RetractLengthToolchange},
		{"retract_restart_extra_toolchange", FloatBounds{}, &p.RetractRestartExtraToolchange},
		{"retract_speed", positive, &p.RetractSpeed},
		{"deretract_speed", nonNeg, &p.DeretractSpeed},
		{"retract_lift", nonNeg, &p.RetractLift},
		{"retract_lift_above", nonNeg, &p.RetractLiftAbove},
		{"retract_lift_below", nonNeg, &p.RetractLiftBelow},
		{"filament_diameter", positive, &p.FilamentDiameter},
	}
	for _, f := range fields {
		v, err := sec.GetFloatWithBounds(f.option, f.bounds, *f.dst)
		if err != nil {
			return p, err
		}
		*f.dst = v
	}

	var err error
	if p.RetractBeforeWipe, err = sec.GetPercent("retract_before_wipe", 0); err != nil {
		return p, err
	}
	return p, nil
}

// NewTools builds a fresh tool set. Extruders use the configured E mode.
func (s *Settings) NewTools() *tool.Set {
	extruders := make([]*tool.Extruder, 0, len(s.Extruders))
	for _, x := range s.Extruders {
		extruders = append(extruders, tool.NewExtruder(x.ID, x.Params, s.GCode.RelativeE))
	}
	mills := make([]*tool.Mill, 0, len(s.Mills))
	for _, m := range s.Mills {
		mills = append(mills, tool.NewMill(m.ID, m.ZLift))
	}
	return tool.NewSet(extruders, mills)
}

// NewWriter creates a writer with a fresh tool set.
func (s *Settings) NewWriter() (*gcode.Writer, error) {
	return gcode.NewWriter(s.GCode, s.NewTools())
}
