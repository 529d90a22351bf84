// Package flavor enumerates the firmware G-code dialects the writer can
// target and holds the per-dialect formatting rules in one table.
package flavor

import (
	"strings"

	"gcodewriter/pkg/errors"
)

// Flavor is a closed set of firmware dialects.
type Flavor int

const (
	RepRapSprinter Flavor = iota
	RepRapFirmware
	Repetier
	Teacup
	MakerWare
	Marlin
	Marlin2
	Lerdge
	Klipper
	Sailfish
	Mach3
	Machinekit
	Smoothie
	Sprinter
	NoExtrusion
	OpenFL

	numFlavors
)

var names = [numFlavors]string{
	RepRapSprinter: "reprap",
	RepRapFirmware: "reprapfirmware",
	Repetier:       "repetier",
	Teacup:         "teacup",
	MakerWare:      "makerware",
	Marlin:         "marlin",
	Marlin2:        "marlin2",
	Lerdge:         "lerdge",
	Klipper:        "klipper",
	Sailfish:       "sailfish",
	Mach3:          "mach3",
	Machinekit:     "machinekit",
	Smoothie:       "smoothie",
	Sprinter:       "sprinter",
	NoExtrusion:    "no-extrusion",
	OpenFL:         "openfl",
}

// String returns the configuration spelling of the flavor.
func (f Flavor) String() string {
	if f < 0 || f >= numFlavors {
		return "unknown"
	}
	return names[f]
}

// Valid reports whether f is one of the enumerated flavors.
func (f Flavor) Valid() bool {
	return f >= 0 && f < numFlavors
}

// Parse resolves a configuration value such as "marlin" or "Klipper".
func Parse(name string) (Flavor, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "noextrusion" {
		key = "no-extrusion"
	}
	for f, n := range names {
		if n == key {
			return Flavor(f), nil
		}
	}
	return 0, errors.UnknownFlavorError(name)
}

// All returns every flavor in declaration order.
func All() []Flavor {
	out := make([]Flavor, 0, numFlavors)
	for f := Flavor(0); f < numFlavors; f++ {
		out = append(out, f)
	}
	return out
}
