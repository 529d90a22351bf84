package gcode

import "math"

// Preamble returns the program setup: units, coordinate mode and
// extrusion distance mode. Callers invoke it once per program.
func (w *Writer) Preamble() string {
	d := w.dialect
	l := w.newLine()
	if d.UnitsPreamble {
		l.str("G21 ; set units to millimeters\n")
		l.str("G90 ; use absolute coordinates\n")
	}
	if d.ExtrusionModePreamble {
		if w.cfg.RelativeE {
			l.str("M83 ; use relative distances for extrusion\n")
		} else {
			l.str("M82 ; use absolute distances for extrusion\n")
		}
		l.str(w.ResetE(true))
	}
	return l.finish()
}

// Postamble returns the end-of-program text.
func (w *Writer) Postamble() string {
	return w.dialect.Postamble
}

// SetTemperature sets a tool temperature. tool is the tool index the
// command targets, or -1 for the active heater.
func (w *Writer) SetTemperature(temperature uint, wait bool, tool int) string {
	d := w.dialect
	if d.NoThermal || (wait && d.WaitUnsupported) {
		return ""
	}

	code, comment := "M104", "set temperature"
	if wait && !d.SeparateWait {
		code, comment = "M109", "set temperature and wait for it to be reached"
	}

	l := w.newLine()
	l.str(code).str(" ")
	l.buf.WriteByte(d.ParamLetter)
	l.num(temperature)
	if tool != -1 && ((w.multipleTools && !w.cfg.SingleExtruderMultiMaterial) || d.ToolSuffix) {
		l.str(" T")
		l.buf.AppendInt(int64(tool))
	}
	l.str(" ; ").str(comment).end()
	if d.SeparateWait && wait {
		l.str("M116 ; wait for temperature to be reached\n")
	}
	return l.finish()
}

// SetBedTemperature sets the bed temperature. A request that matches the
// temperature already set, and does not wait on a target not yet
// confirmed reached, produces nothing.
func (w *Writer) SetBedTemperature(temperature uint, wait bool) string {
	d := w.dialect
	if d.NoThermal {
		return ""
	}
	if temperature == w.lastBedTemperature && (!wait || w.lastBedTempReached) {
		return ""
	}
	w.lastBedTemperature = temperature
	w.lastBedTempReached = wait

	code, comment := "M140", "set bed temperature"
	if wait && !d.SeparateWait {
		code, comment = d.BedWaitCode, "set bed temperature and wait for it to be reached"
	}

	l := w.newLine()
	l.str(code).str(" ")
	l.buf.WriteByte(d.ParamLetter)
	l.num(temperature).str(" ; ").str(comment).end()
	if d.SeparateWait && wait {
		l.str("M116 ; wait for bed temperature to be reached\n")
	}
	return l.finish()
}

// SetFan sets the part cooling fan to speed percent (0-100). An unchanged
// speed produces nothing unless forceEmit; forced calls leave the cached
// speed untouched, for re-asserting state after a pause.
func (w *Writer) SetFan(speed uint, forceEmit bool) string {
	if speed > 100 {
		speed = 100
	}
	if w.lastFanSpeed == speed && !forceEmit {
		return ""
	}
	if !forceEmit {
		w.lastFanSpeed = speed
	}

	d := w.dialect
	if d.NoThermal {
		return ""
	}
	l := w.newLine()
	if speed == 0 {
		l.str(d.FanOffCode).comment("disable fan").end()
		return l.finish()
	}
	l.str(d.FanOnCode)
	if d.FanOnValue {
		l.str(" ")
		l.buf.WriteByte(d.ParamLetter)
		l.shortest(255.0 * float64(speed) / 100.0)
	}
	l.comment("enable fan").end()
	return l.finish()
}

// SetAcceleration sets the print and travel acceleration in mm/s².
// Values above the machine limit are clamped first; 0 or the value
// already in effect produce nothing.
func (w *Writer) SetAcceleration(acceleration uint) string {
	if w.maxAccel > 0 && acceleration > w.maxAccel {
		acceleration = w.maxAccel
	}
	if acceleration == 0 || acceleration == w.lastAcceleration {
		return ""
	}
	w.lastAcceleration = acceleration

	d := w.dialect
	if d.NoThermal {
		return ""
	}
	l := w.newLine()
	if d.SplitAcceleration {
		// M201 print, M202 travel
		l.str("M201 X").num(acceleration).str(" Y").num(acceleration).comment("adjust acceleration").end()
		l.str("M202 X").num(acceleration).str(" Y").num(acceleration)
	} else {
		l.str("M204 S").num(acceleration)
	}
	l.comment("adjust acceleration").end()
	return l.finish()
}

// UpdateProgress reports num/total as a percentage on flavors with a
// progress display. Unless allow100, the value is capped at 99 so the
// display does not report completion before the end code runs.
func (w *Writer) UpdateProgress(num, total uint, allow100 bool) string {
	if !w.dialect.ReportsProgress || total == 0 {
		return ""
	}
	percent := uint(math.Floor(100.0*float64(num)/float64(total) + 0.5))
	if !allow100 && percent > 99 {
		percent = 99
	}
	l := w.newLine()
	l.str("M73 P").num(percent).comment("update progress").end()
	return l.finish()
}
