package gcode

import (
	"gcodewriter/pkg/log"
	"gcodewriter/pkg/tool"
)

// ResetE returns the extrusion origin reset. It is skipped when the
// active tool has not moved filament since the last reset (unless force),
// in relative E mode, or on flavors without an extrusion origin.
func (w *Writer) ResetE(force bool) string {
	if !w.dialect.ResetsExtrusion {
		return ""
	}
	if w.tool != nil {
		if w.tool.E() == 0 && !force {
			return ""
		}
		w.tool.ResetE()
	}
	if w.extrusionAxis == "" || w.cfg.RelativeE {
		return ""
	}
	l := w.newLine()
	l.str("G92 ").str(w.extrusionAxis).str("0").comment("reset extrusion distance").end()
	return l.finish()
}

// ToolchangePrefix is the text that precedes the tool id in a tool-select
// command. Post-processors use it to split output per tool.
func (w *Writer) ToolchangePrefix() string {
	return w.dialect.ToolPrefix
}

// NeedToolchange reports whether selecting id would change the active tool.
func (w *Writer) NeedToolchange(id uint16) bool {
	return w.tool == nil || w.tool.ID() != id
}

// SetTool selects id if it is not already active.
func (w *Writer) SetTool(id uint16) string {
	if !w.NeedToolchange(id) {
		return ""
	}
	return w.Toolchange(id)
}

// Toolchange makes id the active tool, searching extruders before mills.
// An unknown id leaves the active tool as it was. The select command is
// only written for multi-tool sessions.
func (w *Writer) Toolchange(id uint16) string {
	if t, ok := w.tools.Lookup(id); ok {
		w.tool = t
	} else {
		w.logger.WithFields(log.Fields{"tool": id}).Warn("toolchange to undeclared tool ignored")
	}

	if !w.multipleTools {
		return ""
	}
	l := w.newLine()
	l.str(w.dialect.ToolPrefix)
	l.buf.AppendUint(uint64(id))
	l.comment("change extruder").end()
	l.str(w.ResetE(true))
	return l.finish()
}

// Extruders returns the declared extruders sorted by id.
func (w *Writer) Extruders() []*tool.Extruder { return w.tools.Extruders() }

// Mills returns the declared milling heads sorted by id.
func (w *Writer) Mills() []*tool.Mill { return w.tools.Mills() }
