package gcode

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"gcodewriter/pkg/pool"
)

// OpenFL scales millimetres to galvanometer steps and encodes laser power
// as a 16-bit level.
const (
	laserStepsPerMM = 524.28
	laserPowerOff   = 0
	laserPowerOn    = 43074
)

// line is a pooled fragment builder. finish returns the text and
// recycles the buffer.
type line struct {
	w   *Writer
	buf *pool.ByteBuffer
}

func (w *Writer) newLine() *line {
	return &line{w: w, buf: pool.GetByteBuffer()}
}

func (l *line) str(s string) *line {
	l.buf.WriteString(s)
	return l
}

// xyzf writes " <axis><value>" with three decimals.
func (l *line) xyzf(axis string, v float64) *line {
	l.buf.WriteByte(' ')
	l.buf.WriteString(axis)
	l.buf.AppendFixed(v, 3)
	return l
}

// e writes the extrusion axis term with five decimals.
func (l *line) e(v float64) *line {
	l.buf.WriteByte(' ')
	l.buf.WriteString(l.w.extrusionAxis)
	l.buf.AppendFixed(v, 5)
	return l
}

func (l *line) num(v uint) *line {
	l.buf.AppendUint(uint64(v))
	return l
}

func (l *line) shortest(v float64) *line {
	l.buf.AppendShortest(v)
	return l
}

// comment appends " ; text" when verbose comments are enabled.
func (l *line) comment(text string) *line {
	if l.w.cfg.Comments && text != "" {
		l.buf.WriteString(" ; ")
		l.buf.WriteString(text)
	}
	return l
}

func (l *line) end() *line {
	l.buf.WriteByte('\n')
	return l
}

func (l *line) finish() string {
	s := l.buf.String()
	pool.PutByteBuffer(l.buf)
	l.buf = nil
	return s
}

// laserPoint renders one OpenFL move record. dt is the dwell per point;
// a non-positive dt omits it.
func (w *Writer) laserPoint(p mgl64.Vec2, power int, dt float64) string {
	l := w.newLine()
	l.str("0x01 LaserPowerLevel ")
	l.buf.AppendInt(int64(power))
	l.str("\n0x00 XY Move 1\nLaserPoint(x=")
	l.buf.AppendInt(int64(math.Round(p.X() * laserStepsPerMM)))
	l.str(", y=")
	l.buf.AppendInt(int64(math.Round(p.Y() * laserStepsPerMM)))
	if dt > 0 {
		l.str(", dt=")
		l.buf.AppendFixed(dt, 3)
	}
	l.str(")\n")
	return l.finish()
}
