// Package job reads line-oriented job scripts and drives a gcode.Writer
// with them, one emitter call per script line.
//
// A script line is a command name followed by words:
//
//	TRAVEL X10 Y20.5 Z0.3 C="to start"
//	EXTRUDE X12 Y20.5 E0.41
//	RETRACT WIPE
//	RAW M117 Printing
//
// A letter followed by a number is a value (X10), K=V is a named value
// and may be double-quoted, and a bare word of letters is a flag (WIPE).
// Text after ';' is a comment, except on RAW lines, which pass the rest
// of the line through untouched.
package job

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"gcodewriter/pkg/errors"
	"gcodewriter/pkg/pool"
)

// Command is one parsed script line. Args is borrowed from a pool; call
// Release when done with the command.
type Command struct {
	Name string
	Args map[string]string
	// Text is the untouched remainder of a RAW line.
	Text string
	Line int
}

// Release returns the argument map to the pool.
func (c *Command) Release() {
	if c != nil && c.Args != nil {
		pool.PutArgsMap(c.Args)
		c.Args = nil
	}
}

// ParseLine parses one script line. Blank and comment-only lines return
// a nil command.
func ParseLine(line string, lineNum int) (*Command, error) {
	ln := strings.TrimSpace(line)
	if ln == "" || ln[0] == ';' {
		return nil, nil
	}

	end := strings.IndexFunc(ln, unicode.IsSpace)
	if end < 0 {
		end = len(ln)
	}
	name := strings.ToUpper(ln[:end])
	rest := ln[end:]
	if semi := strings.IndexByte(name, ';'); semi >= 0 {
		name, rest = name[:semi], ""
	}

	cmd := &Command{Name: name, Line: lineNum}
	if name == "RAW" {
		cmd.Text = strings.TrimSpace(rest)
		return cmd, nil
	}

	words, err := splitWords(rest)
	if err != nil {
		return nil, errors.WithLineNumber(errors.JobParseError(line, err.Error()), lineNum)
	}

	args := pool.GetArgsMap()
	for _, w := range words {
		if eq := strings.IndexByte(w, '='); eq >= 0 {
			k := strings.ToUpper(w[:eq])
			if k == "" {
				pool.PutArgsMap(args)
				return nil, errors.WithLineNumber(errors.JobParseError(line, "empty parameter name"), lineNum)
			}
			args[k] = unquote(w[eq+1:])
			continue
		}
		if isFlag(w) {
			args[strings.ToUpper(w)] = ""
			continue
		}
		args[strings.ToUpper(w[:1])] = w[1:]
	}
	cmd.Args = args
	return cmd, nil
}

// splitWords splits on whitespace outside double quotes and stops at a
// ';' comment.
func splitWords(s string) ([]string, error) {
	var words []string
	var cur strings.Builder
	inQuote := false
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}
	for _, r := range s {
		switch {
		case r == '"':
			inQuote = !inQuote
			cur.WriteRune(r)
		case inQuote:
			cur.WriteRune(r)
		case r == ';':
			flush()
			return words, nil
		case unicode.IsSpace(r):
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	if inQuote {
		return nil, fmt.Errorf("unterminated quote")
	}
	flush()
	return words, nil
}

func unquote(v string) string {
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		return v[1 : len(v)-1]
	}
	return v
}

func isFlag(w string) bool {
	for _, r := range w {
		if !unicode.IsLetter(r) && r != '_' {
			return false
		}
	}
	return true
}

// Arg accessors. Parameter errors name the command and the key.

func (c *Command) hasArg(key string) bool {
	_, ok := c.Args[key]
	return ok
}

func (c *Command) floatArg(key string) (float64, error) {
	raw, ok := c.Args[key]
	if !ok {
		return 0, errors.JobMissingParameterError(c.Name, key)
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.JobInvalidParameterError(c.Name, key, raw, "expected a number")
	}
	return f, nil
}

func (c *Command) floatArgOr(key string, def float64) (float64, error) {
	if !c.hasArg(key) {
		return def, nil
	}
	return c.floatArg(key)
}

func (c *Command) uintArg(key string) (uint, error) {
	raw, ok := c.Args[key]
	if !ok {
		return 0, errors.JobMissingParameterError(c.Name, key)
	}
	v, err := strconv.ParseUint(raw, 10, 0)
	if err != nil {
		return 0, errors.JobInvalidParameterError(c.Name, key, raw, "expected a non-negative integer")
	}
	return uint(v), nil
}

func (c *Command) toolArg(key string) (uint16, error) {
	raw, ok := c.Args[key]
	if !ok {
		return 0, errors.JobMissingParameterError(c.Name, key)
	}
	v, err := strconv.ParseUint(raw, 10, 16)
	if err != nil {
		return 0, errors.JobInvalidParameterError(c.Name, key, raw, "expected a tool index")
	}
	return uint16(v), nil
}

func (c *Command) stringArg(key string) string {
	return c.Args[key]
}
