package config

import (
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Section is one [name] block. Every getter that returns a value,
// fallback included, marks the option as used.
type Section struct {
	name    string
	options map[string]string

	mu       sync.RWMutex
	accessed map[string]struct{}
}

func newSection(name string, options map[string]string) *Section {
	opts := make(map[string]string, len(options))
	for k, v := range options {
		opts[strings.ToLower(k)] = v
	}
	return &Section{
		name:     name,
		options:  opts,
		accessed: make(map[string]struct{}),
	}
}

// GetName returns the section name as written in the header.
func (s *Section) GetName() string {
	return s.name
}

func (s *Section) markAccessed(option string) {
	s.mu.Lock()
	s.accessed[strings.ToLower(option)] = struct{}{}
	s.mu.Unlock()
}

// GetUnusedOptions returns the sorted options no getter asked for.
func (s *Section) GetUnusedOptions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var unused []string
	for opt := range s.options {
		if _, ok := s.accessed[opt]; !ok {
			unused = append(unused, opt)
		}
	}
	sort.Strings(unused)
	return unused
}

func (s *Section) HasOption(option string) bool {
	_, ok := s.options[strings.ToLower(option)]
	return ok
}

// RawOptions returns a copy of the option map with lower-cased keys.
func (s *Section) RawOptions() map[string]string {
	out := make(map[string]string, len(s.options))
	for k, v := range s.options {
		out[k] = v
	}
	return out
}

// getOption fetches option and converts it with parse. A missing option
// yields the first fallback, or a missing-option error without one.
func getOption[T any](s *Section, option string, parse func(raw string) (T, error), fallback []T) (T, error) {
	var zero T
	raw, ok := s.options[strings.ToLower(option)]
	if !ok {
		if len(fallback) == 0 {
			return zero, ErrMissingOption(s.name, option)
		}
		s.markAccessed(option)
		return fallback[0], nil
	}
	s.markAccessed(option)
	return parse(strings.TrimSpace(raw))
}

// Get returns option with surrounding whitespace removed.
func (s *Section) Get(option string, fallback ...string) (string, error) {
	return getOption(s, option, func(raw string) (string, error) { return raw, nil }, fallback)
}

func (s *Section) GetInt(option string, fallback ...int) (int, error) {
	return getOption(s, option, func(raw string) (int, error) {
		i, err := strconv.Atoi(raw)
		if err != nil {
			return 0, ErrInvalidValue(s.name, option, raw, "integer")
		}
		return i, nil
	}, fallback)
}

// GetIntWithBounds is GetInt with inclusive limits; nil means unbounded.
func (s *Section) GetIntWithBounds(option string, minVal, maxVal *int, fallback ...int) (int, error) {
	v, err := s.GetInt(option, fallback...)
	if err != nil {
		return 0, err
	}
	switch {
	case minVal != nil && v < *minVal:
		return 0, ErrOutOfRange(s.name, option, float64(v), "must have minimum of "+strconv.Itoa(*minVal))
	case maxVal != nil && v > *maxVal:
		return 0, ErrOutOfRange(s.name, option, float64(v), "must have maximum of "+strconv.Itoa(*maxVal))
	}
	return v, nil
}

func (s *Section) GetFloat(option string, fallback ...float64) (float64, error) {
	return getOption(s, option, func(raw string) (float64, error) {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, ErrInvalidValue(s.name, option, raw, "float")
		}
		return f, nil
	}, fallback)
}

// FloatBounds limits GetFloatWithBounds. MinVal and MaxVal are inclusive,
// Above and Below exclusive.
type FloatBounds struct {
	MinVal *float64
	MaxVal *float64
	Above  *float64
	Below  *float64
}

func (b FloatBounds) check(v float64) string {
	ff := func(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
	switch {
	case b.MinVal != nil && v < *b.MinVal:
		return "must have minimum of " + ff(*b.MinVal)
	case b.MaxVal != nil && v > *b.MaxVal:
		return "must have maximum of " + ff(*b.MaxVal)
	case b.Above != nil && v <= *b.Above:
		return "must be above " + ff(*b.Above)
	case b.Below != nil && v >= *b.Below:
		return "must be below " + ff(*b.Below)
	}
	return ""
}

func (s *Section) GetFloatWithBounds(option string, bounds FloatBounds, fallback ...float64) (float64, error) {
	v, err := s.GetFloat(option, fallback...)
	if err != nil {
		return 0, err
	}
	if msg := bounds.check(v); msg != "" {
		return 0, ErrOutOfRange(s.name, option, v, msg)
	}
	return v, nil
}

// GetBool accepts 1/0, true/false, yes/no and on/off.
func (s *Section) GetBool(option string, fallback ...bool) (bool, error) {
	return getOption(s, option, func(raw string) (bool, error) {
		switch strings.ToLower(raw) {
		case "1", "true", "yes", "on":
			return true, nil
		case "0", "false", "no", "off":
			return false, nil
		}
		return false, ErrInvalidValue(s.name, option, raw, "boolean (true/false/yes/no/on/off/1/0)")
	}, fallback)
}

// GetPercent reads "70%" as 0.7. The percent sign is optional.
func (s *Section) GetPercent(option string, fallback ...float64) (float64, error) {
	return getOption(s, option, func(raw string) (float64, error) {
		f, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(raw, "%")), 64)
		if err != nil {
			return 0, ErrInvalidValue(s.name, option, raw, "percentage")
		}
		if f < 0 || f > 100 {
			return 0, ErrOutOfRange(s.name, option, f, "must be between 0% and 100%")
		}
		return f / 100, nil
	}, fallback)
}
