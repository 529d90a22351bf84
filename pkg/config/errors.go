// Package config reads the machine configuration that drives a G-code
// writer: INI-style [section] blocks of "key: value" options, with
// include directives, typed getters and tracking of which options were
// used.
package config

import (
	"fmt"

	"gcodewriter/pkg/errors"
)

// ConfigError represents a configuration error with context.
type ConfigError struct {
	Section string
	Option  string
	Message string
	Cause   error
}

func (e *ConfigError) Error() string {
	if e.Option != "" {
		return fmt.Sprintf("Option '%s' in section '%s': %s", e.Option, e.Section, e.Message)
	}
	if e.Section != "" {
		return fmt.Sprintf("Section '%s': %s", e.Section, e.Message)
	}
	return e.Message
}

func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// NewConfigError creates a new ConfigError.
func NewConfigError(section, option, message string) *ConfigError {
	return &ConfigError{
		Section: section,
		Option:  option,
		Message: message,
	}
}

// ErrMissingOption returns an error for a required but missing option.
func ErrMissingOption(section, option string) *ConfigError {
	return &ConfigError{
		Section: section,
		Option:  option,
		Message: "must be specified",
	}
}

// ErrMissingSection returns an error for a missing section.
func ErrMissingSection(section string) *ConfigError {
	return &ConfigError{
		Section: section,
		Message: "section not found",
	}
}

// ErrInvalidValue returns an error for an invalid value.
func ErrInvalidValue(section, option, value, expected string) *ConfigError {
	return &ConfigError{
		Section: section,
		Option:  option,
		Message: fmt.Sprintf("invalid value '%s', expected %s", value, expected),
	}
}

// ErrOutOfRange returns an error for a value outside the allowed range.
func ErrOutOfRange(section, option string, value float64, constraint string) *ConfigError {
	return &ConfigError{
		Section: section,
		Option:  option,
		Message: fmt.Sprintf("value %v %s", value, constraint),
	}
}

// hostError converts err to the writer's unified error type, keeping
// section and option.
func hostError(err error) error {
	ce, ok := err.(*ConfigError)
	if !ok {
		return err
	}
	code := errors.ErrConfigValidation
	if ce.Option == "" && ce.Section != "" {
		code = errors.ErrConfigSection
	}
	he := errors.Wrap(ce, code, ce.Error())
	if ce.Section != "" {
		he.SetSection(ce.Section)
	}
	if ce.Option != "" {
		he.SetOption(ce.Option)
	}
	return he
}
