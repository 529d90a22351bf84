// Unified error handling for the G-code writer
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package errors

import (
	"fmt"
	"runtime"
)

// ErrorCode represents the category of error
type ErrorCode string

const (
	// Configuration errors
	ErrConfigSection    ErrorCode = "CONFIG_SECTION"
	ErrConfigOption     ErrorCode = "CONFIG_OPTION"
	ErrConfigValidation ErrorCode = "CONFIG_VALIDATION"
	ErrConfigType       ErrorCode = "CONFIG_TYPE"
	ErrConfigFlavor     ErrorCode = "CONFIG_FLAVOR"

	// Job script errors
	ErrJobParse        ErrorCode = "JOB_PARSE"
	ErrJobUnknownCmd   ErrorCode = "JOB_UNKNOWN_CMD"
	ErrJobMissingParam ErrorCode = "JOB_MISSING_PARAM"
	ErrJobInvalidParam ErrorCode = "JOB_INVALID_PARAM"

	// Caller misuse of the emitter API. Always fatal for the session.
	ErrContractViolation ErrorCode = "CONTRACT_VIOLATION"

	// Runtime errors
	ErrRuntime       ErrorCode = "RUNTIME"
	ErrRuntimeOutput ErrorCode = "RUNTIME_OUTPUT"
)

// HostError is the unified error type for the writer
type HostError struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string

	// File is the source file (if available)
	File string

	// Line is the line number in the source file (if available)
	Line int

	// Section is the config section or context
	Section string

	// Option is the config option name (if applicable)
	Option string

	// Err wraps the underlying error
	Err error

	// Context provides additional context
	Context map[string]interface{}
}

// Error implements the error interface
func (e *HostError) Error() string {
	if e.Line > 0 {
		if e.File != "" {
			return fmt.Sprintf("[%s] %s:%d: %s", e.Code, e.File, e.Line, e.Message)
		}
		return fmt.Sprintf("[%s] line %d: %s", e.Code, e.Line, e.Message)
	}
	if e.Option != "" {
		return fmt.Sprintf("[%s:%s] %s", e.Code, e.Option, e.Message)
	}
	if e.Section != "" {
		return fmt.Sprintf("[%s:%s] %s", e.Code, e.Section, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *HostError) Unwrap() error {
	return e.Err
}

// SetFile sets the source file
func (e *HostError) SetFile(file string) *HostError {
	e.File = file
	return e
}

// SetLine sets the line number
func (e *HostError) SetLine(line int) *HostError {
	e.Line = line
	return e
}

// SetSection sets the context section
func (e *HostError) SetSection(section string) *HostError {
	e.Section = section
	return e
}

// SetOption sets the config option
func (e *HostError) SetOption(option string) *HostError {
	e.Option = option
	return e
}

// SetContext adds additional context
func (e *HostError) SetContext(key string, value interface{}) *HostError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// Wrap wraps an existing error with additional context
func Wrap(err error, code ErrorCode, message string) *HostError {
	return &HostError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// New creates a new HostError
func New(code ErrorCode, message string) *HostError {
	return &HostError{
		Code:    code,
		Message: message,
	}
}

// Config errors

// ConfigSectionError creates an error for missing config section
func ConfigSectionError(section string) *HostError {
	return New(ErrConfigSection, fmt.Sprintf("section '%s' not found", section)).
		SetSection(section)
}

// ConfigValidationError creates an error for config validation failure
func ConfigValidationError(section, option string, reason string) *HostError {
	return New(ErrConfigValidation, fmt.Sprintf("option '%s' in section '%s': %s", option, section, reason)).
		SetSection(section).
		SetOption(option)
}

// UnknownFlavorError reports a gcode_flavor value outside the supported set.
func UnknownFlavorError(name string) *HostError {
	return New(ErrConfigFlavor, fmt.Sprintf("unknown G-code flavor '%s'", name)).
		SetOption("flavor")
}

// Job errors

// JobParseError creates an error for a malformed job line
func JobParseError(line string, reason string) *HostError {
	return New(ErrJobParse, fmt.Sprintf("failed to parse job line: %s (reason: %s)", line, reason))
}

// JobUnknownCommandError creates an error for an unknown job command
func JobUnknownCommandError(command string) *HostError {
	return New(ErrJobUnknownCmd, fmt.Sprintf("unknown job command: %s", command))
}

// JobMissingParameterError creates an error for a missing job parameter
func JobMissingParameterError(command, param string) *HostError {
	return New(ErrJobMissingParam, fmt.Sprintf("job command '%s' missing required parameter: %s", command, param))
}

// JobInvalidParameterError creates an error for an unparsable job parameter
func JobInvalidParameterError(command, param, value string, reason string) *HostError {
	return New(ErrJobInvalidParam, fmt.Sprintf("job command '%s': invalid parameter '%s=%s' (%s)", command, param, value, reason))
}

// Contract violations

// ContractViolation creates the error raised when the emitter API is misused.
func ContractViolation(operation string, reason string) *HostError {
	return New(ErrContractViolation, fmt.Sprintf("%s: %s", operation, reason)).
		SetContext("operation", operation)
}

// Runtime errors

// RuntimeError creates a general runtime error
func RuntimeError(message string) *HostError {
	return New(ErrRuntime, message)
}

// OutputError wraps a failure to write generated G-code
func OutputError(err error) *HostError {
	return Wrap(err, ErrRuntimeOutput, fmt.Sprintf("writing output: %v", err))
}

// WithLineNumber adds line number to error context
func WithLineNumber(err *HostError, line int) *HostError {
	if err == nil {
		return nil
	}
	err.SetLine(line)
	return err
}

// FromPanic converts a recovered panic value into a HostError. A HostError
// carried by the panic is returned as is.
func FromPanic(r interface{}) *HostError {
	switch x := r.(type) {
	case *HostError:
		return x
	case string:
		return RuntimeError(fmt.Sprintf("panic: %s", x))
	case runtime.Error:
		return RuntimeError(x.Error())
	case error:
		return Wrap(x, ErrRuntime, x.Error())
	default:
		return RuntimeError(fmt.Sprintf("panic: %v", x))
	}
}

// Is checks if error matches given error code
func Is(err error, code ErrorCode) bool {
	if hostErr, ok := err.(*HostError); ok {
		return hostErr.Code == code
	}
	return false
}

// IsConfig checks if error is a config error
func IsConfig(err error) bool {
	return Is(err, ErrConfigSection) ||
		Is(err, ErrConfigOption) ||
		Is(err, ErrConfigValidation) ||
		Is(err, ErrConfigType) ||
		Is(err, ErrConfigFlavor)
}

// IsJob checks if error is a job script error
func IsJob(err error) bool {
	return Is(err, ErrJobParse) ||
		Is(err, ErrJobUnknownCmd) ||
		Is(err, ErrJobMissingParam) ||
		Is(err, ErrJobInvalidParam)
}

// IsContractViolation checks if error reports emitter API misuse
func IsContractViolation(err error) bool {
	return Is(err, ErrContractViolation)
}
