// Unified error handling for wirecam
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode represents the category of error
type ErrorCode string

const (
	// Configuration errors
	ErrConfigSection    ErrorCode = "CONFIG_SECTION"
	ErrConfigOption     ErrorCode = "CONFIG_OPTION"
	ErrConfigValidation ErrorCode = "CONFIG_VALIDATION"

	// Operation parameter errors
	ErrParamRange  ErrorCode = "PARAM_RANGE"
	ErrParamChoice ErrorCode = "PARAM_CHOICE"

	// Program structure errors
	ErrProgramParse     ErrorCode = "PROGRAM_PARSE"
	ErrProgramStructure ErrorCode = "PROGRAM_STRUCTURE"
	ErrProgramHandle    ErrorCode = "PROGRAM_HANDLE"

	// Job file errors
	ErrJobParse    ErrorCode = "JOB_PARSE"
	ErrJobDecode   ErrorCode = "JOB_DECODE"
	ErrJobGeometry ErrorCode = "JOB_GEOMETRY"

	// Runtime errors
	ErrRuntime         ErrorCode = "RUNTIME"
	ErrRuntimeCanceled ErrorCode = "RUNTIME_CANCELED"
	ErrRuntimeStore    ErrorCode = "RUNTIME_STORE"
)

// HostError is the unified error type for wirecam
type HostError struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string

	// File is the source file (if available)
	File string

	// Line is the line number in the source file (if available)
	Line int

	// Section is the config section, operation or block context
	Section string

	// Option is the parameter or config option name (if applicable)
	Option string

	// Err wraps the underlying error
	Err error

	// Context provides additional context
	Context map[string]interface{}
}

// Error implements the error interface
func (e *HostError) Error() string {
	ctx := e.Section
	if e.Option != "" {
		ctx = e.Option
	}
	msg := fmt.Sprintf("[%s:%s] %s", e.Code, ctx, e.Message)
	if e.File != "" {
		if e.Line > 0 {
			msg = fmt.Sprintf("%s (%s:%d)", msg, e.File, e.Line)
		} else {
			msg = fmt.Sprintf("%s (%s)", msg, e.File)
		}
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
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

// SetOption sets the option or parameter name
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

// ConfigValidationError creates an error for config validation failure
func ConfigValidationError(section, option string, reason string) *HostError {
	return New(ErrConfigValidation, fmt.Sprintf("option '%s' in section '%s': %s", option, section, reason)).
		SetSection(section).
		SetOption(option)
}

// Parameter errors

// ParamRangeError creates an error for an operation parameter outside its range
func ParamRangeError(param string, reason string) *HostError {
	return New(ErrParamRange, reason).SetOption(param)
}

// ParamChoiceError creates an error for an unknown choice value
func ParamChoiceError(param, value string, choices []string) *HostError {
	return New(ErrParamChoice, fmt.Sprintf("'%s' is not one of %s", value, strings.Join(choices, ", "))).
		SetOption(param)
}

// ParamErrors collects every failed parameter constraint of one operation.
type ParamErrors struct {
	Operation string
	Errors    []*HostError
}

func (p *ParamErrors) Error() string {
	parts := make([]string, 0, len(p.Errors))
	for _, e := range p.Errors {
		parts = append(parts, e.Error())
	}
	return fmt.Sprintf("operation %q: %d invalid parameter(s): %s", p.Operation, len(p.Errors), strings.Join(parts, "; "))
}

// Unwrap exposes the individual failures to errors.Is / errors.As.
func (p *ParamErrors) Unwrap() []error {
	out := make([]error, len(p.Errors))
	for i, e := range p.Errors {
		out[i] = e
	}
	return out
}

// Program errors

// ProgramStructureError creates an error for a program that breaks block structure assumptions
func ProgramStructureError(block string, reason string) *HostError {
	return New(ErrProgramStructure, reason).SetSection(block)
}

// ProgramHandleError creates an error for a missing or duplicated block handle
func ProgramHandleError(kind string, handle int, reason string) *HostError {
	return New(ErrProgramHandle, fmt.Sprintf("%s handle %d: %s", kind, handle, reason)).
		SetSection(kind).
		SetContext("handle", handle)
}

// Job errors

// JobParseError creates an error for a job file that could not be parsed
func JobParseError(file string, err error) *HostError {
	return Wrap(err, ErrJobParse, "failed to parse job file").SetFile(file)
}

// JobDecodeError creates an error for a job file whose contents do not match the schema
func JobDecodeError(file, section string, err error) *HostError {
	return Wrap(err, ErrJobDecode, "failed to decode job file").SetFile(file).SetSection(section)
}

// JobGeometryError creates an error for unusable geometry input
func JobGeometryError(file string, reason string) *HostError {
	return New(ErrJobGeometry, reason).SetFile(file)
}

// Runtime errors

// RuntimeError creates a general runtime error
func RuntimeError(message string) *HostError {
	return New(ErrRuntime, message)
}

// RuntimeCanceled wraps a context cancellation observed between pipeline stages
func RuntimeCanceled(stage string, err error) *HostError {
	return Wrap(err, ErrRuntimeCanceled, fmt.Sprintf("canceled before %s", stage)).SetSection(stage)
}

// RuntimeStoreError wraps a run-history storage failure
func RuntimeStoreError(operation string, err error) *HostError {
	return Wrap(err, ErrRuntimeStore, fmt.Sprintf("history %s failed", operation))
}

// Is checks if error (or anything it wraps) matches given error code
func Is(err error, code ErrorCode) bool {
	var hostErr *HostError
	if stderrors.As(err, &hostErr) {
		if hostErr.Code == code {
			return true
		}
	}
	var params *ParamErrors
	if stderrors.As(err, &params) {
		for _, e := range params.Errors {
			if e.Code == code {
				return true
			}
		}
	}
	return false
}

// IsParam checks if error is an operation parameter error
func IsParam(err error) bool {
	return Is(err, ErrParamRange) || Is(err, ErrParamChoice)
}

// IsProgram checks if error is a program structure error
func IsProgram(err error) bool {
	return Is(err, ErrProgramParse) ||
		Is(err, ErrProgramStructure) ||
		Is(err, ErrProgramHandle)
}

// IsJob checks if error is a job file error
func IsJob(err error) bool {
	return Is(err, ErrJobParse) ||
		Is(err, ErrJobDecode) ||
		Is(err, ErrJobGeometry)
}
