// Package config parses the machine configuration file: an INI style
// file of [section] blocks with typed, bounds-checked option accessors.
package config

import (
	"fmt"

	"wirecam/pkg/errors"
)

// NewConfigError creates a validation error for a section/option.
func NewConfigError(section, option, message string) *errors.HostError {
	return errors.New(errors.ErrConfigValidation, message).SetSection(section).SetOption(option)
}

// ErrMissingOption returns an error for a required but missing option.
func ErrMissingOption(section, option string) *errors.HostError {
	return errors.New(errors.ErrConfigOption, fmt.Sprintf("option '%s' in section '%s' must be specified", option, section)).
		SetSection(section).
		SetOption(option)
}

// ErrMissingSection returns an error for a missing section.
func ErrMissingSection(section string) *errors.HostError {
	return errors.New(errors.ErrConfigSection, fmt.Sprintf("section '%s' not found", section)).SetSection(section)
}

// ErrInvalidValue returns an error for a value that does not parse.
func ErrInvalidValue(section, option, value, expected string) *errors.HostError {
	return errors.New(errors.ErrConfigOption, fmt.Sprintf("invalid value '%s', expected %s", value, expected)).
		SetSection(section).
		SetOption(option)
}

// ErrOutOfRange returns an error for a value outside the allowed range.
func ErrOutOfRange(section, option string, value float64, constraint string) *errors.HostError {
	return errors.ConfigValidationError(section, option, fmt.Sprintf("value %v %s", value, constraint))
}

// ErrInvalidChoice returns an error for an invalid choice value.
func ErrInvalidChoice(section, option, value string, choices []string) *errors.HostError {
	return errors.ConfigValidationError(section, option, fmt.Sprintf("'%s' is not a valid choice (valid: %v)", value, choices))
}
