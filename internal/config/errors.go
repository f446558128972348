package config

import (
	"errors"
	"fmt"
)

var ErrConfigNotFound = errors.New("configuration file not found")

// ParseError wraps a YAML syntax failure.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// SchemaError aggregates every structural problem found in one pass, so the
// operator does not fix one field per rerun.
type SchemaError struct {
	Err error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("invalid configuration: %v", e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// ErrUnknownService is returned by enable/disable for a missing service key.
var ErrUnknownService = errors.New("unknown service")
