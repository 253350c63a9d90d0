package types

import "errors"

// Record operation errors.
var (
	ErrNotFound    = errors.New("record not found")
	ErrInvalidID   = errors.New("invalid record ID")
	ErrInvalidName = errors.New("invalid name")
	ErrInvalidData = errors.New("invalid record data")
)

// Model registry errors. These are configuration-class failures raised
// before any backend I/O happens.
var (
	ErrModelNotFound = errors.New("model not registered")
	ErrModelExists   = errors.New("model already registered")
	ErrModelInvalid  = errors.New("invalid model definition")
)

// Backend lifecycle errors.
var (
	ErrAlreadyAttached = errors.New("backend is already attached")
	ErrDetached        = errors.New("backend is detached")
)

// Config validation errors.
var (
	ErrBackendEmpty   = errors.New("backend must not be empty")
	ErrBackendUnknown = errors.New("unknown backend")
)
