package types

import "errors"

// Sentinel errors returned across the core packages. Callers match them
// with errors.Is after unwrapping.
var (
	ErrIndexOutOfRange        = errors.New("Agent ID out of range")
	ErrDimensionMismatch      = errors.New("vector dimension mismatch")
	ErrMissingMemoryKey       = errors.New("memory key not found")
	ErrUnsupportedCapability  = errors.New("capability not supported by agent")
	ErrInsufficientPopulation = errors.New("population too small to evolve")
)
