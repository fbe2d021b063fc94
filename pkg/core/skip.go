package core

import "strings"

// SkipCode records why a definition will not execute.
type SkipCode int

// Skip codes.
const (
	// SkipNone means the definition is not skipped.
	SkipNone SkipCode = iota
	// SkipClassMarker means the class carries the Skip marker.
	SkipClassMarker
	// SkipMethodMarker means the method carries the Skip marker.
	SkipMethodMarker
	// SkipDependencyFailure means an upstream dependency failed at run time.
	SkipDependencyFailure
)

// String returns the string representation of the skip code.
func (c SkipCode) String() string {
	switch c {
	case SkipNone:
		return "none"
	case SkipClassMarker:
		return "skipped-by-class-marker"
	case SkipMethodMarker:
		return "skipped-by-method-marker"
	case SkipDependencyFailure:
		return "skipped-by-dependency-failure"
	default:
		return "unknown"
	}
}

// ParseSkipCode converts a string to a SkipCode.
// Returns SkipNone and false if the string is not a known code.
func ParseSkipCode(s string) (SkipCode, bool) {
	switch strings.ToLower(s) {
	case "none", "":
		return SkipNone, true
	case "skipped-by-class-marker":
		return SkipClassMarker, true
	case "skipped-by-method-marker":
		return SkipMethodMarker, true
	case "skipped-by-dependency-failure":
		return SkipDependencyFailure, true
	default:
		return SkipNone, false
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c SkipCode) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// ConstructorStrategy determines how test instances are built at run time.
type ConstructorStrategy string

// Constructor strategies.
const (
	ConstructorNoArg         ConstructorStrategy = "no-arg"
	ConstructorSingleContext ConstructorStrategy = "single-arg-context"
)
