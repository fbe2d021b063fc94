package core

import (
	"errors"
	"fmt"
	"strings"
)

// Diagnostic is implemented by pipeline errors that carry full context
// for the fatal-error channel: the class, the offending attribute(s) and
// corrective guidance.
type Diagnostic interface {
	error
	Details() []string
}

// LoadAttempt records one class resolution strategy that was tried.
type LoadAttempt struct {
	Root string
	Name string
	Err  error
}

// ClassLoadError is returned when no resolution strategy located a class.
// It is the only recoverable pipeline error: the batch logs it and moves on.
type ClassLoadError struct {
	Class    string
	Attempts []LoadAttempt
}

func (e *ClassLoadError) Error() string {
	if len(e.Attempts) == 0 {
		return fmt.Sprintf("unable to load test class %s", e.Class)
	}
	last := e.Attempts[len(e.Attempts)-1]
	return fmt.Sprintf("unable to load test class %s (%d strategies tried, last: %v)", e.Class, len(e.Attempts), last.Err)
}

// Unwrap returns the causes of every attempt.
func (e *ClassLoadError) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		if a.Err != nil {
			errs = append(errs, a.Err)
		}
	}
	return errs
}

// Details lists every attempt and its cause.
func (e *ClassLoadError) Details() []string {
	lines := []string{fmt.Sprintf("Unable to load test class: %s", e.Class)}
	for i, a := range e.Attempts {
		lines = append(lines, fmt.Sprintf("  %d. %s from %s: %v", i+1, a.Name, a.Root, a.Err))
	}
	return lines
}

// ConfigurationError reports a defect in a user's test class declaration.
// It is always fatal: the run must not proceed with a partially valid registry.
type ConfigurationError struct {
	// Class is the qualified class name
	Class string
	// Method is set for method-level errors
	Method string
	// Attribute names the offending marker or parameter (e.g. "Instances.count")
	Attribute string
	// Message describes the defect
	Message string
	// Context holds additional lines (declared markers, accepted shapes, ...)
	Context []string
	// Guidance tells the user how to fix the declaration
	Guidance string
}

func (e *ConfigurationError) Error() string {
	subject := e.Class
	if e.Method != "" {
		subject = e.Class + "." + e.Method
	}
	if e.Attribute != "" {
		return fmt.Sprintf("%s: %s: %s", subject, e.Attribute, e.Message)
	}
	return fmt.Sprintf("%s: %s", subject, e.Message)
}

// Details renders the full diagnostic block.
func (e *ConfigurationError) Details() []string {
	lines := []string{fmt.Sprintf("There is a critical error with your test class: %s", e.Class)}
	if e.Method != "" {
		lines = append(lines, fmt.Sprintf("Method: %s", e.Method))
	}
	if e.Attribute != "" {
		lines = append(lines, fmt.Sprintf("Attribute: %s", e.Attribute))
	}
	lines = append(lines, e.Message)
	lines = append(lines, e.Context...)
	if e.Guidance != "" {
		lines = append(lines, e.Guidance)
	}
	return lines
}

// DuplicateDefinitionError is returned when a class is registered twice.
// It indicates a discovery defect (the same class found in two places).
type DuplicateDefinitionError struct {
	Class string
}

func (e *DuplicateDefinitionError) Error() string {
	return fmt.Sprintf("test class %s is already registered", e.Class)
}

// Details renders the full diagnostic block.
func (e *DuplicateDefinitionError) Details() []string {
	return []string{
		fmt.Sprintf("Test class %s was discovered more than once.", e.Class),
		"Each class may be loaded at most once per run.",
		"Remove the duplicate class descriptor or archive from the test directory.",
	}
}

// DependencyIssueKind classifies a dependency validation failure.
type DependencyIssueKind string

// Dependency issue kinds.
const (
	DependencyUnresolved DependencyIssueKind = "unresolved"
	DependencyCycle      DependencyIssueKind = "cycle"
)

// DependencyIssue is one offending dependency edge.
type DependencyIssue struct {
	Kind DependencyIssueKind `json:"kind"`
	Edge DependencyRef       `json:"edge"`
}

// DependencyValidationError aggregates every unresolved or cyclic dependency edge.
type DependencyValidationError struct {
	Issues []DependencyIssue
}

func (e *DependencyValidationError) Error() string {
	var unresolved, cyclic int
	for _, is := range e.Issues {
		if is.Kind == DependencyCycle {
			cyclic++
		} else {
			unresolved++
		}
	}
	return fmt.Sprintf("dependency validation failed: %d unresolved, %d cyclic edge(s)", unresolved, cyclic)
}

// Details lists every offending edge.
func (e *DependencyValidationError) Details() []string {
	lines := []string{"Dependency validation failed for the following declarations:"}
	for _, is := range e.Issues {
		lines = append(lines, fmt.Sprintf("  [%s] %s", is.Kind, is.Edge))
	}
	lines = append(lines, "Fix the depends-on declarations so every target exists and no cycle remains.")
	return lines
}

// Edges returns the offending edges of the given kind.
func (e *DependencyValidationError) Edges(kind DependencyIssueKind) []DependencyRef {
	var edges []DependencyRef
	for _, is := range e.Issues {
		if is.Kind == kind {
			edges = append(edges, is.Edge)
		}
	}
	return edges
}

// IsFatal reports whether err must halt the whole run.
// Everything except a ClassLoadError is fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var cle *ClassLoadError
	return !errors.As(err, &cle)
}

// DiagnosticLines extracts the full diagnostic block from err, falling back
// to its message. Joined errors contribute the lines of every member.
func DiagnosticLines(err error) []string {
	if d, ok := err.(Diagnostic); ok {
		return d.Details()
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var lines []string
		for _, e := range joined.Unwrap() {
			lines = append(lines, DiagnosticLines(e)...)
		}
		return lines
	}
	var d Diagnostic
	if errors.As(err, &d) {
		return d.Details()
	}
	return strings.Split(err.Error(), "\n")
}
