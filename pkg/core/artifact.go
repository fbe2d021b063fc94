package core

import (
	"path/filepath"
	"strings"
)

// ContainerKind describes where a discovered class descriptor lives.
type ContainerKind string

// Container kinds.
const (
	ContainerDirectory ContainerKind = "directory"
	ContainerArchive   ContainerKind = "archive"
)

// ParseContainerKind converts a string to a ContainerKind.
// Matching is case-insensitive; "jar" and "zip" are accepted as archive aliases.
func ParseContainerKind(s string) (ContainerKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "directory", "dir":
		return ContainerDirectory, true
	case "archive", "zip", "jar":
		return ContainerArchive, true
	default:
		return "", false
	}
}

// Artifact describes one candidate test class produced by discovery.
// It is consumed read-only by the pipeline.
type Artifact struct {
	// Name is the bare class name (e.g. "LoginTest")
	Name string `json:"name"`
	// Package is the dotted package path, possibly empty (e.g. "suites.smoke")
	Package string `json:"package,omitempty"`
	// Kind is the container kind: directory or archive
	Kind ContainerKind `json:"kind"`
	// Container identifies the container (archive file name or test dir name)
	Container string `json:"container"`
	// Dir is the absolute directory holding the container
	Dir string `json:"dir"`
}

// QualifiedName returns the fully qualified class name.
// An empty package means the qualified name is the bare name.
func (a Artifact) QualifiedName() string {
	if a.Package == "" {
		return a.Name
	}
	return a.Package + "." + a.Name
}

// ArchivePath returns the absolute path of the archive for archive artifacts.
func (a Artifact) ArchivePath() string {
	return filepath.Join(a.Dir, a.Container)
}
