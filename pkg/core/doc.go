// Package core defines the shared language of the leaptest loading pipeline.
//
// This package contains:
//   - Discovery input (Artifact, ContainerKind)
//   - Declarative metadata (Marker, MarkerSource)
//   - Resolved entities (TestClassDefinition, TestMethodDefinition, DependencyRef)
//   - Collaborator contracts (MethodLoader, ClassServices)
//   - The error taxonomy shared by every pipeline stage
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
