package resolver

import "errors"

var (
	// ErrMissingArtifactID indicates a POM without the artifactId needed to form its coordinate.
	ErrMissingArtifactID = errors.New("missing artifactId")

	// ErrMissingDependencyFields indicates a dependency declaration without groupId or artifactId.
	ErrMissingDependencyFields = errors.New("dependency missing groupId or artifactId")

	// ErrCyclicInheritance indicates a parent reference that points back into its own parent chain.
	ErrCyclicInheritance = errors.New("cyclic parent inheritance")
)
