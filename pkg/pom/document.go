// Package pom reads Maven project object model documents from disk.
package pom

import "github.com/ritzau/pom-graph/pkg/properties"

// Namespace is the XML namespace POM 4.0.0 elements live in.
const Namespace = "http://maven.apache.org/POM/4.0.0"

// Document is the parsed form of one POM file.
// Optional fields are nil when the element is absent. Values are raw and may
// still contain ${...} placeholders.
type Document struct {
	GroupID      *string
	ArtifactID   *string
	Version      *string
	Parent       *ParentRef
	Properties   properties.Table
	Dependencies []Dependency
}

// ParentRef is the <parent> block of a POM.
type ParentRef struct {
	GroupID    *string
	ArtifactID *string
	Version    *string
}

// Valid reports whether all three parent coordinates are present.
// A partially specified parent does not take part in inheritance.
func (p *ParentRef) Valid() bool {
	return p != nil && p.GroupID != nil && p.ArtifactID != nil && p.Version != nil
}

// Dependency is one <dependency> declaration.
type Dependency struct {
	GroupID    *string
	ArtifactID *string
	Version    *string
}

// Complete reports whether the dependency names both a group and an artifact.
func (d Dependency) Complete() bool {
	return d.GroupID != nil && d.ArtifactID != nil
}
