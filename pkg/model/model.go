package model

import "fmt"

// Fallback field values used when a POM leaves a coordinate field out.
const (
	UnknownGroup       = "unknown"
	UnspecifiedVersion = "unspecified"
)

// Coordinate identifies a Maven artifact
type Coordinate struct {
	Group    string `json:"group"`    // e.g., "org.apache.commons"
	Artifact string `json:"artifact"` // e.g., "commons-lang3"
	Version  string `json:"version"`  // e.g., "3.14.0"
}

// String returns the canonical "group:artifact:version" key used in the graph
func (c Coordinate) String() string {
	return fmt.Sprintf("%s:%s:%s", c.Group, c.Artifact, c.Version)
}
