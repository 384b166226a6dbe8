package analysis

import (
	"errors"

	"github.com/ritzau/pom-graph/pkg/pom"
	"github.com/ritzau/pom-graph/pkg/resolver"
)

// Issues counts the recoverable problems met during one run, per kind
type Issues struct {
	NotFound                int `json:"notFound"`
	MalformedDocument       int `json:"malformedDocument"`
	MissingArtifactID       int `json:"missingArtifactId"`
	MissingDependencyFields int `json:"missingDependencyFields"`
	CyclicInheritance       int `json:"cyclicInheritance"`
	Other                   int `json:"other"`
}

// Record classifies err and increments its counter
func (i *Issues) Record(err error) {
	switch {
	case errors.Is(err, pom.ErrNotFound):
		i.NotFound++
	case errors.Is(err, pom.ErrMalformedDocument):
		i.MalformedDocument++
	case errors.Is(err, resolver.ErrMissingArtifactID):
		i.MissingArtifactID++
	case errors.Is(err, resolver.ErrMissingDependencyFields):
		i.MissingDependencyFields++
	case errors.Is(err, resolver.ErrCyclicInheritance):
		i.CyclicInheritance++
	default:
		i.Other++
	}
}

// Total returns the number of recorded issues
func (i Issues) Total() int {
	return i.NotFound + i.MalformedDocument + i.MissingArtifactID +
		i.MissingDependencyFields + i.CyclicInheritance + i.Other
}

// ByKind returns every counter keyed by its JSON name
func (i Issues) ByKind() map[string]int {
	return map[string]int{
		"notFound":                i.NotFound,
		"malformedDocument":       i.MalformedDocument,
		"missingArtifactId":       i.MissingArtifactID,
		"missingDependencyFields": i.MissingDependencyFields,
		"cyclicInheritance":       i.CyclicInheritance,
		"other":                   i.Other,
	}
}
