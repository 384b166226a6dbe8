package pom

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/ritzau/pom-graph/pkg/properties"
)

var (
	// ErrNotFound indicates the referenced POM does not exist on disk.
	ErrNotFound = errors.New("pom not found")

	// ErrMalformedDocument indicates the content is not a well-formed POM.
	ErrMalformedDocument = errors.New("malformed pom document")
)

// projectXML mirrors the top-level fields of the POM schema the resolver
// reads. Tags carry no namespace so both namespaced and bare documents match.
// Dependencies are collected separately by collectDependencies.
type projectXML struct {
	XMLName    xml.Name       `xml:"project"`
	GroupID    *string        `xml:"groupId"`
	ArtifactID *string        `xml:"artifactId"`
	Version    *string        `xml:"version"`
	Parent     *parentXML     `xml:"parent"`
	Properties *propertiesXML `xml:"properties"`
}

type parentXML struct {
	GroupID    *string `xml:"groupId"`
	ArtifactID *string `xml:"artifactId"`
	Version    *string `xml:"version"`
}

type propertiesXML struct {
	Entries []propertyXML `xml:",any"`
}

type propertyXML struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

type dependencyXML struct {
	GroupID    *string `xml:"groupId"`
	ArtifactID *string `xml:"artifactId"`
	Version    *string `xml:"version"`
}

// ReadFile reads and parses the POM at path.
func ReadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Parse parses POM content.
func Parse(data []byte) (*Document, error) {
	var raw projectXML
	if err := xml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	doc := &Document{
		GroupID:    trimmed(raw.GroupID),
		ArtifactID: trimmed(raw.ArtifactID),
		Version:    trimmed(raw.Version),
		Properties: make(properties.Table),
	}

	if raw.Parent != nil {
		doc.Parent = &ParentRef{
			GroupID:    trimmed(raw.Parent.GroupID),
			ArtifactID: trimmed(raw.Parent.ArtifactID),
			Version:    trimmed(raw.Parent.Version),
		}
	}

	if raw.Properties != nil {
		for _, entry := range raw.Properties.Entries {
			// XMLName.Local already has the namespace stripped
			doc.Properties[entry.XMLName.Local] = strings.TrimSpace(entry.Value)
		}
	}

	deps, err := collectDependencies(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	doc.Dependencies = deps

	return doc, nil
}

// collectDependencies returns every <dependency> element anywhere in the
// document, in document order. That includes dependencyManagement, plugin
// and profile dependencies. Elements in a namespace other than the POM one
// are skipped.
func collectDependencies(data []byte) ([]Dependency, error) {
	deps := make([]Dependency, 0)
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return deps, nil
		}
		if err != nil {
			return nil, err
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "dependency" {
			continue
		}
		if start.Name.Space != "" && start.Name.Space != Namespace {
			continue
		}

		var dep dependencyXML
		if err := dec.DecodeElement(&dep, &start); err != nil {
			return nil, err
		}
		deps = append(deps, Dependency{
			GroupID:    trimmed(dep.GroupID),
			ArtifactID: trimmed(dep.ArtifactID),
			Version:    trimmed(dep.Version),
		})
	}
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
