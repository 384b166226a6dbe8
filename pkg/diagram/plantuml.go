// Package diagram renders a dependency graph as a PlantUML edge list.
package diagram

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/ritzau/pom-graph/pkg/model"
)

const (
	header  = "@startuml"
	trailer = "@enduml"
)

// Write writes g to w as a PlantUML diagram: a header, one
// "source" --> "target" line per edge in graph order, and a trailer.
// Edges are written verbatim without de-duplication.
func Write(w io.Writer, g *model.Graph) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, header)
	for _, root := range g.Roots() {
		for _, dep := range g.Dependencies(root) {
			fmt.Fprintf(bw, "\"%s\" --> \"%s\"\n", root, dep)
		}
	}
	fmt.Fprintln(bw, trailer)

	return bw.Flush()
}

// WriteFile creates or truncates path and writes g to it.
func WriteFile(path string, g *model.Graph) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating diagram: %w", err)
	}

	if err := Write(file, g); err != nil {
		_ = file.Close()
		return fmt.Errorf("writing diagram %s: %w", path, err)
	}
	return file.Close()
}
