package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/ritzau/pom-graph/pkg/analysis"
)

// PrintSummary prints a colored overview of an analysis report to w
func PrintSummary(w io.Writer, report *analysis.Report) {
	bold := color.New(color.Bold)
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	summary := report.Summary()

	bold.Fprintln(w, "POM Dependency Graph")
	bold.Fprintln(w, "====================")
	fmt.Fprintf(w, "POM: %s\n", report.POMPath)
	if summary.Root == "" {
		yellow.Fprintln(w, "Root: (no artifactId)")
	} else {
		fmt.Fprint(w, "Root: ")
		cyan.Fprintln(w, summary.Root)
	}
	fmt.Fprintf(w, "Artifacts: %d  Edges: %d\n", summary.Artifacts, summary.Edges)

	if summary.Unexpanded > 0 {
		yellow.Fprintf(w, "Not in repository: %d artifact(s)\n", summary.Unexpanded)
	}
	fmt.Fprintln(w)

	if c := report.Changes; c != nil && !c.Initial {
		if c.Empty() {
			fmt.Fprintln(w, "No changes since the previous run")
		} else {
			cyan.Fprintf(w, "Changes: +%d/-%d artifacts, +%d/-%d edges\n",
				len(c.AddedNodes), len(c.RemovedNodes), len(c.AddedEdges), len(c.RemovedEdges))
			for _, e := range c.AddedEdges {
				green.Fprintf(w, "  + %s -> %s\n", e.Source, e.Target)
			}
			for _, e := range c.RemovedEdges {
				red.Fprintf(w, "  - %s -> %s\n", e.Source, e.Target)
			}
		}
		fmt.Fprintln(w)
	}

	if len(report.Cycles) > 0 {
		red.Fprintf(w, "DEPENDENCY CYCLES (%d):\n", len(report.Cycles))
		for _, c := range report.Cycles {
			yellow.Fprintf(w, "  %s\n", strings.Join(c.Artifacts, ", "))
		}
		fmt.Fprintln(w)
	}

	if total := report.Issues.Total(); total > 0 {
		yellow.Fprintf(w, "Skipped %d problem(s):\n", total)
		printIssue(w, "missing POM", report.Issues.NotFound)
		printIssue(w, "malformed POM", report.Issues.MalformedDocument)
		printIssue(w, "missing artifactId", report.Issues.MissingArtifactID)
		printIssue(w, "incomplete dependency", report.Issues.MissingDependencyFields)
		printIssue(w, "cyclic parent chain", report.Issues.CyclicInheritance)
		printIssue(w, "other", report.Issues.Other)
		fmt.Fprintln(w)
	}

	if len(report.Cycles) == 0 && report.Issues.Total() == 0 {
		green.Fprintf(w, "✓ Diagram written to %s\n", report.OutputPath)
	} else {
		fmt.Fprintf(w, "Diagram written to %s\n", report.OutputPath)
	}
}

func printIssue(w io.Writer, label string, count int) {
	if count > 0 {
		fmt.Fprintf(w, "  %-22s %d\n", label+":", count)
	}
}
