package resolver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ritzau/pom-graph/pkg/model"
	"github.com/ritzau/pom-graph/pkg/pom"
	"github.com/ritzau/pom-graph/pkg/repository"
)

// fixture is a throwaway repository plus a root pom.xml beside it
type fixture struct {
	t    *testing.T
	dir  string
	repo *repository.Repository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	return &fixture{
		t:    t,
		dir:  dir,
		repo: repository.New(filepath.Join(dir, "repository")),
	}
}

func (f *fixture) write(path, content string) string {
	f.t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		f.t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		f.t.Fatal(err)
	}
	return path
}

// root writes the project's own pom.xml
func (f *fixture) root(body string) string {
	return f.write(filepath.Join(f.dir, "project", "pom.xml"), project(body))
}

// publish writes a POM into the repository at the location of coord
func (f *fixture) publish(coord string, body string) {
	parts := strings.Split(coord, ":")
	if len(parts) != 3 {
		f.t.Fatalf("bad coordinate %q", coord)
	}
	c := model.Coordinate{Group: parts[0], Artifact: parts[1], Version: parts[2]}
	f.write(f.repo.Path(c), project(body))
}

func project(body string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<project xmlns="http://maven.apache.org/POM/4.0.0">
	<modelVersion>4.0.0</modelVersion>
` + body + `
</project>`
}

func gav(group, artifact, version string) string {
	s := fmt.Sprintf("<groupId>%s</groupId><artifactId>%s</artifactId>", group, artifact)
	if version != "" {
		s += fmt.Sprintf("<version>%s</version>", version)
	}
	return s
}

func deps(decls ...string) string {
	var b strings.Builder
	b.WriteString("<dependencies>")
	for _, d := range decls {
		b.WriteString("<dependency>" + d + "</dependency>")
	}
	b.WriteString("</dependencies>")
	return b.String()
}

// build runs the builder and returns the graph as a plain map plus reported errors
func (f *fixture) build(path string, opts ...Option) (map[string][]string, *model.Graph, []error) {
	f.t.Helper()
	var reported []error
	opts = append([]Option{WithReporter(func(err error) { reported = append(reported, err) })}, opts...)

	g, err := New(f.repo, opts...).Build(context.Background(), path)
	if err != nil {
		f.t.Fatalf("Build() unexpected error: %v", err)
	}
	return asMap(g), g, reported
}

func asMap(g *model.Graph) map[string][]string {
	out := make(map[string][]string)
	for _, root := range g.Roots() {
		out[root] = g.Dependencies(root)
	}
	return out
}

func hasReported(errs []error, target error) bool {
	for _, err := range errs {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func TestBuild_ResolvesTransitiveDependency(t *testing.T) {
	f := newFixture(t)
	root := f.root(gav("com.example", "test-project", "1.0.0") +
		deps(gav("org.example", "example-lib", "1.0.1")))
	f.publish("org.example:example-lib:1.0.1", gav("org.example", "example-lib", "1.0.1"))

	got, _, reported := f.build(root)

	want := map[string][]string{
		"com.example:test-project:1.0.0": {"org.example:example-lib:1.0.1"},
		"org.example:example-lib:1.0.1":  {},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("graph mismatch (-want +got):\n%s", diff)
	}
	if len(reported) != 0 {
		t.Errorf("Expected no reported errors, got %v", reported)
	}
}

func TestBuild_UnversionedDependencyNotInRepository(t *testing.T) {
	f := newFixture(t)
	root := f.root(gav("com.example", "app", "1.0.0") + deps(gav("org.lib", "core", "")))

	got, _, _ := f.build(root)

	want := map[string][]string{
		"com.example:app:1.0.0": {"org.lib:core:unspecified"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("graph mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_ResolvesVersionFromProperties(t *testing.T) {
	f := newFixture(t)
	root := f.root(gav("com.example", "app", "${revision}") +
		"<properties><revision>2.3.0</revision></properties>")

	got, _, _ := f.build(root)

	if _, ok := got["com.example:app:2.3.0"]; !ok {
		t.Errorf("Expected root com.example:app:2.3.0, got %v", got)
	}
}

func TestBuild_ProjectVersionProperty(t *testing.T) {
	f := newFixture(t)
	root := f.root(gav("com.example", "app", "1.0.0") +
		deps(gav("com.example", "sibling", "${project.version}")))

	got, _, _ := f.build(root)

	want := []string{"com.example:sibling:1.0.0"}
	if diff := cmp.Diff(want, got["com.example:app:1.0.0"]); diff != "" {
		t.Errorf("dependencies mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_GroupFromParentWhenParentMissing(t *testing.T) {
	f := newFixture(t)
	root := f.root(`<parent>` + gav("org.acme", "acme-parent", "7") + `</parent>` +
		`<artifactId>app</artifactId><version>1.0.0</version>` +
		`<properties><lib.version>3.1</lib.version></properties>` +
		deps(gav("org.lib", "core", "${lib.version}")))

	got, _, _ := f.build(root)

	want := map[string][]string{
		"org.acme:app:1.0.0": {"org.lib:core:3.1"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("graph mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_UnknownGroup(t *testing.T) {
	f := newFixture(t)
	root := f.root(`<artifactId>app</artifactId>`)

	got, _, _ := f.build(root)

	if _, ok := got["unknown:app:unspecified"]; !ok {
		t.Errorf("Expected root unknown:app:unspecified, got %v", got)
	}
}

func TestBuild_InheritsFromParent(t *testing.T) {
	f := newFixture(t)
	root := f.root(`<parent>` + gav("org.acme", "acme-parent", "7") + `</parent>` +
		`<artifactId>app</artifactId><version>1.0.0</version>` +
		`<properties><shared>child</shared><only.child>c</only.child></properties>` +
		deps(
			gav("org.lib", "core", "${lib.version}"),
			gav("x", "shared", "${shared}"),
			gav("x", "only", "${only.child}"),
		))
	f.publish("org.acme:acme-parent:7", gav("org.acme", "acme-parent", "7")+
		`<properties><lib.version>2.0</lib.version><shared>parent</shared></properties>`+
		deps(gav("org.acme", "util", "${project.version}")))

	_, g, reported := f.build(root)

	wantRoots := []string{"org.acme:acme-parent:7", "org.acme:app:1.0.0"}
	if diff := cmp.Diff(wantRoots, g.Roots()); diff != "" {
		t.Errorf("roots mismatch (-want +got):\n%s", diff)
	}
	if g.Root() != "org.acme:app:1.0.0" {
		t.Errorf("Root() = %q, want the starting document", g.Root())
	}

	// The parent contributes its own edges, resolved with its own version
	if diff := cmp.Diff([]string{"org.acme:util:7"}, g.Dependencies("org.acme:acme-parent:7")); diff != "" {
		t.Errorf("parent dependencies mismatch (-want +got):\n%s", diff)
	}

	// Parent declarations win over the child's, child-only properties survive
	wantChild := []string{"org.lib:core:2.0", "x:shared:parent", "x:only:c"}
	if diff := cmp.Diff(wantChild, g.Dependencies("org.acme:app:1.0.0")); diff != "" {
		t.Errorf("child dependencies mismatch (-want +got):\n%s", diff)
	}

	if len(reported) != 0 {
		t.Errorf("Expected no reported errors, got %v", reported)
	}
}

func TestBuild_ProjectVersionIsOwnVersionWithParentPresent(t *testing.T) {
	f := newFixture(t)
	root := f.root(`<parent>` + gav("org.acme", "acme-parent", "7") + `</parent>` +
		gav("org.acme", "app", "1.0.0") +
		deps(gav("org.acme", "sibling", "${project.version}")))
	f.publish("org.acme:acme-parent:7", gav("org.acme", "acme-parent", "7")+
		`<properties><lib.version>2.0</lib.version></properties>`)
	f.publish("org.acme:sibling:1.0.0", gav("org.acme", "sibling", "1.0.0")+
		deps(gav("org.acme", "leaf", "${project.version}")))

	_, g, _ := f.build(root)

	if diff := cmp.Diff([]string{"org.acme:sibling:1.0.0"}, g.Dependencies("org.acme:app:1.0.0")); diff != "" {
		t.Errorf("child dependencies mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"org.acme:leaf:1.0.0"}, g.Dependencies("org.acme:sibling:1.0.0")); diff != "" {
		t.Errorf("sibling dependencies mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_PartialParentIgnored(t *testing.T) {
	f := newFixture(t)
	root := f.root(`<parent><groupId>org.acme</groupId><artifactId>acme-parent</artifactId></parent>` +
		`<artifactId>app</artifactId><version>1</version>`)
	f.publish("org.acme:acme-parent:7", gav("org.acme", "acme-parent", "7"))

	_, g, _ := f.build(root)

	// Group still falls back to the parent block, but no parent traversal happens
	if diff := cmp.Diff([]string{"org.acme:app:1"}, g.Roots()); diff != "" {
		t.Errorf("roots mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_SkipsIncompleteDependency(t *testing.T) {
	f := newFixture(t)
	root := f.root(gav("com.example", "app", "1.0.0") + deps(
		`<artifactId>no-group</artifactId><version>1</version>`,
		gav("org.lib", "kept", "1"),
		`<groupId>org.lib</groupId>`,
	))

	got, _, reported := f.build(root)

	want := map[string][]string{
		"com.example:app:1.0.0": {"org.lib:kept:1"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("graph mismatch (-want +got):\n%s", diff)
	}

	count := 0
	for _, err := range reported {
		if errors.Is(err, ErrMissingDependencyFields) {
			count++
		}
	}
	if count != 2 {
		t.Errorf("Expected 2 ErrMissingDependencyFields reports, got %d (%v)", count, reported)
	}
}

func TestBuild_DiamondFirstParent(t *testing.T) {
	f := newFixture(t)
	root := f.root(gav("g", "a", "1") + deps(gav("g", "b", "1"), gav("g", "c", "1")))
	f.publish("g:b:1", gav("g", "b", "1")+deps(gav("g", "d", "1")))
	f.publish("g:c:1", gav("g", "c", "1")+deps(gav("g", "d", "1")))
	f.publish("g:d:1", gav("g", "d", "1"))

	got, g, _ := f.build(root)

	want := map[string][]string{
		"g:a:1": {"g:b:1", "g:c:1"},
		"g:b:1": {"g:d:1"},
		"g:c:1": {},
		"g:d:1": {},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("graph mismatch (-want +got):\n%s", diff)
	}

	wantOrder := []string{"g:a:1", "g:b:1", "g:d:1", "g:c:1"}
	if diff := cmp.Diff(wantOrder, g.Roots()); diff != "" {
		t.Errorf("depth-first order mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_DiamondAllEdges(t *testing.T) {
	f := newFixture(t)
	root := f.root(gav("g", "a", "1") + deps(gav("g", "b", "1"), gav("g", "c", "1")))
	f.publish("g:b:1", gav("g", "b", "1")+deps(gav("g", "d", "1")))
	f.publish("g:c:1", gav("g", "c", "1")+deps(gav("g", "d", "1"), gav("g", "d", "1")))
	f.publish("g:d:1", gav("g", "d", "1"))

	got, _, _ := f.build(root, WithDiamondMode(DiamondAllEdges))

	want := map[string][]string{
		"g:a:1": {"g:b:1", "g:c:1"},
		"g:b:1": {"g:d:1"},
		"g:c:1": {"g:d:1"},
		"g:d:1": {},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("graph mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_DependencyCycleTerminates(t *testing.T) {
	f := newFixture(t)
	root := f.root(gav("g", "a", "1") + deps(gav("g", "b", "1")))
	f.publish("g:a:1", gav("g", "a", "1")+deps(gav("g", "b", "1")))
	f.publish("g:b:1", gav("g", "b", "1")+deps(gav("g", "a", "1")))

	got, _, _ := f.build(root)

	want := map[string][]string{
		"g:a:1": {"g:b:1"},
		"g:b:1": {"g:a:1"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("graph mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_CyclicInheritance(t *testing.T) {
	f := newFixture(t)
	root := f.root(`<parent>` + gav("g", "p1", "1") + `</parent>` + `<artifactId>child</artifactId>`)
	f.publish("g:p1:1", `<parent>`+gav("g", "p2", "1")+`</parent>`+gav("g", "p1", "1"))
	f.publish("g:p2:1", `<parent>`+gav("g", "p1", "1")+`</parent>`+gav("g", "p2", "1"))

	_, g, reported := f.build(root)

	if !hasReported(reported, ErrCyclicInheritance) {
		t.Errorf("Expected ErrCyclicInheritance to be reported, got %v", reported)
	}

	wantRoots := []string{"g:p2:1", "g:p1:1", "g:child:unspecified"}
	if diff := cmp.Diff(wantRoots, g.Roots()); diff != "" {
		t.Errorf("roots mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_SelfParent(t *testing.T) {
	f := newFixture(t)
	f.publish("g:self:1", `<parent>`+gav("g", "self", "1")+`</parent>`+gav("g", "self", "1"))

	_, g, reported := f.build(f.repo.Path(model.Coordinate{Group: "g", Artifact: "self", Version: "1"}))

	if !hasReported(reported, ErrCyclicInheritance) {
		t.Errorf("Expected ErrCyclicInheritance to be reported, got %v", reported)
	}
	if !g.HasRoot("g:self:1") {
		t.Errorf("Expected g:self:1 to still be recorded, got %v", g.Roots())
	}
}

func TestBuild_RecoverableFailures(t *testing.T) {
	tests := []struct {
		name    string
		content string // empty means the root file is not written
		wantErr error
	}{
		{name: "Missing root", wantErr: pom.ErrNotFound},
		{name: "Malformed root", content: "<project><artifactId>x", wantErr: pom.ErrMalformedDocument},
		{name: "Missing artifactId", content: project(`<groupId>g</groupId>`), wantErr: ErrMissingArtifactID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			path := filepath.Join(f.dir, "pom.xml")
			if tt.content != "" {
				f.write(path, tt.content)
			}

			got, g, reported := f.build(path)

			if len(got) != 0 {
				t.Errorf("Expected empty graph, got %v", got)
			}
			if g.Root() != "" {
				t.Errorf("Root() = %q, want empty", g.Root())
			}
			if !hasReported(reported, tt.wantErr) {
				t.Errorf("Expected %v to be reported, got %v", tt.wantErr, reported)
			}
		})
	}
}

func TestBuild_MalformedDependencyKeepsEdge(t *testing.T) {
	f := newFixture(t)
	root := f.root(gav("g", "a", "1") + deps(gav("g", "broken", "1"), gav("g", "ok", "1")))
	f.write(f.repo.Path(model.Coordinate{Group: "g", Artifact: "broken", Version: "1"}), "<project>")
	f.publish("g:ok:1", gav("g", "ok", "1"))

	got, _, reported := f.build(root)

	want := map[string][]string{
		"g:a:1":  {"g:broken:1", "g:ok:1"},
		"g:ok:1": {},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("graph mismatch (-want +got):\n%s", diff)
	}
	if !hasReported(reported, pom.ErrMalformedDocument) {
		t.Errorf("Expected ErrMalformedDocument to be reported, got %v", reported)
	}
}

func TestBuild_CancelledContext(t *testing.T) {
	f := newFixture(t)
	root := f.root(gav("g", "a", "1"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g, err := New(f.repo, WithReporter(func(error) {})).Build(ctx, root)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Build() error = %v, want context.Canceled", err)
	}
	if g == nil || g.Len() != 0 {
		t.Errorf("Expected empty graph on cancellation, got %v", g)
	}
}

func TestParseDiamondMode(t *testing.T) {
	tests := []struct {
		in      string
		want    DiamondMode
		wantErr bool
	}{
		{"", DiamondFirstParent, false},
		{"first-parent", DiamondFirstParent, false},
		{"all-edges", DiamondAllEdges, false},
		{"nearest-wins", "", true},
	}
	for _, tt := range tests {
		got, err := ParseDiamondMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDiamondMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDiamondMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuild_DocumentCacheGivesSameGraph(t *testing.T) {
	f := newFixture(t)
	root := f.root(gav("com.example", "app", "1.0.0") +
		deps(gav("org.example", "lib", "1"), gav("org.example", "util", "1")))
	f.publish("org.example:lib:1", gav("org.example", "lib", "1")+deps(gav("org.example", "util", "1")))
	f.publish("org.example:util:1", gav("org.example", "util", "1"))

	cache, err := pom.NewCache(16)
	if err != nil {
		t.Fatal(err)
	}

	uncached, _, _ := f.build(root)
	first, _, _ := f.build(root, WithDocumentCache(cache))
	second, _, _ := f.build(root, WithDocumentCache(cache))

	if diff := cmp.Diff(uncached, first); diff != "" {
		t.Errorf("cached build differs (-uncached +cached):\n%s", diff)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second cached build differs (-first +second):\n%s", diff)
	}

	// app, lib and util are each parsed once, then served from the cache
	if hits, misses := cache.Stats(); hits != 3 || misses != 3 {
		t.Errorf("Stats() = %d hits, %d misses; want 3, 3", hits, misses)
	}
}
