// Package resolver builds a dependency graph by walking POM parent chains and
// dependency declarations through a local repository.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/ritzau/pom-graph/pkg/logging"
	"github.com/ritzau/pom-graph/pkg/model"
	"github.com/ritzau/pom-graph/pkg/pom"
	"github.com/ritzau/pom-graph/pkg/properties"
	"github.com/ritzau/pom-graph/pkg/repository"
)

// Reporter receives recoverable traversal errors at the point they occur
type Reporter func(err error)

// Option configures a Builder
type Option func(*Builder)

// WithReporter replaces the default reporter, which logs at warn level.
func WithReporter(r Reporter) Option {
	return func(b *Builder) {
		b.report = r
	}
}

// WithDiamondMode selects how shared dependencies are recorded.
func WithDiamondMode(mode DiamondMode) Option {
	return func(b *Builder) {
		b.mode = mode
	}
}

// WithDocumentCache reads documents through c, so that repeated builds skip
// re-parsing unchanged files.
func WithDocumentCache(c *pom.Cache) Option {
	return func(b *Builder) {
		b.read = c.ReadFile
	}
}

// Builder resolves POM documents against a repository into a model.Graph
type Builder struct {
	repo   *repository.Repository
	mode   DiamondMode
	report Reporter
	read   func(path string) (*pom.Document, error)
	logger *slog.Logger
}

// New creates a Builder reading from repo
func New(repo *repository.Repository, opts ...Option) *Builder {
	logger := logging.New("resolver")
	b := &Builder{
		repo:   repo,
		mode:   DiamondFirstParent,
		read:   pom.ReadFile,
		logger: logger,
		report: func(err error) {
			logger.Warn("skipping", "error", err)
		},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build walks the POM at path and everything reachable from it.
// Problems with individual documents are passed to the reporter and never
// abort the walk; the only returned error is a cancelled context, together
// with the graph accumulated so far.
func (b *Builder) Build(ctx context.Context, path string) (*model.Graph, error) {
	t := newTraversal(b.mode)
	if _, root, ok := b.visit(ctx, t, canonical(path), properties.Table{}, nil); ok {
		t.graph.SetRoot(root)
	}
	if err := ctx.Err(); err != nil {
		return t.graph, err
	}
	return t.graph, nil
}

// visit processes one document and returns its effective property table and
// coordinate key. ok is false when the document could not be read at all; the
// key is empty when the document has no artifactId.
func (b *Builder) visit(ctx context.Context, t *traversal, path string, inherited properties.Table, chain lineage) (properties.Table, string, bool) {
	if ctx.Err() != nil {
		return nil, "", false
	}

	doc, err := b.read(path)
	if err != nil {
		b.report(err)
		return nil, "", false
	}
	b.logger.Debug("parsed pom", "path", path, "dependencies", len(doc.Dependencies))

	local := properties.Merge(inherited, doc.Properties)
	if doc.Version != nil {
		local[properties.ProjectVersion] = *doc.Version
	}

	effective := b.inherit(ctx, t, doc, path, local, chain)
	if doc.Version != nil {
		// the parent walk injects its own project.version; a document's own
		// fields always see the version it declares
		effective = properties.Merge(effective, properties.Table{properties.ProjectVersion: *doc.Version})
	}

	project, err := projectCoordinate(doc, effective)
	if err != nil {
		b.report(fmt.Errorf("%s: %w", path, err))
		return effective, "", true
	}
	root := project.String()
	t.graph.AddRoot(root)

	for i, dep := range doc.Dependencies {
		if !dep.Complete() {
			b.report(fmt.Errorf("%s: dependency #%d: %w", path, i+1, ErrMissingDependencyFields))
			continue
		}

		target := dependencyCoordinate(dep, effective)
		key := target.String()

		record, expand := t.claim(root, key)
		if record {
			t.graph.AddEdge(root, key)
		}
		if !expand {
			continue
		}

		depPath := canonical(b.repo.Path(target))
		if !repository.Exists(depPath) {
			b.logger.Debug("dependency not in repository", "dependency", key, "path", depPath)
			continue
		}
		b.visit(ctx, t, depPath, effective, nil)
	}

	return effective, root, true
}

func projectCoordinate(doc *pom.Document, props properties.Table) (model.Coordinate, error) {
	group := model.UnknownGroup
	if doc.GroupID != nil {
		group = *doc.GroupID
	} else if doc.Parent != nil && doc.Parent.GroupID != nil {
		group = *doc.Parent.GroupID
	}

	if doc.ArtifactID == nil {
		return model.Coordinate{}, ErrMissingArtifactID
	}

	version := model.UnspecifiedVersion
	if doc.Version != nil {
		version = *doc.Version
	}

	return model.Coordinate{
		Group:    properties.Resolve(group, props),
		Artifact: properties.Resolve(*doc.ArtifactID, props),
		Version:  properties.Resolve(version, props),
	}, nil
}

func dependencyCoordinate(dep pom.Dependency, props properties.Table) model.Coordinate {
	version := model.UnspecifiedVersion
	if dep.Version != nil {
		version = *dep.Version
	}
	return model.Coordinate{
		Group:    properties.Resolve(*dep.GroupID, props),
		Artifact: properties.Resolve(*dep.ArtifactID, props),
		Version:  properties.Resolve(version, props),
	}
}

func canonical(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
