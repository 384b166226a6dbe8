package resolver

import (
	"context"
	"fmt"

	"github.com/ritzau/pom-graph/pkg/model"
	"github.com/ritzau/pom-graph/pkg/pom"
	"github.com/ritzau/pom-graph/pkg/properties"
	"github.com/ritzau/pom-graph/pkg/repository"
)

// inherit walks the parent of doc and returns the property table doc should
// resolve its fields against.
//
// The parent traversal is seeded with the child's local table and layers its
// own declarations on top, so a property redeclared by the parent wins. The
// parent also contributes its own node and edges to the shared graph.
func (b *Builder) inherit(ctx context.Context, t *traversal, doc *pom.Document, path string, local properties.Table, chain lineage) properties.Table {
	if !doc.Parent.Valid() {
		return local
	}

	parent := model.Coordinate{
		Group:    *doc.Parent.GroupID,
		Artifact: *doc.Parent.ArtifactID,
		Version:  *doc.Parent.Version,
	}
	parentPath := canonical(b.repo.Path(parent))

	if parentPath == path || chain[parentPath] {
		b.report(fmt.Errorf("%w: %s declares parent %s which is already on its parent chain", ErrCyclicInheritance, path, parent))
		return local
	}

	if !repository.Exists(parentPath) {
		b.logger.Debug("parent not in repository, using own properties", "pom", path, "parent", parent.String())
		return local
	}

	effective, _, ok := b.visit(ctx, t, parentPath, local, chain.with(path))
	if !ok {
		return local
	}
	return effective
}
