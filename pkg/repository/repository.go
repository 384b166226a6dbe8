// Package repository maps artifact coordinates onto a local Maven repository layout.
package repository

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ritzau/pom-graph/pkg/model"
)

// Repository is a read-only local artifact repository rooted at Root.
type Repository struct {
	Root string
}

// New creates a repository rooted at root
func New(root string) *Repository {
	return &Repository{Root: root}
}

// DefaultRoot returns ~/.m2/repository for the invoking user.
func DefaultRoot() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".m2", "repository"), nil
}

// Path returns where the POM of c is expected to live:
// <root>/<group as dirs>/<artifact>/<version>/<artifact>-<version>.pom
// It does not touch the filesystem.
func (r *Repository) Path(c model.Coordinate) string {
	groupDir := filepath.FromSlash(strings.ReplaceAll(c.Group, ".", "/"))
	return filepath.Join(
		r.Root,
		groupDir,
		c.Artifact,
		c.Version,
		fmt.Sprintf("%s-%s.pom", c.Artifact, c.Version),
	)
}

// Exists reports whether path names an existing regular file.
func Exists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}
