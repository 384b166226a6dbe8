package pom

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCacheReusesUnchangedFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pom.xml")
	if err := os.WriteFile(path, []byte("<project><artifactId>a</artifactId></project>"), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := NewCache(8)
	if err != nil {
		t.Fatal(err)
	}

	first, err := c.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("Expected the cached document to be returned")
	}
	if hits, misses := c.Stats(); hits != 1 || misses != 1 {
		t.Errorf("Stats() = %d hits, %d misses; want 1, 1", hits, misses)
	}

	// Rewrite with a different size and a later mtime
	if err := os.WriteFile(path, []byte("<project><artifactId>b</artifactId><version>2</version></project>"), 0o644); err != nil {
		t.Fatal(err)
	}
	later := time.Now().Add(time.Minute)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatal(err)
	}

	third, err := c.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if third == first || *third.ArtifactID != "b" {
		t.Errorf("Expected a fresh parse after the file changed, got artifactId %q", *third.ArtifactID)
	}
}

func TestCacheErrors(t *testing.T) {
	dir := t.TempDir()
	c, err := NewCache(8)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := c.ReadFile(filepath.Join(dir, "missing.pom")); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing file error = %v, want ErrNotFound", err)
	}

	bad := filepath.Join(dir, "bad.pom")
	if err := os.WriteFile(bad, []byte("<project>"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := c.ReadFile(bad); !errors.Is(err, ErrMalformedDocument) {
		t.Errorf("malformed file error = %v, want ErrMalformedDocument", err)
	}
	if c.Len() != 0 {
		t.Errorf("failed reads should not be cached, Len() = %d", c.Len())
	}
}

func TestNewCacheRejectsInvalidSize(t *testing.T) {
	if _, err := NewCache(0); err == nil {
		t.Error("NewCache(0) should fail")
	}
}
