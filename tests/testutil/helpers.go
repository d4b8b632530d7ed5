// Package testutil provides test utilities for integration tests.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestProject is a temporary content package project on disk.
type TestProject struct {
	t       *testing.T
	RootDir string
}

// SetupTestProject creates a temporary package project with an empty
// metadata root and content root. The project is cleaned up when the
// test completes.
func SetupTestProject(t *testing.T) *TestProject {
	t.Helper()

	p := &TestProject{t: t, RootDir: t.TempDir()}
	p.MkdirAll("META-INF/vault")
	p.MkdirAll("jcr_root")
	return p
}

// MkdirAll creates a directory (and parents) under the project root.
// rel is slash-separated.
func (p *TestProject) MkdirAll(rel string) {
	p.t.Helper()
	if err := os.MkdirAll(filepath.Join(p.RootDir, filepath.FromSlash(rel)), 0755); err != nil {
		p.t.Fatalf("mkdir %s: %v", rel, err)
	}
}

// WriteFile writes a file under the project root, creating parent
// directories. rel is slash-separated.
func (p *TestProject) WriteFile(rel, content string) {
	p.t.Helper()
	path := filepath.Join(p.RootDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		p.t.Fatalf("mkdir for %s: %v", rel, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		p.t.Fatalf("write %s: %v", rel, err)
	}
}

// WriteProperties writes a package descriptor with the given identity.
func (p *TestProject) WriteProperties(group, name, version string) {
	p.t.Helper()
	p.WriteFile("META-INF/vault/properties.xml", fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<properties>
  <entry key="group">%s</entry>
  <entry key="name">%s</entry>
  <entry key="version">%s</entry>
</properties>
`, group, name, version))
}

// WriteFilter writes a workspace filter covering the given repository
// roots.
func (p *TestProject) WriteFilter(roots ...string) {
	p.t.Helper()
	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	b.WriteString("<workspaceFilter version=\"1.0\">\n")
	for _, r := range roots {
		fmt.Fprintf(&b, "  <filter root=%q/>\n", r)
	}
	b.WriteString("</workspaceFilter>\n")
	p.WriteFile("META-INF/vault/filter.xml", b.String())
}

// WriteValidMetadata writes a complete descriptor and a filter covering
// /apps, the baseline for a passing project.
func (p *TestProject) WriteValidMetadata() {
	p.t.Helper()
	p.WriteProperties("com.example", "demo", "1.0.0")
	p.WriteFilter("/apps")
}
