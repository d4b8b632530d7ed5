package validator

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFilter(t *testing.T) *filterValidator {
	t.Helper()
	return newFilterValidator(deps{log: discardLogger(), layout: testLayout()}).(*filterValidator)
}

func validateFilterXML(t *testing.T, v *filterValidator, doc string) []Violation {
	t.Helper()
	res := metaResource(testLayout(), "vault/filter.xml")
	vs, err := v.ValidateMetadata(context.Background(), res, strings.NewReader(doc))
	require.NoError(t, err)
	return vs
}

func TestFilterValid(t *testing.T) {
	v := newTestFilter(t)
	vs := validateFilterXML(t, v, `<?xml version="1.0" encoding="UTF-8"?>
<workspaceFilter version="1.0">
    <filter root="/apps/example">
        <exclude pattern="/apps/example/secret(/.*)?"/>
        <include pattern="/apps/example/public(/.*)?"/>
    </filter>
    <filter root="/content/example"/>
</workspaceFilter>`)

	assert.Empty(t, vs)
	assert.Equal(t, []string{"/apps/example", "/content/example"}, v.roots)
}

func TestFilterUnparseable(t *testing.T) {
	v := newTestFilter(t)
	vs := validateFilterXML(t, v, "<workspaceFilter><filter")

	require.Len(t, vs, 1)
	assert.Contains(t, vs[0].Message, "not parseable")
	assert.Equal(t, SeverityError, vs[0].Severity)
}

func TestFilterEmpty(t *testing.T) {
	v := newTestFilter(t)
	vs := validateFilterXML(t, v, `<workspaceFilter version="1.0"/>`)

	require.Len(t, vs, 1)
	assert.Equal(t, SeverityWarning, vs[0].Severity)
	assert.Contains(t, vs[0].Message, "no filter rules")
}

func TestFilterRelativeRoot(t *testing.T) {
	v := newTestFilter(t)
	vs := validateFilterXML(t, v, `<workspaceFilter version="1.0">
    <filter root="apps/example"/>
</workspaceFilter>`)

	require.Len(t, vs, 1)
	assert.Contains(t, vs[0].Message, "absolute repository path")
}

func TestFilterDuplicateRoot(t *testing.T) {
	v := newTestFilter(t)
	vs := validateFilterXML(t, v, `<workspaceFilter version="1.0">
    <filter root="/apps/example"/>
    <filter root="/apps/example"/>
</workspaceFilter>`)

	require.Len(t, vs, 1)
	assert.Equal(t, SeverityWarning, vs[0].Severity)
	assert.Contains(t, vs[0].Message, "duplicate filter root")
}

func TestFilterBadRulePattern(t *testing.T) {
	v := newTestFilter(t)
	vs := validateFilterXML(t, v, `<workspaceFilter version="1.0">
    <filter root="/apps/example">
        <exclude pattern="/apps/example/[("/>
    </filter>
</workspaceFilter>`)

	require.Len(t, vs, 1)
	assert.Contains(t, vs[0].Message, "invalid exclude pattern")
}

func TestFilterUnexpectedElement(t *testing.T) {
	v := newTestFilter(t)
	vs := validateFilterXML(t, v, `<workspaceFilter version="1.0">
    <filter root="/apps/example">
        <skip pattern="x"/>
    </filter>
</workspaceFilter>`)

	require.Len(t, vs, 1)
	assert.Contains(t, vs[0].Message, "unexpected element 'skip'")
}

func TestFilterContentCoverage(t *testing.T) {
	v := newTestFilter(t)
	validateFilterXML(t, v, `<workspaceFilter version="1.0">
    <filter root="/apps/example"/>
</workspaceFilter>`)

	l := testLayout()
	tests := []struct {
		rel     string
		covered bool
	}{
		{"apps/example/component.xml", true},  // inside root
		{"apps/example/.content.xml", true},   // the root node itself
		{"apps/.content.xml", true},           // ancestor of root
		{"content/other/page.xml", false},     // outside
		{"apps/other/component.xml", false},   // sibling subtree
	}
	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			vs, err := v.ValidateContent(context.Background(), contentResource(l, tt.rel), strings.NewReader(""))
			require.NoError(t, err)
			if tt.covered {
				assert.Empty(t, vs)
			} else {
				require.Len(t, vs, 1)
				assert.Equal(t, SeverityWarning, vs[0].Severity)
				assert.Contains(t, vs[0].Message, "not contained in any filter root")
			}
		})
	}
}

func TestFilterCoverageSkippedWithoutFilter(t *testing.T) {
	v := newTestFilter(t)
	l := testLayout()

	vs, err := v.ValidateContent(context.Background(), contentResource(l, "anything/at/all.txt"), strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, vs)
}

func TestFilterCompleteMissing(t *testing.T) {
	v := newTestFilter(t)

	vs, err := v.Complete(context.Background())
	require.NoError(t, err)
	require.Len(t, vs, 1)
	assert.Equal(t, "src/main/META-INF/vault/filter.xml", vs[0].Path)
}

func TestRepositoryPath(t *testing.T) {
	tests := []struct {
		rel  string
		want string
	}{
		{"apps/site/.content.xml", "/apps/site"},
		{".content.xml", "/"},
		{"apps/site/dialog.xml", "/apps/site/dialog.xml"},
		{"apps/site/script.jsp", "/apps/site/script.jsp"},
	}
	for _, tt := range tests {
		if got := repositoryPath(tt.rel); got != tt.want {
			t.Errorf("repositoryPath(%q) = %q, want %q", tt.rel, got, tt.want)
		}
	}
}
