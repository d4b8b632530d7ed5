package validator

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"

	"github.com/randalmurphal/packlint/internal/layout"
)

// filterPath is where the workspace filter lives, relative to a metadata
// root.
const filterPath = "vault/filter.xml"

// filterValidator checks the workspace filter and, once the filter is
// known, flags content that no filter root covers. Metadata roots scan
// before the content root, so the filter is always parsed before content
// resources arrive.
type filterValidator struct {
	d     deps
	seen  bool
	roots []string
}

func newFilterValidator(d deps) Validator {
	return &filterValidator{d: d}
}

func (v *filterValidator) ID() string { return "filter" }

type workspaceFilter struct {
	XMLName xml.Name      `xml:"workspaceFilter"`
	Version string        `xml:"version,attr"`
	Filters []filterEntry `xml:"filter"`
}

type filterEntry struct {
	Root  string       `xml:"root,attr"`
	Rules []filterRule `xml:",any"`
}

type filterRule struct {
	XMLName xml.Name
	Pattern string `xml:"pattern,attr"`
}

func (v *filterValidator) ValidateMetadata(_ context.Context, res Resource, r io.Reader) ([]Violation, error) {
	if res.Rel != filterPath {
		return nil, nil
	}
	v.seen = true

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var doc workspaceFilter
	if err := xml.Unmarshal(data, &doc); err != nil {
		return []Violation{{
			Severity: v.d.sev(SeverityError),
			Message:  fmt.Sprintf("filter.xml is not parseable: %v", err),
		}}, nil
	}

	var out []Violation
	if len(doc.Filters) == 0 {
		out = append(out, Violation{
			Severity: SeverityWarning,
			Message:  "filter.xml contains no filter rules, the package covers nothing",
		})
	}

	seenRoots := make(map[string]bool)
	for _, f := range doc.Filters {
		if !strings.HasPrefix(f.Root, "/") {
			out = append(out, Violation{
				Severity: v.d.sev(SeverityError),
				Message:  fmt.Sprintf("filter root '%s' must be an absolute repository path", f.Root),
			})
			continue
		}
		if seenRoots[f.Root] {
			out = append(out, Violation{
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("duplicate filter root '%s'", f.Root),
			})
		}
		seenRoots[f.Root] = true
		v.roots = append(v.roots, f.Root)

		for _, rule := range f.Rules {
			switch rule.XMLName.Local {
			case "include", "exclude":
				if _, err := regexp.Compile(rule.Pattern); err != nil {
					out = append(out, Violation{
						Severity: v.d.sev(SeverityError),
						Message:  fmt.Sprintf("invalid %s pattern '%s': %v", rule.XMLName.Local, rule.Pattern, err),
					})
				}
			default:
				out = append(out, Violation{
					Severity: v.d.sev(SeverityError),
					Message:  fmt.Sprintf("unexpected element '%s' in filter for root '%s'", rule.XMLName.Local, f.Root),
				})
			}
		}
	}
	return out, nil
}

// ValidateContent flags content files outside every filter root. Such
// files end up in the package but are never installed, which is almost
// always a packaging mistake.
func (v *filterValidator) ValidateContent(_ context.Context, res Resource, _ io.Reader) ([]Violation, error) {
	if !v.seen || len(v.roots) == 0 {
		return nil, nil
	}
	repo := repositoryPath(res.Rel)
	if v.covered(repo) {
		return nil, nil
	}
	return []Violation{{
		Severity: SeverityWarning,
		Message:  fmt.Sprintf("'%s' is not contained in any filter root", repo),
	}}, nil
}

// covered reports whether the repository path lies inside a filter root
// or is an ancestor of one. Ancestors stay covered because intermediate
// nodes are needed to install the roots below them.
func (v *filterValidator) covered(repo string) bool {
	for _, root := range v.roots {
		if repo == root ||
			strings.HasPrefix(repo, root+"/") ||
			strings.HasPrefix(root, repo+"/") ||
			repo == "/" {
			return true
		}
	}
	return false
}

// Complete reports a missing filter when the project has a metadata area.
func (v *filterValidator) Complete(_ context.Context) ([]Violation, error) {
	if v.seen {
		return nil, nil
	}
	root := v.firstMetadataRoot()
	if root == nil {
		return nil, nil
	}
	return []Violation{{
		Path:     root.DisplayPath(filterPath),
		Severity: v.d.sev(SeverityError),
		Message:  "mandatory filter.xml is missing",
	}}, nil
}

func (v *filterValidator) firstMetadataRoot() *layout.Root {
	if v.d.layout == nil {
		return nil
	}
	roots := v.d.layout.MetadataRoots()
	if len(roots) == 0 {
		return nil
	}
	return &roots[0]
}

// repositoryPath maps a content-root-relative file path to the
// repository path it serializes. A .content.xml file holds its parent
// directory's node.
func repositoryPath(rel string) string {
	if path.Base(rel) == ".content.xml" {
		dir := path.Dir(rel)
		if dir == "." {
			return "/"
		}
		return "/" + dir
	}
	return "/" + rel
}
