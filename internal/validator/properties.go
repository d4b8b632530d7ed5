package validator

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"

	"github.com/randalmurphal/packlint/internal/layout"
)

// propertiesPath is where the package descriptor lives, relative to a
// metadata root.
const propertiesPath = "vault/properties.xml"

// requiredProperties must be present and non-empty in the descriptor.
var requiredProperties = []string{"name", "group", "version"}

// propertiesValidator checks the package descriptor. The descriptor is a
// Java properties file in XML form: <entry key="name">value</entry>.
type propertiesValidator struct {
	d     deps
	seen  bool
	props map[string]string
}

func newPropertiesValidator(d deps) Validator {
	return &propertiesValidator{d: d}
}

func (v *propertiesValidator) ID() string { return "properties" }

type propertiesDoc struct {
	XMLName xml.Name        `xml:"properties"`
	Entries []propertyEntry `xml:"entry"`
}

type propertyEntry struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

func (v *propertiesValidator) ValidateMetadata(_ context.Context, res Resource, r io.Reader) ([]Violation, error) {
	if res.Rel != propertiesPath {
		return nil, nil
	}
	v.seen = true

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var doc propertiesDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return []Violation{{
			Severity: v.d.sev(SeverityError),
			Message:  fmt.Sprintf("properties.xml is not parseable: %v", err),
		}}, nil
	}

	v.props = make(map[string]string, len(doc.Entries))
	for _, e := range doc.Entries {
		v.props[e.Key] = e.Value
	}

	var out []Violation
	for _, key := range requiredProperties {
		if v.props[key] == "" {
			out = append(out, Violation{
				Severity: v.d.sev(SeverityError),
				Message:  fmt.Sprintf("mandatory property '%s' is missing or empty", key),
			})
		}
	}
	return out, nil
}

// Complete reports a missing descriptor when the project has a metadata
// area at all. Content-only projects carry no descriptor and pass.
func (v *propertiesValidator) Complete(_ context.Context) ([]Violation, error) {
	if v.seen {
		return nil, nil
	}
	root := v.firstMetadataRoot()
	if root == nil {
		return nil, nil
	}
	return []Violation{{
		Path:     root.DisplayPath(propertiesPath),
		Severity: v.d.sev(SeverityError),
		Message:  "mandatory properties.xml is missing",
	}}, nil
}

func (v *propertiesValidator) firstMetadataRoot() *layout.Root {
	if v.d.layout == nil {
		return nil
	}
	roots := v.d.layout.MetadataRoots()
	if len(roots) == 0 {
		return nil
	}
	return &roots[0]
}

// packageID returns group:name:version once a valid descriptor was seen.
func (v *propertiesValidator) packageID() string {
	if v.props == nil {
		return ""
	}
	name, group, version := v.props["name"], v.props["group"], v.props["version"]
	if name == "" || group == "" || version == "" {
		return ""
	}
	return group + ":" + name + ":" + version
}
