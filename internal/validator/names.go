package validator

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
)

// illegalNameChars cannot appear in serialized node names on common
// filesystems and repositories.
const illegalNameChars = `:*?"<>|`

// namesValidator checks resource names for characters that break
// round-tripping between the filesystem and the repository. Each
// resource's base name is checked once; parent segments were already
// checked when their directory entries were scanned.
type namesValidator struct {
	d deps
}

func newNamesValidator(d deps) Validator {
	return &namesValidator{d: d}
}

func (v *namesValidator) ID() string { return "names" }

func (v *namesValidator) ValidateMetadata(_ context.Context, res Resource, _ io.Reader) ([]Violation, error) {
	return v.checkName(res), nil
}

func (v *namesValidator) ValidateContent(_ context.Context, res Resource, _ io.Reader) ([]Violation, error) {
	return v.checkName(res), nil
}

func (v *namesValidator) ValidateFolder(_ context.Context, res Resource) ([]Violation, error) {
	return v.checkName(res), nil
}

func (v *namesValidator) checkName(res Resource) []Violation {
	name := path.Base(res.Rel)
	var out []Violation

	if i := strings.IndexAny(name, illegalNameChars); i >= 0 {
		out = append(out, Violation{
			Severity: v.d.sev(SeverityError),
			Message:  fmt.Sprintf("name '%s' contains illegal character '%c'", name, name[i]),
		})
	}
	for _, r := range name {
		if r < 0x20 {
			out = append(out, Violation{
				Severity: v.d.sev(SeverityError),
				Message:  fmt.Sprintf("name '%s' contains a control character", name),
			})
			break
		}
	}
	if trimmed := strings.TrimRight(name, ". "); trimmed != name && trimmed != "" {
		out = append(out, Violation{
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("name '%s' ends with a dot or space, which some filesystems drop", name),
		})
	}
	return out
}
