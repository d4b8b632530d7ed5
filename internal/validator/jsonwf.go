package validator

import (
	"context"
	"io"
	"strings"

	"github.com/tidwall/gjson"
)

// jsonValidator checks that every .json file parses. Dialogs and policy
// definitions ship as JSON and a syntax error there surfaces only at
// runtime in the target system.
type jsonValidator struct {
	d deps
}

func newJSONValidator(d deps) Validator {
	return &jsonValidator{d: d}
}

func (v *jsonValidator) ID() string { return "jsonwf" }

func (v *jsonValidator) ValidateMetadata(ctx context.Context, res Resource, r io.Reader) ([]Violation, error) {
	return v.check(ctx, res, r)
}

func (v *jsonValidator) ValidateContent(ctx context.Context, res Resource, r io.Reader) ([]Violation, error) {
	return v.check(ctx, res, r)
}

func (v *jsonValidator) check(_ context.Context, res Resource, r io.Reader) ([]Violation, error) {
	if !strings.HasSuffix(strings.ToLower(res.Rel), ".json") {
		return nil, nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(data) {
		return []Violation{{
			Severity: v.d.sev(SeverityError),
			Message:  "not valid JSON",
		}}, nil
	}
	return nil, nil
}
