package validator

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// xmlValidator checks that every .xml file is well-formed. Broken XML in
// a package fails installation late and with worse diagnostics, so it is
// caught here.
type xmlValidator struct {
	d deps
}

func newXMLValidator(d deps) Validator {
	return &xmlValidator{d: d}
}

func (v *xmlValidator) ID() string { return "xmlwf" }

func (v *xmlValidator) ValidateMetadata(ctx context.Context, res Resource, r io.Reader) ([]Violation, error) {
	return v.check(ctx, res, r)
}

func (v *xmlValidator) ValidateContent(ctx context.Context, res Resource, r io.Reader) ([]Violation, error) {
	return v.check(ctx, res, r)
}

func (v *xmlValidator) check(_ context.Context, res Resource, r io.Reader) ([]Violation, error) {
	if !strings.HasSuffix(strings.ToLower(res.Rel), ".xml") {
		return nil, nil
	}

	dec := xml.NewDecoder(r)
	sawElement := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			msg := fmt.Sprintf("not well-formed: %v", err)
			var syntaxErr *xml.SyntaxError
			if errors.As(err, &syntaxErr) {
				msg = fmt.Sprintf("not well-formed at line %d: %s", syntaxErr.Line, syntaxErr.Msg)
			}
			return []Violation{{
				Severity: v.d.sev(SeverityError),
				Message:  msg,
			}}, nil
		}
		if _, ok := tok.(xml.StartElement); ok {
			sawElement = true
		}
	}
	if !sawElement {
		return []Violation{{
			Severity: v.d.sev(SeverityError),
			Message:  "not well-formed: missing root element",
		}}, nil
	}
	return nil, nil
}
