package validator

import (
	"context"
	"strings"
	"testing"
)

func TestXMLWellFormed(t *testing.T) {
	v := newXMLValidator(deps{log: discardLogger()}).(*xmlValidator)
	l := testLayout()

	tests := []struct {
		name    string
		rel     string
		content string
		wantMsg string // "" means no violation
	}{
		{"well-formed", "apps/dialog.xml", `<?xml version="1.0"?><root><child a="1"/></root>`, ""},
		{"mismatched tag", "apps/dialog.xml", "<root><child></root>", "not well-formed at line"},
		{"truncated", "apps/dialog.xml", "<root><child", "not well-formed"},
		{"empty file", "apps/dialog.xml", "", "missing root element"},
		{"whitespace only", "apps/dialog.xml", "   \n  ", "missing root element"},
		{"uppercase extension", "apps/dialog.XML", "<root", "not well-formed"},
		{"non-xml skipped", "apps/image.png", "\x89PNG<<<", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vs, err := v.ValidateContent(context.Background(), contentResource(l, tt.rel), strings.NewReader(tt.content))
			if err != nil {
				t.Fatalf("ValidateContent failed: %v", err)
			}
			if tt.wantMsg == "" {
				if len(vs) != 0 {
					t.Errorf("got violations %+v, want none", vs)
				}
				return
			}
			if len(vs) != 1 {
				t.Fatalf("got %d violations, want 1: %+v", len(vs), vs)
			}
			if !strings.Contains(vs[0].Message, tt.wantMsg) {
				t.Errorf("Message = %q, want substring %q", vs[0].Message, tt.wantMsg)
			}
			if vs[0].Severity != SeverityError {
				t.Errorf("Severity = %q, want error", vs[0].Severity)
			}
		})
	}
}

func TestJSONWellFormed(t *testing.T) {
	v := newJSONValidator(deps{log: discardLogger()}).(*jsonValidator)
	l := testLayout()

	tests := []struct {
		name    string
		rel     string
		content string
		wantBad bool
	}{
		{"valid object", "apps/policy.json", `{"key": ["a", 1, null]}`, false},
		{"valid array", "apps/policy.json", `[1, 2, 3]`, false},
		{"trailing comma", "apps/policy.json", `{"key": 1,}`, true},
		{"truncated", "apps/policy.json", `{"key": `, true},
		{"empty file", "apps/policy.json", "", true},
		{"non-json skipped", "apps/notes.txt", "not json at all", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vs, err := v.ValidateContent(context.Background(), contentResource(l, tt.rel), strings.NewReader(tt.content))
			if err != nil {
				t.Fatalf("ValidateContent failed: %v", err)
			}
			if tt.wantBad && len(vs) != 1 {
				t.Fatalf("got %d violations, want 1", len(vs))
			}
			if !tt.wantBad && len(vs) != 0 {
				t.Errorf("got violations %+v, want none", vs)
			}
		})
	}
}
