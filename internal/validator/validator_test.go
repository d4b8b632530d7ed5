package validator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/randalmurphal/packlint/internal/layout"
	"github.com/randalmurphal/packlint/internal/scanner"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testLayout() *layout.Layout {
	return &layout.Layout{
		Base: "/proj",
		Roots: []layout.Root{
			{Path: "/proj/src/main/META-INF", RelBase: "src/main/META-INF", Area: layout.AreaMetadata},
			{Path: "/proj/jcr_root", RelBase: "jcr_root", Area: layout.AreaContent},
		},
	}
}

func metaResource(l *layout.Layout, rel string) Resource {
	return Resource{Root: l.Roots[0], Rel: rel, Kind: scanner.KindFile}
}

func contentResource(l *layout.Layout, rel string) Resource {
	return Resource{Root: l.Roots[1], Rel: rel, Kind: scanner.KindFile}
}

func TestParseSeverity(t *testing.T) {
	for _, s := range []string{"error", "warning", "info"} {
		got, err := ParseSeverity(s)
		if err != nil {
			t.Errorf("ParseSeverity(%q) failed: %v", s, err)
		}
		if string(got) != s {
			t.Errorf("ParseSeverity(%q) = %q", s, got)
		}
	}
	if _, err := ParseSeverity("fatal"); err == nil {
		t.Error("ParseSeverity should reject unknown severity")
	}
}

func TestSeverityRank(t *testing.T) {
	if !(SeverityError.Rank() > SeverityWarning.Rank() && SeverityWarning.Rank() > SeverityInfo.Rank()) {
		t.Error("severity ranks must order error > warning > info")
	}
}

func TestNewExecutorDefaults(t *testing.T) {
	e, err := NewExecutor(discardLogger(), testLayout(), nil)
	if err != nil {
		t.Fatalf("NewExecutor failed: %v", err)
	}

	want := []string{"filter", "jsonwf", "names", "properties", "xmlwf"}
	if got := e.ValidatorIDs(); !reflect.DeepEqual(got, want) {
		t.Errorf("ValidatorIDs = %v, want %v", got, want)
	}
}

func TestNewExecutorDisabledSubset(t *testing.T) {
	opts := Options{
		"filter": {Enabled: false},
		"jsonwf": {Enabled: false},
	}
	e, err := NewExecutor(discardLogger(), testLayout(), opts)
	if err != nil {
		t.Fatalf("NewExecutor failed: %v", err)
	}
	want := []string{"names", "properties", "xmlwf"}
	if got := e.ValidatorIDs(); !reflect.DeepEqual(got, want) {
		t.Errorf("ValidatorIDs = %v, want %v", got, want)
	}
}

func TestNewExecutorAllDisabled(t *testing.T) {
	opts := Options{}
	for _, id := range IDs() {
		opts[id] = Setting{Enabled: false}
	}
	if _, err := NewExecutor(discardLogger(), testLayout(), opts); !errors.Is(err, ErrNoValidators) {
		t.Errorf("NewExecutor error = %v, want ErrNoValidators", err)
	}
}

func TestNewExecutorUnknownID(t *testing.T) {
	_, err := NewExecutor(discardLogger(), testLayout(), Options{"nosuch": {Enabled: true}})
	if err == nil {
		t.Fatal("NewExecutor should reject unknown validator ID")
	}
	var unknown UnknownValidatorError
	if !errors.As(err, &unknown) || unknown.ID != "nosuch" {
		t.Errorf("error = %v, want UnknownValidatorError{nosuch}", err)
	}
}

// failingValidator exercises the error isolation path.
type failingValidator struct{}

func (failingValidator) ID() string { return "failing" }

func (failingValidator) ValidateMetadata(context.Context, Resource, io.Reader) ([]Violation, error) {
	return nil, errors.New("boom")
}

func TestCollectIsolatesValidatorFailure(t *testing.T) {
	e := &Executor{log: discardLogger()}
	l := testLayout()
	res := metaResource(l, "vault/x.xml")

	out := e.collect(nil, res, failingValidator{}, func() ([]Violation, error) {
		return nil, errors.New("boom")
	})

	if len(out) != 1 {
		t.Fatalf("got %d violations, want 1", len(out))
	}
	v := out[0]
	if v.Validator != "failing" || v.Severity != SeverityError {
		t.Errorf("violation = %+v, want failing/error", v)
	}
	if v.Path != "src/main/META-INF/vault/x.xml" {
		t.Errorf("Path = %q, want display path", v.Path)
	}
	if !strings.Contains(v.Message, "boom") {
		t.Errorf("Message = %q, want cause included", v.Message)
	}
}

func TestStampFillsAttribution(t *testing.T) {
	vs := stamp([]Violation{
		{Message: "bare"},
		{Path: "kept/path", Validator: "kept", Severity: SeverityInfo, Message: "set"},
	}, "some/path", "props")

	if vs[0].Path != "some/path" || vs[0].Validator != "props" || vs[0].Severity != SeverityError {
		t.Errorf("stamp did not fill blanks: %+v", vs[0])
	}
	if vs[1].Path != "kept/path" || vs[1].Validator != "kept" || vs[1].Severity != SeverityInfo {
		t.Errorf("stamp overwrote set fields: %+v", vs[1])
	}
}

func TestValidateMetadataResourceRereadsForEachValidator(t *testing.T) {
	l := testLayout()
	e, err := NewExecutor(discardLogger(), l, nil)
	if err != nil {
		t.Fatalf("NewExecutor failed: %v", err)
	}

	// Malformed properties.xml must be flagged by both the properties
	// parser and the well-formedness check, proving each validator got
	// the full stream.
	broken := strings.NewReader("<properties><entry key='name'>x</properties>")
	vs, err := e.ValidateMetadataResource(context.Background(), metaResource(l, "vault/properties.xml"), broken)
	if err != nil {
		t.Fatalf("ValidateMetadataResource failed: %v", err)
	}

	byValidator := make(map[string]bool)
	for _, v := range vs {
		byValidator[v.Validator] = true
	}
	if !byValidator["properties"] || !byValidator["xmlwf"] {
		t.Errorf("violations %+v missing properties or xmlwf finding", vs)
	}
}

func TestPackageID(t *testing.T) {
	l := testLayout()
	e, err := NewExecutor(discardLogger(), l, nil)
	if err != nil {
		t.Fatalf("NewExecutor failed: %v", err)
	}

	if got := e.PackageID(); got != "" {
		t.Errorf("PackageID before validation = %q, want empty", got)
	}

	doc := `<?xml version="1.0"?>
<properties>
  <entry key="name">site</entry>
  <entry key="group">com.example</entry>
  <entry key="version">1.0.0</entry>
</properties>`
	if _, err := e.ValidateMetadataResource(context.Background(), metaResource(l, "vault/properties.xml"), strings.NewReader(doc)); err != nil {
		t.Fatalf("ValidateMetadataResource failed: %v", err)
	}

	if got := e.PackageID(); got != "com.example:site:1.0.0" {
		t.Errorf("PackageID = %q, want com.example:site:1.0.0", got)
	}
}

func TestValidateFolderResource(t *testing.T) {
	l := testLayout()
	e, err := NewExecutor(discardLogger(), l, nil)
	if err != nil {
		t.Fatalf("NewExecutor failed: %v", err)
	}

	res := Resource{Root: l.Roots[1], Rel: "apps/bad:dir", Kind: scanner.KindDir}
	vs := e.ValidateFolderResource(context.Background(), res)
	if len(vs) == 0 {
		t.Fatal("expected names violation for folder with illegal character")
	}
	if vs[0].Validator != "names" {
		t.Errorf("Validator = %q, want names", vs[0].Validator)
	}
}

func TestCompleteReportsMissingDescriptors(t *testing.T) {
	l := testLayout()
	e, err := NewExecutor(discardLogger(), l, nil)
	if err != nil {
		t.Fatalf("NewExecutor failed: %v", err)
	}

	// No metadata files validated at all: both descriptor checks fire.
	vs := e.Complete(context.Background())

	var paths []string
	for _, v := range vs {
		paths = append(paths, v.Path)
	}
	wantFilter := "src/main/META-INF/vault/filter.xml"
	wantProps := "src/main/META-INF/vault/properties.xml"
	found := map[string]bool{}
	for _, p := range paths {
		found[p] = true
	}
	if !found[wantFilter] || !found[wantProps] {
		t.Errorf("Complete paths = %v, want %s and %s", paths, wantFilter, wantProps)
	}
}

func TestSeverityOverride(t *testing.T) {
	l := testLayout()
	e, err := NewExecutor(discardLogger(), l, Options{
		"names": {Enabled: true, Severity: SeverityInfo},
	})
	if err != nil {
		t.Fatalf("NewExecutor failed: %v", err)
	}

	vs, err := e.ValidateContentResource(context.Background(), contentResource(l, "apps/bad|name.txt"), strings.NewReader(""))
	if err != nil {
		t.Fatalf("ValidateContentResource failed: %v", err)
	}

	var namesSeverity Severity
	for _, v := range vs {
		if v.Validator == "names" {
			namesSeverity = v.Severity
		}
	}
	if namesSeverity != SeverityInfo {
		t.Errorf("names severity = %q, want overridden info", namesSeverity)
	}
}
