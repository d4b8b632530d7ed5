package orchestrator

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/randalmurphal/packlint/internal/config"
	"github.com/randalmurphal/packlint/internal/pipeline"
	"github.com/randalmurphal/packlint/internal/validator"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

const validProperties = `<?xml version="1.0" encoding="UTF-8"?>
<properties>
  <entry key="name">demo</entry>
  <entry key="group">com.example</entry>
  <entry key="version">1.0.0</entry>
</properties>
`

const validFilter = `<?xml version="1.0" encoding="UTF-8"?>
<workspaceFilter version="1.0">
  <filter root="/apps/demo"/>
</workspaceFilter>
`

// validProject lays out a package source that passes every validator.
func validProject(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	writeFile(t, filepath.Join(base, "META-INF", "vault", "properties.xml"), validProperties)
	writeFile(t, filepath.Join(base, "META-INF", "vault", "filter.xml"), validFilter)
	writeFile(t, filepath.Join(base, "jcr_root", "apps", "demo", ".content.xml"),
		`<jcr:root xmlns:jcr="http://www.jcp.org/jcr/1.0"/>`)
	return base
}

func TestRun_CleanProjectPasses(t *testing.T) {
	base := validProject(t)
	eng := New(discardLogger(), config.Default(), Options{Base: base})

	o, err := eng.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if o.Failed {
		t.Errorf("Failed = true for clean project, violations: %+v", o.Violations)
	}
	if o.Skipped {
		t.Error("Skipped = true, want false")
	}
	if len(o.Violations) != 0 {
		t.Errorf("violations = %+v, want none", o.Violations)
	}
}

func TestRun_ErrorFailsRun(t *testing.T) {
	base := validProject(t)
	writeFile(t, filepath.Join(base, "jcr_root", "apps", "demo", "broken.xml"), "<unclosed")

	eng := New(discardLogger(), config.Default(), Options{Base: base})
	o, err := eng.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !o.Failed {
		t.Error("Failed = false, want true")
	}
	if o.Totals[validator.SeverityError] == 0 {
		t.Error("no error-severity findings recorded")
	}
}

func TestRun_SkipWhenFullValidationPlanned(t *testing.T) {
	base := validProject(t)
	writeFile(t, filepath.Join(base, "jcr_root", "broken.xml"), "<unclosed")

	plan := pipeline.StaticSource{{Component: pipeline.ComponentID, Task: pipeline.FullValidationTask}}
	eng := New(discardLogger(), config.Default(), Options{Base: base, Plan: plan})

	o, err := eng.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !o.Skipped {
		t.Error("Skipped = false, want true")
	}
	if o.Failed {
		t.Error("Failed = true for a skipped run")
	}
	if len(o.Violations) != 0 {
		t.Errorf("skipped run recorded violations: %+v", o.Violations)
	}
}

func TestRun_IncrementalNeverSkips(t *testing.T) {
	base := validProject(t)
	writeFile(t, filepath.Join(base, "jcr_root", "apps", "demo", "broken.xml"), "<unclosed")

	plan := pipeline.StaticSource{{Component: pipeline.ComponentID, Task: pipeline.FullValidationTask}}
	eng := New(discardLogger(), config.Default(), Options{Base: base, Plan: plan, Incremental: true})

	o, err := eng.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if o.Skipped {
		t.Error("incremental run skipped")
	}
	if !o.Failed {
		t.Error("Failed = false, want true")
	}
}

func TestRun_SkipGateReadsDefaultPlanFile(t *testing.T) {
	base := validProject(t)
	writeFile(t, filepath.Join(base, ".packlint", "pipeline.yaml"), `
version: 1
steps:
  - component: packlint
    task: validate-package
`)

	eng := New(discardLogger(), config.Default(), Options{Base: base})
	o, err := eng.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !o.Skipped {
		t.Error("Skipped = false, want true from default plan file")
	}
}

func TestRun_UnreadablePlanProceeds(t *testing.T) {
	base := validProject(t)
	cfg := config.Default()
	cfg.PipelineFile = "no/such/plan.yaml"

	eng := New(discardLogger(), cfg, Options{Base: base})
	o, err := eng.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if o.Skipped {
		t.Error("Skipped = true, want false when the plan cannot be read")
	}
}

func TestRun_FailOnWarnings(t *testing.T) {
	base := t.TempDir()
	// Trailing dot in a name is a warning-severity finding.
	writeFile(t, filepath.Join(base, "jcr_root", "note."), "x")

	cfg := config.Default()
	eng := New(discardLogger(), cfg, Options{Base: base})
	o, err := eng.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if o.Failed {
		t.Error("Failed = true with fail_on_warnings off")
	}
	if o.Totals[validator.SeverityWarning] != 1 {
		t.Fatalf("warnings = %d, want 1", o.Totals[validator.SeverityWarning])
	}

	cfg.FailOnWarnings = true
	o2, err := New(discardLogger(), cfg, Options{Base: base}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !o2.Failed {
		t.Error("Failed = false with fail_on_warnings on")
	}
}

func TestRun_NoRootsIsError(t *testing.T) {
	eng := New(discardLogger(), config.Default(), Options{Base: t.TempDir()})
	if _, err := eng.Run(context.Background()); err == nil {
		t.Error("Run on an empty directory returned nil error")
	}
}

func TestRun_BadExcludePattern(t *testing.T) {
	base := validProject(t)
	cfg := config.Default()
	cfg.Excludes = []string{"[unclosed"}

	if _, err := New(discardLogger(), cfg, Options{Base: base}).Run(context.Background()); err == nil {
		t.Error("Run with malformed exclude returned nil error")
	}
}

func TestRun_UnknownValidatorID(t *testing.T) {
	base := validProject(t)
	cfg := config.Default()
	cfg.Validators = map[string]config.ValidatorConfig{"nope": {}}

	if _, err := New(discardLogger(), cfg, Options{Base: base}).Run(context.Background()); err == nil {
		t.Error("Run with unknown validator ID returned nil error")
	}
}

func TestRun_BadSeverityOverride(t *testing.T) {
	base := validProject(t)
	cfg := config.Default()
	cfg.Validators = map[string]config.ValidatorConfig{"names": {Severity: "fatal"}}

	if _, err := New(discardLogger(), cfg, Options{Base: base}).Run(context.Background()); err == nil {
		t.Error("Run with bad severity override returned nil error")
	}
}

func TestRun_DisabledValidatorSkipsItsFindings(t *testing.T) {
	base := validProject(t)
	writeFile(t, filepath.Join(base, "jcr_root", "broken.json"), "{nope")

	off := false
	cfg := config.Default()
	cfg.Validators = map[string]config.ValidatorConfig{"jsonwf": {Enabled: &off}}

	o, err := New(discardLogger(), cfg, Options{Base: base}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if o.Failed {
		t.Errorf("Failed = true with jsonwf disabled, violations: %+v", o.Violations)
	}
}
