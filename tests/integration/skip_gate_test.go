package integration

import (
	"context"
	"testing"

	"github.com/randalmurphal/packlint/internal/config"
	"github.com/randalmurphal/packlint/internal/orchestrator"
	"github.com/randalmurphal/packlint/tests/testutil"
)

const fullValidationPlan = `version: 1
steps:
  - component: packlint
    task: validate-package
`

// TestSkipGate_PlannedFullValidation verifies a standalone run defers to
// a later full validation scheduled in the build plan.
func TestSkipGate_PlannedFullValidation(t *testing.T) {
	p := testutil.SetupTestProject(t)
	p.WriteValidMetadata()
	p.WriteFile("jcr_root/apps/broken.json", `{not json`)
	p.WriteFile(".packlint/pipeline.yaml", fullValidationPlan)

	engine := orchestrator.New(quietLogger(), config.Default(), orchestrator.Options{
		Base: p.RootDir,
	})

	o, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !o.Skipped {
		t.Fatal("Skipped = false, want true with full validation planned")
	}
	if o.SkipReason == "" {
		t.Error("SkipReason is empty")
	}
	// Skipped is not failed and not clean: nothing was checked.
	if o.Failed {
		t.Error("Failed = true for a skipped run")
	}
	if len(o.Violations) != 0 {
		t.Errorf("skipped run recorded violations: %v", o.Violations)
	}
}

// TestSkipGate_IncrementalNeverSkips verifies incremental runs validate
// even when the plan schedules full validation, since they exist to give
// feedback right now.
func TestSkipGate_IncrementalNeverSkips(t *testing.T) {
	p := testutil.SetupTestProject(t)
	p.WriteValidMetadata()
	p.WriteFile("jcr_root/apps/broken.json", `{not json`)
	p.WriteFile(".packlint/pipeline.yaml", fullValidationPlan)

	engine := orchestrator.New(quietLogger(), config.Default(), orchestrator.Options{
		Base:        p.RootDir,
		Incremental: true,
	})

	o, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if o.Skipped {
		t.Fatal("Skipped = true for an incremental run")
	}
	if !o.Failed {
		t.Error("Failed = false, the broken file was not validated")
	}
}

// TestSkipGate_OtherTasksDoNotSkip verifies unrelated plan steps leave
// validation running.
func TestSkipGate_OtherTasksDoNotSkip(t *testing.T) {
	p := testutil.SetupTestProject(t)
	p.WriteValidMetadata()
	p.WriteFile(".packlint/pipeline.yaml", `version: 1
steps:
  - component: compiler
    task: build
  - component: packlint
    task: lint-sources
`)

	engine := orchestrator.New(quietLogger(), config.Default(), orchestrator.Options{
		Base: p.RootDir,
	})

	o, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if o.Skipped {
		t.Error("Skipped = true without a planned full validation")
	}
}

// TestSkipGate_DisabledByConfig verifies skip_if_planned: false forces
// validation despite the plan.
func TestSkipGate_DisabledByConfig(t *testing.T) {
	p := testutil.SetupTestProject(t)
	p.WriteValidMetadata()
	p.WriteFile(".packlint/pipeline.yaml", fullValidationPlan)

	cfg := config.Default()
	cfg.SkipIfPlanned = false
	engine := orchestrator.New(quietLogger(), cfg, orchestrator.Options{Base: p.RootDir})

	o, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if o.Skipped {
		t.Error("Skipped = true with skip_if_planned disabled")
	}
}

// TestSkipGate_BrokenPlanProceeds verifies an unresolvable plan never
// silently skips validation.
func TestSkipGate_BrokenPlanProceeds(t *testing.T) {
	p := testutil.SetupTestProject(t)
	p.WriteValidMetadata()
	p.WriteFile(".packlint/pipeline.yaml", `version: 1
steps:
  - ref: package
`)

	engine := orchestrator.New(quietLogger(), config.Default(), orchestrator.Options{
		Base: p.RootDir,
	})

	o, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if o.Skipped {
		t.Error("Skipped = true on a plan that references an unknown goal")
	}
}
