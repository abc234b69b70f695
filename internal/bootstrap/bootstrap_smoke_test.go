package bootstrap

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	platformerrors "catalog-server-go/internal/platform/errors"
)

func TestInitGraphOrder(t *testing.T) {
	steps := InitGraph()
	want := []string{
		"config:load",
		"logging:init",
		"storage:init",
		"cache:init",
		"auth:init",
		"catalog:init",
		"tasks:init",
	}
	if len(steps) != len(want) {
		t.Fatalf("unexpected step count: got %d want %d", len(steps), len(want))
	}
	for i, step := range steps {
		if step.ID != want[i] {
			t.Fatalf("step %d mismatch: got %s want %s", i, step.ID, want[i])
		}
	}
}

func TestInitGraphDependenciesDeclaredInOrder(t *testing.T) {
	seen := make(map[string]bool)
	for _, step := range InitGraph() {
		for _, dep := range step.DependsOn {
			if !seen[dep] {
				t.Errorf("step %s depends on %s which is not declared earlier", step.ID, dep)
			}
		}
		seen[step.ID] = true
	}
}

func TestExecuteInitSteps(t *testing.T) {
	tmp := t.TempDir()
	configPath := filepath.Join(tmp, "config.yaml")
	configYAML := "log:\n  log_dir: " + filepath.Join(tmp, "logs") + "\n"
	if err := os.WriteFile(configPath, []byte(configYAML), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("AUTH_SECRET", "smoke-test-secret")
	t.Setenv("DATABASE_DSN", filepath.Join(tmp, "smoke.db"))
	t.Setenv("CONFIG_PATH", configPath)

	state := &appState{}
	if err := executeInitSteps(context.Background(), InitGraph(), state); err != nil {
		t.Fatalf("executeInitSteps failed: %v", err)
	}
	defer func() {
		state.tasks.Shutdown()
		_ = state.authManager.Close(context.Background())
		_ = state.cacheStore.Close()
		_ = state.logger.Close()
	}()

	if state.config == nil || state.logger == nil {
		t.Fatal("config/logger missing after init")
	}
	if state.db == nil || state.cacheStore == nil {
		t.Fatal("storage/cache missing after init")
	}
	if state.authManager == nil || state.authorizer == nil {
		t.Fatal("auth domain missing after init")
	}
	if state.items == nil || state.tasks == nil {
		t.Fatal("catalog/tasks missing after init")
	}

	// The seed admin must exist after auth init.
	if _, err := state.authManager.Get(context.Background(), "admin"); err != nil {
		t.Errorf("seed admin missing: %v", err)
	}
}

func TestExecuteInitSteps_UnsatisfiedDependency(t *testing.T) {
	steps := []initStep{
		{
			ID:        "second",
			DependsOn: []string{"first"},
			Execute:   func(context.Context, *appState) error { return nil },
		},
	}
	err := executeInitSteps(context.Background(), steps, &appState{})
	if err == nil {
		t.Fatal("expected dependency error")
	}
	if !platformerrors.IsKind(err, platformerrors.KindBootstrap) {
		t.Errorf("expected bootstrap kind, got %v", err)
	}
}

func TestExecuteInitSteps_StepFailureWrapped(t *testing.T) {
	boom := errors.New("boom")
	steps := []initStep{
		{
			ID:      "failing",
			Kind:    platformerrors.KindStorage,
			Execute: func(context.Context, *appState) error { return boom },
		},
	}
	err := executeInitSteps(context.Background(), steps, &appState{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	if !platformerrors.IsKind(err, platformerrors.KindStorage) {
		t.Errorf("expected storage kind, got %v", err)
	}
}
