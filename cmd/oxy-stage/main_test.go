package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-stage/engine/loader/loadertest"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestInspectPrintsClips(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "hero.glb"), loadertest.GLB(loadertest.Model{Clips: 2}), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	out, err := execute(t, "inspect", "hero.glb", "--assets", dir, "--quality", "low")
	if err != nil {
		t.Fatalf("inspect: %v\n%s", err, out)
	}
	for _, want := range []string{"result:   loaded", "clips:    2", "Wave Hello", "1.800"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestInspectMissingFileShowsPlaceholder(t *testing.T) {
	out, err := execute(t, "inspect", "nothing.glb", "--assets", t.TempDir())
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if !strings.Contains(out, "placeholder") {
		t.Fatalf("output = %s", out)
	}
}

func TestUnlockAndCatalog(t *testing.T) {
	db := filepath.Join(t.TempDir(), "unlock.db")

	out, err := execute(t, "unlock", "catherine-mercy", "--db", db)
	if err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if strings.TrimSpace(out) != "catherine-mercy" {
		t.Fatalf("unlock output = %q", out)
	}

	if _, err := execute(t, "unlock", "nobody", "--db", db); err == nil {
		t.Fatal("unknown id should fail")
	}
	if _, err := execute(t, "unlock", "--db", db); err == nil {
		t.Fatal("unlock without ids or --list should fail")
	}

	out, err = execute(t, "catalog", "--db", db)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if !strings.Contains(out, "catherine-mercy") || !strings.Contains(out, "unlocked") {
		t.Fatalf("catalog output:\n%s", out)
	}
}

func TestInvalidQualityFlag(t *testing.T) {
	if _, err := execute(t, "catalog", "--quality", "ultra", "--db", filepath.Join(t.TempDir(), "x.db")); err == nil {
		t.Fatal("invalid quality should fail")
	}
}
