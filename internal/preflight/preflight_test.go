package preflight

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/danielemils/new-alice/internal/deps"
	"github.com/danielemils/new-alice/internal/services"
	"github.com/danielemils/new-alice/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckBinary(t *testing.T) {
	if r := CheckBinary(deps.Status{Name: "SoX", Available: true, Path: "/bin/sox"}); !r.Passed || r.Detail != "/bin/sox" {
		t.Fatalf("unexpected result %#v", r)
	}
	if r := CheckBinary(deps.Status{Name: "SoX", Detail: "missing"}); r.Passed {
		t.Fatal("expected failure for unavailable binary")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(nil); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_StubbedConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())

	results := RunAll(cfg)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	for _, r := range results {
		if !r.Passed {
			t.Errorf("check %q failed: %s", r.Name, r.Detail)
		}
	}
	if err := Err(results); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestRunAll_MissingOutputDir(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	cfg.Paths.OutputDir = filepath.Join(t.TempDir(), "gone")

	err := Err(RunAll(cfg))
	if err == nil {
		t.Fatal("expected error for missing output dir")
	}
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
