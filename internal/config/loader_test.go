package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveProfilePath(t *testing.T) {
	t.Run("flag wins", func(t *testing.T) {
		t.Setenv("FWVERIFY_PROFILE", "env.yaml")
		if got := ResolveProfilePath("flag.yaml"); got != "flag.yaml" {
			t.Errorf("ResolveProfilePath() = %q, want %q", got, "flag.yaml")
		}
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv("FWVERIFY_PROFILE", "env.yaml")
		if got := ResolveProfilePath(""); got != "env.yaml" {
			t.Errorf("ResolveProfilePath() = %q, want %q", got, "env.yaml")
		}
	})

	t.Run("working directory", func(t *testing.T) {
		t.Setenv("FWVERIFY_PROFILE", "")
		dir := t.TempDir()
		chdir(t, dir)

		if got := ResolveProfilePath(""); got != "" {
			t.Errorf("ResolveProfilePath() = %q, want empty without fwverify.yaml", got)
		}

		if err := os.WriteFile(filepath.Join(dir, "fwverify.yaml"), []byte("version: \"1\"\n"), 0644); err != nil {
			t.Fatalf("Failed to write profile: %v", err)
		}
		if got := ResolveProfilePath(""); got != "fwverify.yaml" {
			t.Errorf("ResolveProfilePath() = %q, want %q", got, "fwverify.yaml")
		}
	})

	t.Run("directory named like the profile", func(t *testing.T) {
		t.Setenv("FWVERIFY_PROFILE", "")
		dir := t.TempDir()
		chdir(t, dir)

		if err := os.Mkdir(filepath.Join(dir, "fwverify.yaml"), 0755); err != nil {
			t.Fatalf("Failed to create directory: %v", err)
		}
		if got := ResolveProfilePath(""); got != "" {
			t.Errorf("ResolveProfilePath() = %q, want empty", got)
		}
	})
}

// chdir changes the working directory for the duration of the test,
// mirroring testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir(%q): %v", dir, err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatalf("restore Chdir(%q): %v", wd, err)
		}
	})
}
