package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janusboandersen/frdm-kl25z-minimal-build/internal/config"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := &cobra.Command{Use: "fwverify", SilenceUsage: true, SilenceErrors: true}
	root.PersistentFlags().String("profile", "", "")
	root.AddCommand(NewConfigCmd())

	var stdout bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append([]string{"config"}, args...))

	err := root.Execute()
	return stdout.String(), err
}

// inTempDir isolates a test from profiles and FWVERIFY_* variables of the
// environment.
func inTempDir(t *testing.T) string {
	t.Helper()
	for _, env := range []string{"FWVERIFY_PROFILE", "FWVERIFY_FIRMWARE", "FWVERIFY_FORMAT", "FWVERIFY_LOG_LEVEL"} {
		t.Setenv(env, "")
	}
	dir := t.TempDir()
	chdir(t, dir)
	return dir
}

func writeProfile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewConfigCmd(t *testing.T) {
	cmd := NewConfigCmd()

	if cmd.Use != "config" {
		t.Errorf("Use = %q, want %q", cmd.Use, "config")
	}

	for _, name := range []string{"view", "validate", "init"} {
		found := false
		for _, c := range cmd.Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Subcommand %q not found", name)
		}
	}
}

func TestView(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		inTempDir(t)

		out, err := run(t, "view")
		require.NoError(t, err)
		assert.Contains(t, out, "# Profile: defaults (no profile file)")
		assert.Contains(t, out, "name: frdm-kl25z")
		assert.Contains(t, out, "enabled: true")
	})

	t.Run("raw profile file", func(t *testing.T) {
		dir := inTempDir(t)
		path := writeProfile(t, dir, `version: "1"
name: blinky
rules:
  - name: stack-top
    expr: has_symbol("__StackTop")
`)

		out, err := run(t, "view", "--raw", "--profile", path)
		require.NoError(t, err)
		assert.False(t, strings.HasPrefix(out, "#"))
		assert.Contains(t, out, "name: blinky")
		assert.Contains(t, out, "stack-top")
	})

	t.Run("environment overrides file", func(t *testing.T) {
		dir := inTempDir(t)
		path := writeProfile(t, dir, "version: \"1\"\nformat: text\n")
		t.Setenv("FWVERIFY_FORMAT", "json")

		out, err := run(t, "view", "--raw", "--profile", path)
		require.NoError(t, err)
		assert.Contains(t, out, "format: json")
	})

	t.Run("unknown key", func(t *testing.T) {
		dir := inTempDir(t)
		path := writeProfile(t, dir, "version: \"1\"\nrulez: []\n")

		_, err := run(t, "view", "--profile", path)
		require.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		inTempDir(t)

		out, err := run(t, "validate")
		require.NoError(t, err)
		assert.Contains(t, out, "is valid")
	})

	t.Run("problems as table", func(t *testing.T) {
		dir := inTempDir(t)
		path := writeProfile(t, dir, `version: "2"
rules:
  - name: broken
    expr: symbol("x").addr ==
`)

		out, err := run(t, "validate", "--profile", path)
		var multi *config.MultiValidationError
		require.ErrorAs(t, err, &multi)
		assert.Len(t, multi.Errors, 2)
		assert.Contains(t, out, "2 problem(s)")
		assert.Contains(t, out, "rules[0].expr")
	})

	t.Run("problems as JSON", func(t *testing.T) {
		dir := inTempDir(t)
		path := writeProfile(t, dir, `version: "1"
builtin:
  enabled: true
  skip: [no-such-rule]
`)

		out, err := run(t, "validate", "--profile", path, "-o", "json")
		require.Error(t, err)

		var rows []validationRow
		require.NoError(t, json.Unmarshal([]byte(out), &rows))
		require.Len(t, rows, 1)
		assert.Equal(t, "builtin.skip[0]", rows[0].Field)
	})

	t.Run("unsupported format", func(t *testing.T) {
		inTempDir(t)

		_, err := run(t, "validate", "-o", "csv")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported format")
	})
}

func TestInit(t *testing.T) {
	dir := inTempDir(t)

	out, err := run(t, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote fwverify.yaml")

	profile, err := config.NewLayeredLoader().LoadProfile(filepath.Join(dir, "fwverify.yaml"))
	require.NoError(t, err)
	require.NoError(t, profile.Validate())
	require.Len(t, profile.Rules, 1)

	_, err = run(t, "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = run(t, "init", "--force")
	require.NoError(t, err)

	custom := filepath.Join(dir, "other.yaml")
	_, err = run(t, "init", custom)
	require.NoError(t, err)
	assert.FileExists(t, custom)
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
