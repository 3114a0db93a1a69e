package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janusboandersen/frdm-kl25z-minimal-build/internal/testutil"
	"github.com/janusboandersen/frdm-kl25z-minimal-build/pkg/elfmodel"
	"github.com/janusboandersen/frdm-kl25z-minimal-build/pkg/verify"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("FWVERIFY_PROFILE", "")
	t.Setenv("FWVERIFY_FIRMWARE", "")
	t.Setenv("FWVERIFY_FORMAT", "")
	chdir(t, t.TempDir())

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append(args, "--log-level", "disabled"))

	err := cmd.Execute()
	return stdout.String(), err
}

func TestVerify_WellFormedImage(t *testing.T) {
	path := testutil.KL25ZImage().Write(t)

	out, err := runCLI(t, "verify", "--firmware", path)
	require.NoError(t, err)
	assert.Equal(t, 0, ExitCode(err))
	assert.Contains(t, out, "PASS")
	assert.NotContains(t, out, "FAIL")
	assert.Contains(t, out, "12 passed, 0 failed")
}

func TestVerify_FailingRule(t *testing.T) {
	path := testutil.KL25ZImage().RemoveSymbol("__boot_marker").Write(t)

	out, err := runCLI(t, "verify", "-f", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailed, ExitCode(err))
	assert.Contains(t, err.Error(), "1 of 12 rules failed")
	assert.Contains(t, out, "FAIL")
	assert.Contains(t, out, "symbol '__boot_marker' does not exist in ELF")
}

func TestVerify_JSON(t *testing.T) {
	path := testutil.KL25ZImage().Write(t)

	out, err := runCLI(t, "verify", "--firmware", path, "--format", "json")
	require.NoError(t, err)

	var report verify.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, path, report.Firmware)
	assert.Len(t, report.Results, len(verify.KL25ZRules()))
	assert.Zero(t, report.Failed)
}

func TestVerify_UnusableInput(t *testing.T) {
	t.Run("no firmware", func(t *testing.T) {
		_, err := runCLI(t, "verify")
		require.ErrorIs(t, err, errNoFirmware)
		assert.Equal(t, ExitError, ExitCode(err))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := runCLI(t, "verify", "--firmware", filepath.Join(t.TempDir(), "missing.elf"))
		var ce *elfmodel.ConfigError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, ExitError, ExitCode(err))
	})

	t.Run("missing attributes", func(t *testing.T) {
		path := testutil.KL25ZImage().Attributes(nil).Write(t)
		_, err := runCLI(t, "verify", "--firmware", path)
		var se *elfmodel.StructuralError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, ExitError, ExitCode(err))
	})

	t.Run("bad format", func(t *testing.T) {
		path := testutil.KL25ZImage().Write(t)
		_, err := runCLI(t, "verify", "--firmware", path, "--format", "xml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unsupported format "xml"`)
	})
}

func TestVerify_Profile(t *testing.T) {
	path := testutil.KL25ZImage().RemoveSymbol("__boot_marker").Write(t)
	profile := filepath.Join(t.TempDir(), "fwverify.yaml")
	require.NoError(t, os.WriteFile(profile, []byte(`
version: "1"
firmware: `+path+`
builtin:
  skip: [boot-marker]
rules:
  - name: heap-size
    description: heap is 1 KiB
    expr: section(".heap").size == 1024
  - name: stack-size
    expr: section(".stack_dummy").size == 2048
`), 0o644))

	out, err := runCLI(t, "verify", "--profile", profile)
	require.Error(t, err)
	assert.Equal(t, ExitFailed, ExitCode(err))
	assert.Contains(t, out, "heap is 1 KiB")
	assert.NotContains(t, out, "boot-marker")
	assert.Contains(t, out, `section(".stack_dummy").size == 2048 is false`)
	assert.Contains(t, out, "12 passed, 1 failed")
}

func TestVerify_InvalidProfile(t *testing.T) {
	profile := filepath.Join(t.TempDir(), "fwverify.yaml")
	require.NoError(t, os.WriteFile(profile, []byte(`
version: "1"
rules:
  - name: broken
    expr: symbol(
`), 0o644))

	_, err := runCLI(t, "verify", "--profile", profile, "--firmware", "firmware.elf")
	require.Error(t, err)
	assert.Equal(t, ExitError, ExitCode(err))
	assert.Contains(t, err.Error(), "rules[0].expr")
}

func TestInspect_Table(t *testing.T) {
	path := testutil.KL25ZImage().Write(t)

	out, err := runCLI(t, "inspect", "--firmware", path, "--sections")
	require.NoError(t, err)
	assert.Contains(t, out, "sections:")
	assert.Contains(t, out, ".isr_vector")
	assert.Contains(t, out, "192 B")
	assert.Contains(t, out, "SHT_ARM_ATTRIBUTES")
	assert.NotContains(t, out, ".debug_info")
	assert.NotContains(t, out, "symbols:")
}

func TestInspect_AllParts(t *testing.T) {
	path := testutil.KL25ZImage().Write(t)

	out, err := runCLI(t, "inspect", "--firmware", path)
	require.NoError(t, err)
	for _, want := range []string{"header:", "sections:", "symbols:", "attributes:", "EM_ARM", "Reset_Handler", "TAG_CPU_ARCH", "cortex-m0plus"} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "$t")
}

func TestInspect_JSON(t *testing.T) {
	path := testutil.KL25ZImage().Write(t)

	out, err := runCLI(t, "inspect", "--firmware", path, "--symbols", "--header", "-o", "json")
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Contains(t, doc, "symbols")
	assert.Contains(t, doc, "header")
	assert.Contains(t, doc, "digest")
	assert.NotContains(t, doc, "sections")

	var symbols []symbolRow
	require.NoError(t, json.Unmarshal(doc["symbols"], &symbols))
	assert.Len(t, symbols, 16)
}

func TestInspect_CSV(t *testing.T) {
	path := testutil.KL25ZImage().Write(t)

	out, err := runCLI(t, "inspect", "--firmware", path, "--attributes", "-o", "csv")
	require.NoError(t, err)
	assert.Contains(t, out, "Scope,Tag,Value\n")
	assert.Contains(t, out, "TAG_FILE,TAG_CPU_ARCH,0x0c (12)")
}

func TestInspect_BadFormat(t *testing.T) {
	_, err := runCLI(t, "inspect", "--firmware", "firmware.elf", "-o", "yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported format "yaml"`)
}

func TestVersion(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "fwverify version")
	assert.Contains(t, out, "Go version")
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
