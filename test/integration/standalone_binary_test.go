package integration

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildBinary compiles cmd/linear-mcp and copies it outside the repo so no
// config or .env from the working tree leaks in.
func buildBinary(t *testing.T) (binary string, workDir string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("standalone binary copy/exec test is unix-focused")
	}

	goMod, err := exec.Command("go", "env", "GOMOD").Output()
	require.NoError(t, err)
	repoRoot := filepath.Dir(strings.TrimSpace(string(goMod)))
	require.NotEqual(t, ".", repoRoot, "go env GOMOD returned empty")

	built := filepath.Join(t.TempDir(), "linear-mcp")
	build := exec.Command("go", "build", "-o", built, "./cmd/linear-mcp")
	build.Dir = repoRoot
	build.Env = os.Environ()
	out, err := build.CombinedOutput()
	require.NoError(t, err, "go build: %s", out)

	workDir = t.TempDir()
	binary = filepath.Join(workDir, "linear-mcp")
	data, err := os.ReadFile(built)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(binary, data, 0o755))
	return binary, workDir
}

func runBinary(t *testing.T, binary, dir string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(binary, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "HOME="+dir, "XDG_CONFIG_HOME="+dir, "LINEAR_API_KEY=")
	out, err := cmd.CombinedOutput()
	return string(out), err
}

func TestStandaloneBinary(t *testing.T) {
	binary, dir := buildBinary(t)

	out, err := runBinary(t, binary, dir, "version")
	require.NoError(t, err, out)
	assert.Contains(t, out, "linear-mcp")

	out, err = runBinary(t, binary, dir, "--help")
	require.NoError(t, err, out)
	for _, command := range []string{"serve", "query", "usage", "doctor"} {
		assert.Contains(t, out, command)
	}

	// Compiling a query needs no credential.
	out, err = runBinary(t, binary, dir, "query", "-o", "json", "priority:high", "crash")
	require.NoError(t, err, out)
	assert.Contains(t, out, `"in"`)
	assert.Contains(t, out, "crash")

	// serve refuses to start without LINEAR_API_KEY.
	out, err = runBinary(t, binary, dir, "serve")
	require.Error(t, err)
	assert.Contains(t, out, "LINEAR_API_KEY")
}
