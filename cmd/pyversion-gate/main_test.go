package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func setBuildEnv(t *testing.T, version, gilDisabled string) {
	t.Helper()
	t.Setenv("PYO3_PYTHON_VERSION", version)
	t.Setenv("PYO3_GIL_DISABLED", gilDisabled)
}

func TestCheckScenarios(t *testing.T) {
	tests := []struct {
		name       string
		version    string
		gil        string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{
			name:       "3.14 advisory",
			version:    "3.14.0",
			wantStdout: "cargo:warning=Building for Python 3.14. Ensure pyo3 >= 0.22 is used.\n",
		},
		{
			name:    "3.14 free-threaded",
			version: "3.14.0",
			gil:     "1",
			wantStdout: "cargo:warning=Building for Python 3.14. Ensure pyo3 >= 0.22 is used.\n" +
				"cargo:warning=Free-threaded Python detected. abi3 feature must be disabled for cp314t wheels.\n",
		},
		{
			name:       "3.8 aborts",
			version:    "3.8.5",
			wantCode:   1,
			wantStderr: "ChromaDB requires Python >= 3.9, found 3.8\n",
		},
		{
			name:       "empty version skips",
			version:    "",
			wantStdout: "cargo:warning=PYO3_PYTHON_VERSION not set; skipping version check\n",
		},
		{
			name:    "3.11 passes silently",
			version: "3.11.2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBuildEnv(t, tt.version, tt.gil)

			code, stdout, stderr := runCLI(t, "check")

			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantStdout, stdout)
			assert.Equal(t, tt.wantStderr, stderr)
		})
	}
}

func TestRootRunsCheck(t *testing.T) {
	setBuildEnv(t, "3.8", "")

	code, _, stderr := runCLI(t)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "found 3.8")
}

func TestCheckTextFormat(t *testing.T) {
	setBuildEnv(t, "3.14.0", "")

	code, stdout, _ := runCLI(t, "check", "--format", "text")

	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "warning:")
	assert.Contains(t, stdout, "Building for Python 3.14. Ensure pyo3 >= 0.22 is used.\n")
	assert.NotContains(t, stdout, "cargo:warning=")
}

func TestCheckEnvFile(t *testing.T) {
	setBuildEnv(t, "", "")
	path := filepath.Join(t.TempDir(), "build.env")
	require.NoError(t, os.WriteFile(path, []byte("PYO3_PYTHON_VERSION=2.7.18\n"), 0o600))

	code, stdout, stderr := runCLI(t, "check", "--env-file", path)

	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Equal(t, "ChromaDB requires Python >= 3.9, found 2.7\n", stderr)
}

func TestCheckMissingEnvFile(t *testing.T) {
	setBuildEnv(t, "3.11", "")

	code, _, stderr := runCLI(t, "check", "--env-file", filepath.Join(t.TempDir(), "nope.env"))

	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "read env file")
}

func TestCheckConfigFile(t *testing.T) {
	setBuildEnv(t, "", "")
	t.Setenv("TARGET_PY", "3.10.4")
	path := filepath.Join(t.TempDir(), "gate.yaml")
	require.NoError(t, os.WriteFile(path, []byte("gate:\n  version_var: TARGET_PY\n  product: Acme\n  min_supported: \"3.11\"\n"), 0o600))

	code, _, stderr := runCLI(t, "check", "--config", path)

	assert.Equal(t, 1, code)
	assert.Equal(t, "Acme requires Python >= 3.11, found 3.10\n", stderr)
}

func TestCheckInvalidRules(t *testing.T) {
	setBuildEnv(t, "3.11", "")
	t.Setenv("PYVERSION_GATE_GATE_MIN_SUPPORTED", "soon")

	code, _, stderr := runCLI(t, "check")

	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "invalid gate rules")
}

func TestCheckInvalidFormat(t *testing.T) {
	setBuildEnv(t, "3.11", "")

	code, _, stderr := runCLI(t, "check", "--format", "xml")

	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "invalid configuration")
}

func TestCheckDebugLogging(t *testing.T) {
	setBuildEnv(t, "3.11.2", "")

	code, stdout, stderr := runCLI(t, "check", "--log-level", "debug")

	assert.Equal(t, 0, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "version evaluated")
}

func TestUnknownCommand(t *testing.T) {
	code, _, stderr := runCLI(t, "frobnicate")

	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "unknown command")
}

func newChromaServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2/heartbeat", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
	})
	mux.HandleFunc("/api/v2/version", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`"1.0.21"`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestProbe(t *testing.T) {
	srv := newChromaServer(t, http.StatusOK)
	t.Setenv("CHROMA_SERVER_URL", srv.URL)
	t.Setenv("CHROMA_SERVER_PYTHON_VERSION", "3.14.0")

	code, stdout, _ := runCLI(t, "probe")

	assert.Equal(t, 0, code)
	assert.Equal(t, "ChromaDB server version: 1.0.21\n"+
		"Python version: 3.14.0\n"+
		"WARNING: Server running on Python 3.14+. Ensure the pydantic-settings patch is applied.\n"+
		"JS/TS client is compatible regardless of server Python version.\n", stdout)
}

func TestProbeFlagsOverrideEnvironment(t *testing.T) {
	srv := newChromaServer(t, http.StatusOK)
	t.Setenv("CHROMA_SERVER_URL", "http://127.0.0.1:1")
	t.Setenv("CHROMA_SERVER_PYTHON_VERSION", "3.14.0")

	code, stdout, _ := runCLI(t, "probe", "--server-url", srv.URL, "--python-version", "3.12.1")

	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "Python version: 3.12.1\n")
	assert.NotContains(t, stdout, "WARNING")
}

func TestProbeFailure(t *testing.T) {
	srv := newChromaServer(t, http.StatusInternalServerError)
	t.Setenv("CHROMA_SERVER_URL", srv.URL)

	code, stdout, stderr := runCLI(t, "probe")

	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "Server check failed: failed to reach ChromaDB server at "+srv.URL+": 500")
}

func TestVersionCommand(t *testing.T) {
	code, stdout, _ := runCLI(t, "version")

	assert.Equal(t, 0, code)
	assert.Equal(t, "pyversion-gate version dev\n", stdout)

	_, stdout, _ = runCLI(t, "version", "--detailed")
	assert.Contains(t, stdout, "Go version:")
}
