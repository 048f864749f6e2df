package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const introspectionResult = `{"data":{"__schema":{"queryType":{"name":"Query"},"mutationType":null,"types":[
	{"name":"Query","fields":[{"name":"viewer"}]},
	{"name":"String","fields":null}
]}}}`

// authLog records the Authorization header of every request the stub receives.
type authLog struct {
	mu      sync.Mutex
	headers []string
}

func (a *authLog) all() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.headers...)
}

func newStubServer(t *testing.T, introspection string) (*httptest.Server, *authLog) {
	t.Helper()
	auth := &authLog{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth.mu.Lock()
		auth.headers = append(auth.headers, r.Header.Get("Authorization"))
		auth.mu.Unlock()
		var body struct {
			Query string `json:"query"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		if strings.Contains(body.Query, "__schema") {
			io.WriteString(w, introspection)
			return
		}
		io.WriteString(w, `{"data":{}}`)
	}))
	t.Cleanup(server.Close)
	return server, auth
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "absent.yaml")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCmd_Run(t *testing.T) {
	server, auth := newStubServer(t, introspectionResult)
	dir := t.TempDir()
	logPath := filepath.Join(dir, "fuzz_results.log")
	reportPath := filepath.Join(dir, "report.json")

	out, err := execute(t,
		"--url", server.URL,
		"--token", "abc",
		"--iterations", "3",
		"--depth", "2",
		"--seed", "7",
		"--log", logPath,
		"--output-json", reportPath,
	)
	require.NoError(t, err)

	assert.Equal(t, 3, strings.Count(out, "Type: valid"))
	assert.Contains(t, out, "{ Query { viewer viewer } }")
	headers := auth.all()
	assert.Len(t, headers, 4)
	for _, h := range headers {
		assert.Equal(t, "Bearer abc", h)
	}

	logData, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(string(logData), " - DEBUG - fuzz record"))

	reportData, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	var report map[string]interface{}
	require.NoError(t, json.Unmarshal(reportData, &report))
	assert.Len(t, report["records"], 3)
}

func TestRootCmd_DiscoveryFailureExitsCleanly(t *testing.T) {
	server, auth := newStubServer(t, `{"errors":[{"message":"introspection disabled"}]}`)
	logPath := filepath.Join(t.TempDir(), "fuzz_results.log")

	out, err := execute(t, "--url", server.URL, "--log", logPath)
	require.NoError(t, err)
	assert.Len(t, auth.all(), 1, "only the introspection query may be sent")
	assert.NotContains(t, out, "Query:")

	logData, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(logData), "Schema discovery failed. Exiting fuzzing process.")
}

func TestRootCmd_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "Missing url", args: []string{}},
		{name: "Zero depth", args: []string{"--url", "http://127.0.0.1:1/graphql", "--depth", "0"}},
		{name: "Positional argument", args: []string{"--url", "http://127.0.0.1:1/graphql", "extra"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestRootCmd_ConfigFile(t *testing.T) {
	server, _ := newStubServer(t, introspectionResult)
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "gqlfuzz.yaml")
	logPath := filepath.Join(dir, "from-config.log")
	cfg := "target: " + server.URL + "\niterations: 2\nseed: 3\noutput:\n  log_file: " + logPath + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0644))

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", cfgPath, "--iterations", "1"})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, 1, strings.Count(out.String(), "Type: valid"), "flag must override the file")
	_, err := os.Stat(logPath)
	assert.NoError(t, err)
}

func TestRootCmd_VerbosePrintsFuzzRecords(t *testing.T) {
	server, _ := newStubServer(t, introspectionResult)
	dir := t.TempDir()

	for _, verbose := range []bool{false, true} {
		cmd := newRootCmd()
		var errOut bytes.Buffer
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&errOut)
		args := []string{
			"--config", filepath.Join(dir, "absent.yaml"),
			"--url", server.URL,
			"--iterations", "2",
			"--log", filepath.Join(dir, "fuzz_results.log"),
		}
		if verbose {
			args = append(args, "-v")
		}
		cmd.SetArgs(args)
		require.NoError(t, cmd.Execute())

		want := 0
		if verbose {
			want = 2
		}
		assert.Equal(t, want, strings.Count(errOut.String(), " - DEBUG - fuzz record"), "verbose=%v", verbose)
	}
}
