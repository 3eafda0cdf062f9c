// ABOUTME: Tests for the microshop command tree
// ABOUTME: Covers config path resolution, init, hash-password, token, and health commands

package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Alex-Zverr/microshop/internal/config"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	configFile = ""

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return buf.String(), err
}

// initConfigAt runs init against a temp directory and returns the config path.
func initConfigAt(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	_, err := execute(t, "", "--config", path, "init", "--db", filepath.Join(dir, "shop.db"))
	require.NoError(t, err)
	return path
}

func TestRootCommand_HasExpectedSubcommands(t *testing.T) {
	out, err := execute(t, "", "--help")
	require.NoError(t, err)

	for _, sub := range []string{"serve", "init", "hash-password", "token", "health"} {
		assert.Contains(t, out, sub, "Help missing %q command", sub)
	}
}

func TestGetConfigPath_Priority(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	t.Setenv("MICROSHOP_CONFIG", "")
	configFile = ""
	assert.Equal(t, filepath.Join("/xdg", "microshop", "config.yaml"), getConfigPath())

	t.Setenv("MICROSHOP_CONFIG", "/env/config.yaml")
	assert.Equal(t, "/env/config.yaml", getConfigPath())

	configFile = "/flag/config.yaml"
	t.Cleanup(func() { configFile = "" })
	assert.Equal(t, "/flag/config.yaml", getConfigPath())
}

func TestInit_WritesLoadableConfig(t *testing.T) {
	path := initConfigAt(t)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Auth.JWTSecret, 64)
	assert.Equal(t, config.BackendMemory, cfg.Auth.IdentityBackend)
	assert.True(t, cfg.Metrics.Enabled)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestInit_RefusesOverwrite(t *testing.T) {
	path := initConfigAt(t)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = execute(t, "", "--config", path, "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	_, err = execute(t, "", "--config", path, "init", "--force")
	require.NoError(t, err)
	after, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.NotEqual(t, before, after, "--force should write a new secret")
}

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
	}{
		{"argument", "", []string{"hash-password", "--cost", "4", "hunter2"}},
		{"stdin", "hunter2\n", []string{"hash-password", "--cost", "4"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.stdin, tt.args...)
			require.NoError(t, err)
			hash := strings.TrimSpace(out)
			assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("hunter2")))
		})
	}

	_, err := execute(t, "", "hash-password", "--cost", "4", "")
	assert.Error(t, err)
}

func TestToken_IssueAndDecode(t *testing.T) {
	path := initConfigAt(t)

	out, err := execute(t, "", "--config", path, "token", "issue", "--user", "john")
	require.NoError(t, err)
	token := strings.TrimSpace(out)
	require.Equal(t, 2, strings.Count(token, "."))

	out, err = execute(t, "", "--config", path, "token", "decode", token)
	require.NoError(t, err)
	assert.Contains(t, out, `"sub": "john"`)
	assert.Contains(t, out, `"email": "john@mail.ru"`)
}

func TestToken_IssueRejections(t *testing.T) {
	path := initConfigAt(t)

	_, err := execute(t, "", "--config", path, "token", "issue", "--user", "nobody")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")

	_, err = execute(t, "", "--config", path, "token", "issue", "--user", "guest")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inactive")

	_, err = execute(t, "", "--config", path, "token", "issue")
	assert.Error(t, err)
}

func TestToken_DecodeRejectsGarbage(t *testing.T) {
	path := initConfigAt(t)

	_, err := execute(t, "", "--config", path, "token", "decode", "not-a-token")
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("OK"))
	}))
	defer ts.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "server:\n  http_addr: \"" + strings.TrimPrefix(ts.URL, "http://") + "\"\n" +
		"database:\n  path: \"" + filepath.Join(dir, "x.db") + "\"\n" +
		"auth:\n  jwt_secret: \"0123456789abcdef0123456789abcdef\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	out, err := execute(t, "", "--config", path, "health")
	require.NoError(t, err)
	assert.Contains(t, out, "healthy")

	ts.Close()
	_, err = execute(t, "", "--config", path, "health")
	assert.Error(t, err)
}
