package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/germanamz/aibindgen/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFmtTokens(t *testing.T) {
	tests := []struct {
		input    int
		expected string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1.0k"},
		{15000, "15.0k"},
		{1_000_000, "1.0M"},
		{3_400_000, "3.4M"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, fmtTokens(tt.input), "fmtTokens(%d)", tt.input)
	}
}

func TestFmtDuration(t *testing.T) {
	tests := []struct {
		input    time.Duration
		expected string
	}{
		{100 * time.Millisecond, "0.1s"},
		{30 * time.Second, "30.0s"},
		{65 * time.Second, "1m 5s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, fmtDuration(tt.input), "fmtDuration(%v)", tt.input)
	}
}

func TestLoadDotEnv(t *testing.T) {
	require.NoError(t, loadDotEnv(""))
	require.NoError(t, loadDotEnv(filepath.Join(t.TempDir(), "missing.env")))

	t.Setenv("AIBINDGEN_DOTENV_TEST", "")
	require.NoError(t, os.Unsetenv("AIBINDGEN_DOTENV_TEST"))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("AIBINDGEN_DOTENV_TEST=loaded\n"), 0o600))

	require.NoError(t, loadDotEnv(path))
	assert.Equal(t, "loaded", os.Getenv("AIBINDGEN_DOTENV_TEST"))
}

func TestResolver(t *testing.T) {
	assert.IsType(t, credentials.EnvResolver{}, resolver(""))
	assert.Equal(t, credentials.FileResolver{Path: "a.yaml"}, resolver("a.yaml"))
}

func TestTargets(t *testing.T) {
	assert.Equal(t, []string{"."}, targets(nil))
	assert.Equal(t, []string{"a", "b/..."}, targets([]string{"a", "b/..."}))
}

func TestUnifiedDiff(t *testing.T) {
	d := unifiedDiff("x_aigen.go", []byte("a\nb\n"), []byte("a\nc\n"))
	assert.Contains(t, d, "--- x_aigen.go\n+++ x_aigen.go\n")
	assert.Contains(t, d, "-b\n+c\n")
}

func TestRenderMarkdown_NilRenderer(t *testing.T) {
	assert.Equal(t, "# x", renderMarkdown(nil, "# x"))
}
