package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

const testConfig = `
storage:
  in_memory: true
locales:
  default: en
  available: [en, fr]
models:
  - name: App\Models\Article
    table: articles
    searchable: true
    vector_search: true
    embed: [title]
    translatable: [title]
  - name: App\Models\Page
    table: pages
    searchable: true
`

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "enricher.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o600))

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	full := append([]string{"enricher", "--log-level", "error", "--env-file", "", "--config", path}, args...)
	err := app.Run(full)
	return out.String(), err
}

func TestSetupLogger(t *testing.T) {
	defer slog.SetDefault(slog.Default())

	app := newApp()
	app.Commands = nil
	app.Action = func(*cli.Context) error { return nil }

	for _, level := range []string{"debug", "INFO", "warn", "error"} {
		require.NoError(t, app.Run([]string{"enricher", "--log-level", level}), level)
	}
	err := app.Run([]string{"enricher", "--log-level", "verbose"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestModelArgument(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing", []string{"translate"}, "expected exactly one MODEL argument"},
		{"unknown", []string{"translate", "Comment"}, "unknown model"},
		{"not translatable", []string{"translate", "Page"}, "unknown model"},
		{"no embeddings", []string{"reembed", "Page"}, "unknown model"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runApp(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCommandsOnEmptyStore(t *testing.T) {
	out, err := runApp(t, "translate-missing", "Article")
	require.NoError(t, err)
	assert.Contains(t, out, "No records with missing translations found")

	out, err = runApp(t, "search", "anything")
	require.NoError(t, err)
	assert.Contains(t, out, "No results")

	out, err = runApp(t, "index", "Models\\Page")
	require.NoError(t, err)
	assert.Contains(t, out, "Indexed 0 record(s)")
}

func TestInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("state:\n  driver: memcached\n"), 0o600))

	app := newApp()
	app.Writer = &bytes.Buffer{}
	err := app.Run([]string{"enricher", "--env-file", "", "--config", path, "search", "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}
