package cmd_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/pseudomuto/metatree/pkg/catalog"
	"github.com/pseudomuto/metatree/pkg/cmd"
	"github.com/pseudomuto/metatree/pkg/consts"
	"github.com/stretchr/testify/require"
	"gotest.tools/v3/golden"
)

const fixture = "testdata/server.yaml"

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	app := cmd.New(cmd.Version{Version: "v0.0.0-test", Commit: "abc123", Timestamp: "2026-01-01"})
	app.Writer = &stdout
	app.ErrWriter = &stderr

	err := app.Run(context.Background(), append([]string{"metatree"}, args...))
	return stdout.String(), stderr.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), consts.DefaultConfigFile)
	require.NoError(t, os.WriteFile(path, []byte(body), consts.ModeFile))
	return path
}

func TestResolveCommand(t *testing.T) {
	tests := []struct {
		name    string
		address string
		golden  string
	}{
		{name: "database", address: "Server/Database[@Name='Sales']", golden: "resolve_database.golden"},
		{name: "table", address: "Server/Database[@Name='Sales']/Table[@Schema='dbo' and @Name='Orders']", golden: "resolve_table.golden"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := run(t, "-s", fixture, "resolve", tt.address)
			require.NoError(t, err)
			golden.Assert(t, out, tt.golden)
		})
	}
}

func TestResolveCommand_Errors(t *testing.T) {
	_, _, err := run(t, "-s", fixture, "resolve")
	require.ErrorContains(t, err, "exactly one address is required")

	_, _, err = run(t, "-s", fixture, "resolve", "Server/Database[@Name='Missing']")
	require.ErrorIs(t, err, catalog.ErrMissingObject)

	_, _, err = run(t, "resolve", "Server")
	require.ErrorContains(t, err, "Path")

	_, _, err = run(t, "-c", filepath.Join(t.TempDir(), "missing.yaml"), "resolve", "Server")
	require.ErrorContains(t, err, "failed to open file")
}

func TestQueryCommand(t *testing.T) {
	t.Run("fields and order", func(t *testing.T) {
		out, _, err := run(t, "-s", fixture, "query", "Server/Database/Table", "-f", "RowCount", "-o", "RowCount:desc")
		require.NoError(t, err)
		golden.Assert(t, out, "query_tables.golden")
	})

	t.Run("addresses only", func(t *testing.T) {
		out, _, err := run(t, "-s", fixture, "query", "Server/JobServer/Job")
		require.NoError(t, err)
		require.Equal(t,
			"Server[@Name='PROD01']/JobServer/Job[@Name='nightly']\n"+
				"Server[@Name='PROD01']/JobServer/Job[@Name='weekly']\n",
			out)
	})

	t.Run("invalid order", func(t *testing.T) {
		_, _, err := run(t, "-s", fixture, "query", "Server/Database", "-o", "Name:sideways")
		require.ErrorContains(t, err, "direction must be asc or desc")
	})
}

func TestCompareCommand(t *testing.T) {
	tests := []struct {
		a, b     string
		expected string
	}{
		{"Server/Database[@Name='HR']", "Server/Database[@Name='Sales']", "-1\n"},
		{"Server/Database[@Name='sales']", "Server/Database[@Name='SALES']", "0\n"},
		{"Server/Database[@Name='Sales']/Table[@Schema='dbo' and @Name='Orders']", "Server/Database[@Name='Sales']", "1\n"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s vs %s", tt.a, tt.b), func(t *testing.T) {
			out, _, err := run(t, "-s", fixture, "compare", tt.a, tt.b)
			require.NoError(t, err)
			require.Equal(t, tt.expected, out)
		})
	}

	_, _, err := run(t, "-s", fixture, "compare", "Server")
	require.ErrorContains(t, err, "exactly two addresses are required")
}

func TestImportCommand(t *testing.T) {
	db := filepath.Join(t.TempDir(), "prod01.db")

	out, _, err := run(t, "import", "--fixture", fixture, "--db", db)
	require.NoError(t, err)
	require.Equal(t, fmt.Sprintf("imported 12 entities into %s\n", db), out)

	cfg := writeConfig(t, fmt.Sprintf("source:\n  kind: sqlite\n  path: %s\n", db))
	out, _, err = run(t, "-c", cfg, "resolve", "Server/Database[@Name='HR']")
	require.NoError(t, err)
	require.Contains(t, out, "Owner = hr_admin")
}

func TestMetrics(t *testing.T) {
	dir := t.TempDir()
	textfile := filepath.Join(dir, "metrics.prom")
	fixturePath, err := filepath.Abs(fixture)
	require.NoError(t, err)

	cfg := writeConfig(t, fmt.Sprintf("source:\n  path: %s\nmetrics:\n  enabled: true\n  textfile: %s\n", fixturePath, textfile))
	_, _, err = run(t, "-c", cfg, "resolve", "Server/Database[@Name='HR']")
	require.NoError(t, err)

	data, err := os.ReadFile(textfile)
	require.NoError(t, err)
	require.Contains(t, string(data), `metatree_source_fetches_total{status="success",type="Database"} 1`)
	require.Contains(t, string(data), `metatree_source_fetches_total{status="success",type="Server"} 1`)
}

func TestLogLevel(t *testing.T) {
	_, stderr, err := run(t, "-s", fixture, "--log-level", "debug", "resolve", "Server/Database[@Name='HR']")
	require.NoError(t, err)
	require.Contains(t, stderr, "root materialized")
	require.Contains(t, stderr, "root_id=")
}

func TestVersionCommand(t *testing.T) {
	out, _, err := run(t, "version")
	require.NoError(t, err)
	require.Equal(t, "Version: v0.0.0-test\nCommit: abc123\nDate: 2026-01-01\n", out)
}
