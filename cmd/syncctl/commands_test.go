package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/erp/catalogsync/internal/bootstrap"
	"github.com/erp/catalogsync/internal/domain/syncrun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type env struct {
	dir        string
	configPath string
	tenantID   uuid.UUID
}

func newEnv(t *testing.T) env {
	t.Helper()
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	content := fmt.Sprintf(`[database]
driver = "sqlite"
sqlite_path = %q

[sync]
source_dir = %q

[log]
level = "error"
`, filepath.Join(dir, "sync.db"), filepath.Join(dir, "sources"))
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))
	return env{dir: dir, configPath: configPath, tenantID: uuid.New()}
}

func (e env) source(t *testing.T, table syncrun.LogicalTable) string {
	t.Helper()
	dir := filepath.Join(e.dir, "sources", e.tenantID.String())
	require.NoError(t, os.MkdirAll(dir, 0o755))
	return filepath.Join(dir, table.String()+".csv")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(bootstrap.WithLogger(zaptest.NewLogger(t)))
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--env-file", ""}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestTablesCommand(t *testing.T) {
	out, err := execute(t, "tables")
	require.NoError(t, err)
	assert.Equal(t, "articles\nclients\nproviders\n", out)
}

func TestRunCommand(t *testing.T) {
	t.Run("completed run prints the report", func(t *testing.T) {
		e := newEnv(t)
		require.NoError(t, os.WriteFile(e.source(t, syncrun.TableProviders),
			[]byte("codigo,razon_social,cuit\nP1,Ferreteria Sur,30-1\nP2,Bulones SA,30-2\n"), 0o644))

		out, err := execute(t, "--config", e.configPath, "run", "--tenant", e.tenantID.String(), "--table", "providers")
		require.NoError(t, err)
		assert.Equal(t, exitCompleted, exitCode(err))

		var report map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &report), out)
		assert.Equal(t, "completed", report["status"])
		assert.Equal(t, "providers", report["table"])
		assert.EqualValues(t, 2, report["created"])
		assert.Contains(t, report, "duration_ms")
	})

	t.Run("aborted run exits 2", func(t *testing.T) {
		e := newEnv(t)
		// a directory where the file should be makes the source unreadable
		require.NoError(t, os.MkdirAll(e.source(t, syncrun.TableArticles), 0o755))

		out, err := execute(t, "--config", e.configPath, "run", "--tenant", e.tenantID.String(), "--table", "articles")
		require.Error(t, err)
		assert.Equal(t, exitAborted, exitCode(err))

		var report map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &report), out)
		assert.Equal(t, "aborted", report["status"])
		assert.Equal(t, "SOURCE_UNAVAILABLE", report["error_code"])
	})

	t.Run("invalid tenant", func(t *testing.T) {
		_, err := execute(t, "run", "--tenant", "acme", "--table", "articles")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid --tenant")
		assert.Equal(t, exitAborted, exitCode(err))
	})

	t.Run("unknown table", func(t *testing.T) {
		_, err := execute(t, "run", "--tenant", uuid.NewString(), "--table", "stock")
		assert.ErrorIs(t, err, syncrun.ErrUnknownTable)
	})

	t.Run("missing flags", func(t *testing.T) {
		_, err := execute(t, "run")
		assert.Error(t, err)
	})
}

func TestStatusError(t *testing.T) {
	assert.NoError(t, statusError(syncrun.Report{Status: syncrun.StatusCompleted}))

	err := statusError(syncrun.Report{Status: syncrun.StatusCompletedWithErrors})
	assert.Equal(t, exitCompletedWithErrors, exitCode(err))

	err = statusError(syncrun.Report{Status: syncrun.StatusAborted})
	assert.Equal(t, exitAborted, exitCode(err))

	assert.Equal(t, exitAborted, exitCode(errors.New("boom")))
}
