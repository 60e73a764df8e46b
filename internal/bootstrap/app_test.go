package bootstrap

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/erp/catalogsync/internal/domain/syncrun"
	"github.com/erp/catalogsync/internal/infrastructure/config"
	"github.com/erp/catalogsync/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		App: config.AppConfig{Name: "catalog-sync", Env: "test", Port: "0"},
		Database: config.DatabaseConfig{
			Driver:     "sqlite",
			SQLitePath: filepath.Join(dir, "catalogsync.db"),
		},
		Log: config.LogConfig{Level: "error", Format: "console", Output: "stdout"},
		HTTP: config.HTTPConfig{
			ReadTimeout:    5 * time.Second,
			WriteTimeout:   5 * time.Second,
			MaxHeaderBytes: 1 << 20,
		},
		Sync: config.SyncConfig{
			SourceKind:    config.SourceDirectory,
			SourceDir:     filepath.Join(dir, "sources"),
			SourceTimeout: 5 * time.Second,
			Delimiter:     ",",
			MaxIssues:     50,
			LockTTL:       time.Minute,
		},
		Scheduler: config.SchedulerConfig{
			CheckInterval:     time.Minute,
			MaxConcurrentJobs: 1,
			JobTimeout:        10 * time.Second,
			RetryAttempts:     1,
			RetryDelay:        time.Second,
		},
		Telemetry: config.TelemetryConfig{ServiceName: "catalog-sync-test"},
	}
}

func writeSource(t *testing.T, cfg *config.Config, tenantID uuid.UUID, table syncrun.LogicalTable, content string) {
	t.Helper()
	dir := filepath.Join(cfg.Sync.SourceDir, tenantID.String())
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, table.String()+".csv"), []byte(content), 0o644))
}

func newTestApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	app, err := New(context.Background(), cfg, WithLogger(zaptest.NewLogger(t)), WithVersion("test"))
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, app.Shutdown(ctx))
	})
	return app
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Meta    *struct {
		Total int `json:"total"`
	} `json:"meta"`
}

func do(t *testing.T, h http.Handler, method, path string, tenantID uuid.UUID) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if tenantID != uuid.Nil {
		req.Header.Set("X-Tenant-ID", tenantID.String())
	}
	w := testutil.PerformRequest(h, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func TestApp_SyncOverHTTP(t *testing.T) {
	cfg := testConfig(t)
	tenantID := uuid.New()
	writeSource(t, cfg, tenantID, syncrun.TableArticles,
		"codigo,descripcion,precio\nA1,Tornillo,\"10,50\"\nA2,Tuerca,5\nA2,Tuerca repetida,6\n")

	app := newTestApp(t, cfg)
	assert.Nil(t, app.Scheduler)
	engine := app.Engine()

	w, env := do(t, engine, http.MethodPost, "/api/v1/sync/articles", tenantID)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var report struct {
		Status     string `json:"status"`
		Read       int    `json:"read"`
		Duplicates int    `json:"duplicates"`
		Created    int    `json:"created"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Equal(t, string(syncrun.StatusCompleted), report.Status)
	assert.Equal(t, 3, report.Read)
	assert.Equal(t, 1, report.Duplicates)
	assert.Equal(t, 2, report.Created)

	w, env = do(t, engine, http.MethodGet, "/api/v1/sync/runs?table=articles", tenantID)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, env.Meta)
	assert.Equal(t, 1, env.Meta.Total)

	// another tenant sees none of it
	_, env = do(t, engine, http.MethodGet, "/api/v1/sync/runs", uuid.New())
	assert.Equal(t, 0, env.Meta.Total)

	w, env = do(t, engine, http.MethodGet, "/api/v1/sync/jobs", tenantID)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestApp_Routes(t *testing.T) {
	app := newTestApp(t, testConfig(t))
	engine := app.Engine()

	w, env := do(t, engine, http.MethodGet, "/health", uuid.Nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)

	w, _ = do(t, engine, http.MethodGet, "/system/info", uuid.Nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, env = do(t, engine, http.MethodPost, "/api/v1/sync/articles", uuid.Nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)

	w, _ = do(t, engine, http.MethodPost, "/api/v1/sync/stock", uuid.New())
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestApp_SwaggerDocs(t *testing.T) {
	t.Run("disabled answers 404", func(t *testing.T) {
		engine := newTestApp(t, testConfig(t)).Engine()

		w, env := do(t, engine, http.MethodGet, "/swagger/doc.json", uuid.Nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.False(t, env.Success)
	})

	t.Run("enabled serves every route", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Swagger.Enabled = true
		engine := newTestApp(t, cfg).Engine()

		req := httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil)
		w := testutil.PerformRequest(engine, req)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var doc struct {
			Info struct {
				Title string `json:"title"`
			} `json:"info"`
			Paths map[string]map[string]json.RawMessage `json:"paths"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
		assert.Equal(t, "Catalog Sync API", doc.Info.Title)
		assert.Contains(t, doc.Paths["/api/v1/sync/{table}"], "post")
		assert.Contains(t, doc.Paths["/api/v1/sync/runs"], "get")
		assert.Contains(t, doc.Paths["/api/v1/sync/jobs"], "get")
		assert.Contains(t, doc.Paths["/health"], "get")
		assert.Contains(t, doc.Paths["/system/info"], "get")
	})

	t.Run("caller outside the whitelist answers 403", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Swagger.Enabled = true
		cfg.Swagger.AllowedIPs = []string{"10.0.0.0/8"}
		engine := newTestApp(t, cfg).Engine()

		w, _ := do(t, engine, http.MethodGet, "/swagger/index.html", uuid.Nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestApp_Scheduler(t *testing.T) {
	cfg := testConfig(t)
	tenantID := uuid.New()
	writeSource(t, cfg, tenantID, syncrun.TableClients, "codigo,nombre\nC1,Acme\n")
	cfg.Scheduler.Enabled = true
	cfg.Scheduler.Schedules = []config.ScheduleConfig{
		{TenantID: tenantID.String(), Tables: []string{"clients"}, Interval: time.Hour},
	}

	app := newTestApp(t, cfg)
	require.NotNil(t, app.Scheduler)
	ctx := testutil.ContextWithTimeout(t, 10*time.Second)
	require.NoError(t, app.Start(ctx))

	testutil.RequireEventually(t, func() bool {
		return app.Scheduler.History().Len() > 0
	}, 5*time.Second, 20*time.Millisecond, "scheduled job never finished")

	jobs := app.Scheduler.History().ListForTenant(tenantID, 0)
	require.Len(t, jobs, 1)
	assert.Equal(t, syncrun.TableClients, jobs[0].Table)

	runs, err := app.Service.ListRuns(ctx, tenantID, syncrun.RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, syncrun.TriggerScheduler, runs[0].Trigger)
	assert.Equal(t, 1, runs[0].Created)
}

func TestNew_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid schedule", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Scheduler.Enabled = true
		cfg.Scheduler.Schedules = []config.ScheduleConfig{
			{TenantID: "not-a-uuid", Tables: []string{"articles"}, Interval: time.Hour},
		}
		_, err := New(ctx, cfg, WithLogger(zaptest.NewLogger(t)))
		assert.Error(t, err)
	})

	t.Run("s3 source without bucket", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Sync.SourceKind = config.SourceS3
		_, err := New(ctx, cfg, WithLogger(zaptest.NewLogger(t)))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket is required")
	})

	t.Run("unsupported driver", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Database.Driver = "mysql"
		_, err := New(ctx, cfg, WithLogger(zaptest.NewLogger(t)))
		assert.Error(t, err)
	})
}
