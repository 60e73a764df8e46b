package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/erp/catalogsync/internal/interfaces/http/dto"
	"github.com/erp/catalogsync/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct {
	err error
}

func (p fakePinger) Ping() error { return p.err }

func TestSystemHandler_Health(t *testing.T) {
	t.Run("database up", func(t *testing.T) {
		h := NewSystemHandler(fakePinger{}, "1.2.0")
		tc := testutil.NewTestContext(t, http.MethodGet, "/health")

		h.Health(tc.Context)

		assert.Equal(t, http.StatusOK, tc.Recorder.Code)
		var resp dto.Response
		require.NoError(t, json.Unmarshal(tc.Recorder.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		data := resp.Data.(map[string]any)
		assert.Equal(t, "ok", data["status"])
		assert.Equal(t, "up", data["database"])
	})

	t.Run("database down", func(t *testing.T) {
		h := NewSystemHandler(fakePinger{err: errors.New("connection refused")}, "1.2.0")
		tc := testutil.NewTestContext(t, http.MethodGet, "/health")

		h.Health(tc.Context)

		assert.Equal(t, http.StatusServiceUnavailable, tc.Recorder.Code)
		var resp dto.Response
		require.NoError(t, json.Unmarshal(tc.Recorder.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.Equal(t, dto.ErrCodeServiceUnavailable, resp.Error.Code)
		assert.Equal(t, "down", resp.Data.(map[string]any)["database"])
		assert.NotContains(t, tc.Recorder.Body.String(), "connection refused")
	})
}

func TestSystemHandler_GetSystemInfo(t *testing.T) {
	h := NewSystemHandler(fakePinger{}, "1.2.0")
	h.startTime = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return h.startTime.Add(90 * time.Minute) }
	tc := testutil.NewTestContext(t, http.MethodGet, "/system/info")

	h.GetSystemInfo(tc.Context)

	assert.Equal(t, http.StatusOK, tc.Recorder.Code)
	var resp APIResponse[SystemInfoResponse]
	require.NoError(t, json.Unmarshal(tc.Recorder.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "catalogsync", resp.Data.Name)
	assert.Equal(t, "1.2.0", resp.Data.Version)
	assert.Equal(t, "1h30m0s", resp.Data.Uptime)
	assert.NotEmpty(t, resp.Data.GoVersion)
}
