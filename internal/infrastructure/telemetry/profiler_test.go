package telemetry

import (
	"context"
	"runtime/pprof"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProfiler(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		p, err := NewProfiler(ProfilerConfig{}, nil)
		require.NoError(t, err)
		assert.False(t, p.IsEnabled())
		assert.NoError(t, p.Stop())
		assert.NoError(t, p.Stop())
	})

	t.Run("enabled requires address and name", func(t *testing.T) {
		_, err := NewProfiler(ProfilerConfig{Enabled: true, ApplicationName: "catalog-sync"}, nil)
		assert.Error(t, err)

		_, err = NewProfiler(ProfilerConfig{Enabled: true, ServerAddress: "http://localhost:4040"}, nil)
		assert.Error(t, err)
	})
}

func TestProfileTypes(t *testing.T) {
	assert.Len(t, profileTypes(ProfilerConfig{}), 1)
	assert.Len(t, profileTypes(ProfilerConfig{Allocations: true, Goroutines: true}), 6)
}

func TestSanitizeLabels(t *testing.T) {
	pairs := sanitizeLabels(map[string]string{
		"Tenant ID": "t-1",
		"table":     "articles",
		"run_id":    "drop-me",
		"empty":     "",
		"!!":        "no key",
	})
	assert.Equal(t, []string{"tenant_id", "t-1", "table", "articles"}, pairs)

	long := make([]byte, MaxLabelValueLength+10)
	for i := range long {
		long[i] = 'x'
	}
	pairs = sanitizeLabels(map[string]string{"operation": string(long)})
	assert.Len(t, pairs[1], MaxLabelValueLength)
}

func TestWithProfilingLabels(t *testing.T) {
	labels := SyncRunLabels("t-1", "articles", "http")

	var got map[string]string
	WithProfilingLabels(context.Background(), labels, func(ctx context.Context) {
		got = map[string]string{}
		pprof.ForLabels(ctx, func(k, v string) bool {
			got[k] = v
			return true
		})
	})
	assert.Equal(t, map[string]string{
		"operation": "catalog_sync",
		"tenant_id": "t-1",
		"table":     "articles",
		"trigger":   "http",
	}, got)

	called := false
	WithProfilingLabels(context.Background(), nil, func(context.Context) { called = true })
	assert.True(t, called)
}
