package metrics

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBool(t *testing.T) {
	for _, s := range []string{"true", "TRUE", "Set", "enabled", " enabled "} {
		assert.True(t, ParseBool(s), s)
	}
	for _, s := range []string{"", "1", "yes", "on", "false", "disabled"} {
		assert.False(t, ParseBool(s), s)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv(EnvEnabled, "")
	t.Setenv(EnvOutputPath, "")
	t.Setenv(EnvFormat, "")
	os.Unsetenv(EnvEnabled)
	os.Unsetenv(EnvOutputPath)
	os.Unsetenv(EnvFormat)

	conf := LoadConfig()
	assert.Equal(t, DefaultConfig(), conf)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv(EnvEnabled, "Enabled")
	t.Setenv(EnvOutputPath, "/tmp/out.prom")
	t.Setenv(EnvFormat, "PROMETHEUS")

	conf := LoadConfig()
	assert.True(t, conf.Enabled)
	assert.Equal(t, "/tmp/out.prom", conf.OutputPath)
	assert.Equal(t, FormatPrometheus, conf.Format)

	t.Setenv(EnvFormat, "xml")
	assert.Equal(t, FormatJSON, LoadConfig().Format)
}

func TestDisabledMetricsAreNil(t *testing.T) {
	m := New(&Config{Enabled: false})
	assert.Nil(t, m)

	// all methods are nil-safe
	m.Inc(CounterPut)
	m.Update(HistogramValueSize, 10)
	assert.NoError(t, m.Report())
	assert.NoError(t, m.WriteTo(&bytes.Buffer{}))
}

func TestJSONReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.json")
	m := New(&Config{Enabled: true, OutputPath: path, Format: FormatJSON})
	require.NotNil(t, m)

	m.Inc(CounterPut)
	m.Inc(CounterPut)
	m.Inc(CounterCachedHit)
	m.Update(HistogramValueSize, 128)
	require.NoError(t, m.Report())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var report map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Equal(t, float64(2), report["put"]["count"])
	assert.Equal(t, float64(1), report["cached_hit"]["count"])
	assert.Equal(t, float64(1), report["value_size_bytes"]["count"])
}

func TestPrometheusReport(t *testing.T) {
	m := New(&Config{Enabled: true, Format: FormatPrometheus})
	require.NotNil(t, m)

	m.Inc(CounterDel)
	m.Update(HistogramReclaimed, 3)

	var buf bytes.Buffer
	require.NoError(t, m.WriteTo(&buf))
	assert.Contains(t, buf.String(), "kvs_del_total 1")
	assert.Contains(t, buf.String(), "kvs_reclaimed_objects")
}
