package common

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ValentinKolb/fKV/lib/gptr"
	"github.com/ValentinKolb/fKV/lib/metrics"
	"github.com/ValentinKolb/fKV/lib/pool"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	for in, want := range map[string]logger.LogLevel{
		"debug": logger.DEBUG,
		"INFO":  logger.INFO,
		"warn":  logger.WARNING,
		"error": logger.ERROR,
	} {
		got, err := ParseLogLevel(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLogLevel("verbose")
	assert.Error(t, err)
	assert.Error(t, InitLoggers("verbose"))
}

func TestLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerFactory(&buf)("kvs")

	l.Infof("hello %d", 1)
	l.Debugf("hidden")
	l.SetLevel(logger.DEBUG)
	l.Debugf("shown")
	l.SetLevel(logger.ERROR)
	l.Warningf("dropped")
	l.Errorf("failed")

	out := buf.String()
	assert.Contains(t, out, "INFO  | kvs      | hello 1")
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "DEBUG | kvs      | shown")
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "ERROR | kvs      | failed")
}

func TestLoggerFactorySharesOutput(t *testing.T) {
	var buf bytes.Buffer
	factory := NewLoggerFactory(&buf)
	pl, cl := factory("pool"), factory("cache")

	pl.Warningf("low memory")
	cl.Infof("purged")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "WARN  | pool     | low memory")
	assert.Contains(t, lines[1], "INFO  | cache    | purged")
}

func TestLoggerPanicf(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerFactory(&buf)("metrics")
	l.SetLevel(logger.ERROR)

	assert.PanicsWithValue(t, "broken 7", func() { l.Panicf("broken %d", 7) })
	assert.Contains(t, buf.String(), "PANIC | metrics  | broken 7")
}

func TestInitLoggersTwice(t *testing.T) {
	require.NoError(t, InitLoggers("info"))
	assert.NotPanics(t, func() { require.NoError(t, InitLoggers("debug")) })
}

func TestStoreConfig(t *testing.T) {
	conf := &StoreConfig{
		IndexType: "radixtree",
		Location:  gptr.Null,
		Heap:      *pool.DefaultParams(),
		MaxValLen: 128,
		Metrics:   metrics.Config{Enabled: true, OutputPath: "out.json", Format: metrics.FormatJSON},
		LogLevel:  "info",
	}

	opts := conf.ToStoreOptions()
	assert.Equal(t, 128, opts.MaxValLen)
	assert.Equal(t, pool.DefaultHeapID, opts.Heap.HeapID)
	assert.True(t, opts.Metrics.Enabled)

	// options are copies
	opts.Heap.HeapID = 9
	assert.Equal(t, pool.DefaultHeapID, conf.Heap.HeapID)

	s := conf.String()
	assert.Contains(t, s, "STORE")
	assert.Contains(t, s, "radixtree")
	assert.Contains(t, s, "1024 MiB")
	assert.Contains(t, s, "out.json")
}
