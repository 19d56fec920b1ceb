package metrics

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	vm "github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
	gometrics "github.com/rcrowley/go-metrics"
)

var plog = logger.GetLogger("metrics")

// --------------------------------------------------------------------------
// Metric names
// --------------------------------------------------------------------------

// Counter identifies a counter of the store
type Counter int

const (
	CounterPut Counter = iota
	CounterGet
	CounterDel
	CounterFindOrCreate
	CounterCachedHit  // cached read whose handle was still current
	CounterCachedMiss // cached read that had to fetch the payload
	CounterScan
	CounterGetNext
	CounterMaintenance
	numCounters
)

func (c Counter) String() string {
	switch c {
	case CounterPut:
		return "put"
	case CounterGet:
		return "get"
	case CounterDel:
		return "del"
	case CounterFindOrCreate:
		return "find_or_create"
	case CounterCachedHit:
		return "cached_hit"
	case CounterCachedMiss:
		return "cached_miss"
	case CounterScan:
		return "scan"
	case CounterGetNext:
		return "get_next"
	case CounterMaintenance:
		return "maintenance"
	default:
		return "unknown"
	}
}

// Histogram identifies a histogram of the store
type Histogram int

const (
	HistogramValueSize Histogram = iota // bytes per written value
	HistogramReclaimed                  // objects freed per maintenance run
	numHistograms
)

func (h Histogram) String() string {
	switch h {
	case HistogramValueSize:
		return "value_size_bytes"
	case HistogramReclaimed:
		return "reclaimed_objects"
	default:
		return "unknown"
	}
}

// --------------------------------------------------------------------------
// Backends
// --------------------------------------------------------------------------

type backend interface {
	inc(c Counter)
	update(h Histogram, v int64)
	write(w io.Writer) error
}

// jsonBackend keeps the metrics in a go-metrics registry and writes it as json
type jsonBackend struct {
	registry   gometrics.Registry
	counters   [numCounters]gometrics.Counter
	histograms [numHistograms]gometrics.Histogram
}

func newJSONBackend() *jsonBackend {
	b := &jsonBackend{registry: gometrics.NewRegistry()}
	for c := Counter(0); c < numCounters; c++ {
		b.counters[c] = gometrics.NewRegisteredCounter(c.String(), b.registry)
	}
	for h := Histogram(0); h < numHistograms; h++ {
		b.histograms[h] = gometrics.NewRegisteredHistogram(h.String(), b.registry, gometrics.NewExpDecaySample(1028, 0.015))
	}
	return b
}

func (b *jsonBackend) inc(c Counter)               { b.counters[c].Inc(1) }
func (b *jsonBackend) update(h Histogram, v int64) { b.histograms[h].Update(v) }

func (b *jsonBackend) write(w io.Writer) error {
	data, err := json.MarshalIndent(b.registry.GetAll(), "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// promBackend keeps the metrics in a VictoriaMetrics set and writes the
// prometheus text exposition format
type promBackend struct {
	set        *vm.Set
	counters   [numCounters]*vm.Counter
	histograms [numHistograms]*vm.Histogram
}

func newPromBackend() *promBackend {
	b := &promBackend{set: vm.NewSet()}
	for c := Counter(0); c < numCounters; c++ {
		b.counters[c] = b.set.NewCounter("kvs_" + c.String() + "_total")
	}
	for h := Histogram(0); h < numHistograms; h++ {
		b.histograms[h] = b.set.NewHistogram("kvs_" + h.String())
	}
	return b
}

func (b *promBackend) inc(c Counter)               { b.counters[c].Inc() }
func (b *promBackend) update(h Histogram, v int64) { b.histograms[h].Update(float64(v)) }

func (b *promBackend) write(w io.Writer) error {
	b.set.WritePrometheus(w)
	return nil
}

// --------------------------------------------------------------------------
// Metrics
// --------------------------------------------------------------------------

// Metrics collects the counters and histograms of a store.
// A nil *Metrics is valid and records nothing, which is what New returns
// when metrics are disabled.
type Metrics struct {
	conf    Config
	backend backend
}

// New creates the metrics for the given configuration (nil = DefaultConfig).
// Returns nil if metrics are disabled.
func New(conf *Config) *Metrics {
	if conf == nil {
		conf = DefaultConfig()
	}
	if !conf.Enabled {
		return nil
	}

	m := &Metrics{conf: *conf}
	switch conf.Format {
	case FormatPrometheus:
		m.backend = newPromBackend()
	default:
		m.backend = newJSONBackend()
	}
	return m
}

// Inc increments a counter
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *Metrics) Inc(c Counter) {
	if m == nil {
		return
	}
	m.backend.inc(c)
}

// Update adds a sample to a histogram
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *Metrics) Update(h Histogram, v int64) {
	if m == nil {
		return
	}
	m.backend.update(h, v)
}

// WriteTo serializes the collected metrics in the configured format
func (m *Metrics) WriteTo(w io.Writer) error {
	if m == nil {
		return nil
	}
	return m.backend.write(w)
}

// Report writes the collected metrics to the configured output path,
// replacing the file if it exists.
func (m *Metrics) Report() error {
	if m == nil {
		return nil
	}

	f, err := os.Create(m.conf.OutputPath)
	if err != nil {
		return fmt.Errorf("create metrics report: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if err := m.backend.write(bw); err != nil {
		return fmt.Errorf("write metrics report: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write metrics report: %w", err)
	}

	plog.Debugf("metrics written to %s (%s)", m.conf.OutputPath, m.conf.Format)
	return nil
}
