package common

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/fKV/lib/gptr"
	"github.com/ValentinKolb/fKV/lib/kvs"
	"github.com/ValentinKolb/fKV/lib/metrics"
	"github.com/ValentinKolb/fKV/lib/pool"
)

// --------------------------------------------------------------------------
// Store configuration struct
// --------------------------------------------------------------------------

// StoreConfig holds everything needed to open a store from the command line
type StoreConfig struct {
	// index type name (radixtree, hashtable, radixtreetiny)
	IndexType string
	// location of an existing store, null to create one
	Location gptr.Gptr

	Heap      pool.Params
	MaxValLen int
	CacheSize int // 0 = no cache

	Metrics metrics.Config

	// Logging configuration
	LogLevel string
}

// ToStoreOptions converts the configuration to kvs.Options
func (c *StoreConfig) ToStoreOptions() *kvs.Options {
	opts := kvs.DefaultOptions()
	heap := c.Heap
	conf := c.Metrics
	opts.Heap = &heap
	opts.Metrics = &conf
	if c.MaxValLen > 0 {
		opts.MaxValLen = c.MaxValLen
	}
	return opts
}

// String returns a formatted string representation of the configuration
func (c *StoreConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Store")
	addField("Index Type", c.IndexType)
	if c.Location.IsNull() {
		addField("Location", "new")
	} else {
		addField("Location", c.Location.String())
	}
	addField("Max Value Length", fmt.Sprintf("%d bytes", c.MaxValLen))
	if c.CacheSize > 0 {
		addField("Cache Size", fmt.Sprintf("%d entries", c.CacheSize))
	} else {
		addField("Cache Size", "disabled")
	}

	addSection("Heap")
	addField("Base", c.Heap.Base)
	addField("User", c.Heap.User)
	addField("Heap ID", fmt.Sprintf("%d", c.Heap.HeapID))
	addField("Heap Size", fmt.Sprintf("%d MiB", c.Heap.HeapSize>>20))

	addSection("Metrics")
	addField("Enabled", fmt.Sprintf("%t", c.Metrics.Enabled))
	if c.Metrics.Enabled {
		addField("Output Path", c.Metrics.OutputPath)
		addField("Format", string(c.Metrics.Format))
	}

	// Logging configuration
	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}
