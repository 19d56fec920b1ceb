package metrics

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	// EnvEnabled toggles metrics collection
	EnvEnabled = "KVS_METRICS_ENABLED"
	// EnvOutputPath is the file Report writes to
	EnvOutputPath = "KVS_METRICS_OUTPUT_PATH"
	// EnvFormat selects the report format (json, prometheus)
	EnvFormat = "KVS_METRICS_FORMAT"

	DefaultOutputPath = "kvs_metrics.json"
)

// Format is the serialization used by Report
type Format string

const (
	FormatJSON       Format = "json"
	FormatPrometheus Format = "prometheus"
)

// Config holds the metrics configuration. It is read once at startup and
// passed to the store explicitly, it is never changed afterwards.
type Config struct {
	Enabled    bool
	OutputPath string
	Format     Format
}

// DefaultConfig returns the configuration used when no environment variable is set
func DefaultConfig() *Config {
	return &Config{
		Enabled:    false,
		OutputPath: DefaultOutputPath,
		Format:     FormatJSON,
	}
}

// LoadConfig reads the metrics configuration from the environment.
// Unknown formats fall back to json.
func LoadConfig() *Config {
	v := viper.New()
	_ = v.BindEnv("enabled", EnvEnabled)
	_ = v.BindEnv("output_path", EnvOutputPath)
	_ = v.BindEnv("format", EnvFormat)
	v.SetDefault("output_path", DefaultOutputPath)
	v.SetDefault("format", string(FormatJSON))

	conf := &Config{
		Enabled:    ParseBool(v.GetString("enabled")),
		OutputPath: v.GetString("output_path"),
		Format:     Format(strings.ToLower(v.GetString("format"))),
	}
	if conf.Format != FormatPrometheus {
		conf.Format = FormatJSON
	}
	return conf
}

// ParseBool reports whether s is one of "true", "set" or "enabled"
// (case-insensitive). Everything else, including the empty string, is false.
func ParseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "set", "enabled":
		return true
	default:
		return false
	}
}

func (c *Config) String() string {
	return fmt.Sprintf("Config{Enabled: %t, OutputPath: %q, Format: %s}", c.Enabled, c.OutputPath, c.Format)
}
