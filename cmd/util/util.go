package util

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ValentinKolb/fKV/lib/common"
	"github.com/ValentinKolb/fKV/lib/gptr"
	"github.com/ValentinKolb/fKV/lib/kvs"
	"github.com/ValentinKolb/fKV/lib/kvs/cache"
	"github.com/ValentinKolb/fKV/lib/metrics"
	"github.com/ValentinKolb/fKV/lib/pool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupStoreFlags adds the flags that select and configure a store to a command
func SetupStoreFlags(cmd *cobra.Command) {
	key := "index"
	cmd.PersistentFlags().String(key, "radixtree", WrapString("Index type of the store (radixtree, radixtreetiny, hashtable)"))

	key = "location"
	cmd.PersistentFlags().String(key, "", WrapString("Location of an existing store as printed by 'info' (hex). Empty creates a new store"))

	key = "heap-base"
	cmd.PersistentFlags().String(key, "", WrapString("Root of the fabric namespace the heap lives in"))

	key = "heap-user"
	cmd.PersistentFlags().String(key, "", WrapString("Owner of the heap"))

	key = "heap-id"
	cmd.PersistentFlags().Int(key, int(pool.DefaultHeapID), WrapString("Pool id of the heap"))

	key = "heap-size"
	cmd.PersistentFlags().Int(key, int(pool.DefaultHeapSize>>20), WrapString("Capacity of the heap (in MiB)"))

	key = "max-val-len"
	cmd.PersistentFlags().Int(key, kvs.DefaultMaxValLen, WrapString("Maximum value length of a new store (in bytes)"))

	key = "cache-size"
	cmd.PersistentFlags().Int(key, 0, WrapString("Number of entries of the local value cache, 0 disables the cache"))

	key = "log-level"
	cmd.PersistentFlags().String(key, "info", WrapString("Log level (debug, info, warn, error)"))
}

// InitConfig initializes configuration from environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("fkv")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// FormatLocation formats a store location for the --location flag
func FormatLocation(g gptr.Gptr) string {
	return fmt.Sprintf("%#016x", uint64(g))
}

// ParseLocation parses a store location printed by FormatLocation
// (e.g. "0x0200000000000040"). The empty string is the null location.
func ParseLocation(s string) (gptr.Gptr, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return gptr.Null, nil
	}
	v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(s), "0x"), 16, 64)
	if err != nil {
		return gptr.Null, fmt.Errorf("invalid location %q: %w", s, err)
	}
	return gptr.Gptr(v), nil
}

// GetStoreConfig reads the store configuration from viper and the metrics
// configuration from the environment
func GetStoreConfig() (*common.StoreConfig, error) {
	location, err := ParseLocation(viper.GetString("location"))
	if err != nil {
		return nil, err
	}

	heapSize := viper.GetInt("heap-size")
	if heapSize <= 0 {
		return nil, fmt.Errorf("heap size must be greater than zero")
	}
	heapID := viper.GetInt("heap-id")
	if heapID < 0 || heapID > 0xff {
		return nil, fmt.Errorf("heap id must be between 0 and 255")
	}

	return &common.StoreConfig{
		IndexType: viper.GetString("index"),
		Location:  location,
		Heap: pool.Params{
			Base:     viper.GetString("heap-base"),
			User:     viper.GetString("heap-user"),
			HeapID:   gptr.PoolID(heapID),
			HeapSize: uint64(heapSize) << 20,
		},
		MaxValLen: viper.GetInt("max-val-len"),
		CacheSize: viper.GetInt("cache-size"),
		Metrics:   *metrics.LoadConfig(),
		LogLevel:  viper.GetString("log-level"),
	}, nil
}

// OpenStore opens the store described by conf, and the cache in front of it
// if one is configured (nil otherwise)
func OpenStore(conf *common.StoreConfig) (kvs.Store, *cache.Cache, error) {
	s, err := kvs.MakeStoreByName(conf.IndexType, conf.Location, conf.ToStoreOptions())
	if err != nil {
		return nil, nil, err
	}
	if conf.CacheSize <= 0 {
		return s, nil, nil
	}
	c, err := cache.New(s, conf.CacheSize)
	if err != nil {
		return nil, nil, err
	}
	return s, c, nil
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	return viper.BindPFlags(cmd.InheritedFlags())
}
