package kv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/fKV/cmd/util"
	"github.com/ValentinKolb/fKV/lib/gptr"
	"github.com/ValentinKolb/fKV/lib/index"
	"github.com/ValentinKolb/fKV/lib/kvs"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "In-process performance test of a store",
		RunE:    run,
		PreRunE: processPerfConfig,
	}
	perfKeyPrefix        = "__test"
	perfLargeValueSizeKB = 4
	perfNumThreads       = 10
	perfKeySpread        = 100
	perfSkip             = make([]string, 0)
)

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. put,get)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of goroutines per CPU to use for the benchmark"))
	key = "large-value-size"
	perfTestCmd.Flags().Int(key, 4, util.WrapString("How large the value for the put-large test should be (in KB, must fit max-val-len)"))
	key = "keys"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different keys to use for the tests"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfLargeValueSizeKB = viper.GetInt("large-value-size")
	perfKeySpread = viper.GetInt("keys")
	perfNumThreads = viper.GetInt("threads")
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	if perfKeySpread <= 0 {
		return fmt.Errorf("keys must be greater than zero")
	}
	if perfLargeValueSizeKB*1024 > store.MaxValLen() {
		return fmt.Errorf("large-value-size of %d KB exceeds the maximum value length of %d bytes", perfLargeValueSizeKB, store.MaxValLen())
	}
	return nil
}

// benchmark is a single named performance test
type benchmark struct {
	name    string
	ordered bool // requires a store that supports Scan
	fn      func(b *testing.B)
}

func run(_ *cobra.Command, _ []string) error {
	fmt.Println("Performance testing tool for fKV stores")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(storeConf.String())
	fmt.Printf("Threads: %d\n", perfNumThreads)
	fmt.Println()

	fmt.Println("starting tests...")

	ordered := store.Info().Index.Impl != index.ImplHashTable
	results := make(map[string]testing.BenchmarkResult)
	for _, bm := range benchmarks() {
		if shouldSkip(bm.name) || (bm.ordered && !ordered) {
			results[bm.name] = testing.BenchmarkResult{}
			printResult(bm.name, testing.BenchmarkResult{})
			continue
		}
		result := testing.Benchmark(bm.fn)
		results[bm.name] = result
		printResult(bm.name, result)
	}

	store.Maintenance()

	// Write results to csv is specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results); err != nil {
			return err
		}
	}
	return nil
}

func benchmarks() []benchmark {
	return []benchmark{
		{name: "put", fn: func(b *testing.B) {
			getKey, iter := getKeys("put")
			b.Cleanup(func() { iter(deleteKey("put")) })
			parallel(b, func(i int) {
				if err := store.Put(getKey(i), []byte("test")); err != nil {
					plog.Errorf("(put) - error putting key: %v", err)
				}
			})
		}},
		{name: "put-large", fn: func(b *testing.B) {
			largeValue := make([]byte, perfLargeValueSizeKB*1024)
			getKey, iter := getKeys("put-large")
			b.Cleanup(func() { iter(deleteKey("put-large")) })
			parallel(b, func(i int) {
				if err := store.Put(getKey(i), largeValue); err != nil {
					plog.Errorf("(put-large) - error putting key: %v", err)
				}
			})
		}},
		{name: "get", fn: func(b *testing.B) {
			getKey, iter := getKeys("get")
			iter(putKey("get"))
			b.Cleanup(func() { iter(deleteKey("get")) })
			parallel(b, func(i int) {
				if _, err := store.Get(getKey(i)); err != nil {
					plog.Errorf("(get) - error getting key: %v", err)
				}
			})
		}},
		{name: "get-by-handle", fn: func(b *testing.B) {
			getKey, iter := getKeys("get-by-handle")
			keyPtrs := make([]gptr.Gptr, perfKeySpread)
			valPtrs := make([]gptr.TagGptr, perfKeySpread)
			for i := 0; i < perfKeySpread; i++ {
				keyPtr, valPtr, err := store.PutByKey(getKey(i), []byte("test"))
				if err != nil {
					plog.Errorf("(get-by-handle) - error putting key: %v", err)
				}
				keyPtrs[i], valPtrs[i] = keyPtr, valPtr
			}
			b.Cleanup(func() { iter(deleteKey("get-by-handle")) })
			parallel(b, func(i int) {
				i %= perfKeySpread
				if _, _, err := store.GetByHandle(keyPtrs[i], valPtrs[i], false); err != nil {
					plog.Errorf("(get-by-handle) - error getting key: %v", err)
				}
			})
		}},
		{name: "get-cached", fn: func(b *testing.B) {
			if storeCache == nil {
				return
			}
			getKey, iter := getKeys("get-cached")
			iter(func(k []byte) {
				if err := storeCache.Put(k, []byte("test")); err != nil {
					plog.Errorf("(get-cached) - error putting key: %v", err)
				}
			})
			b.Cleanup(func() { iter(deleteKey("get-cached")) })
			parallel(b, func(i int) {
				if _, err := storeCache.Get(getKey(i)); err != nil {
					plog.Errorf("(get-cached) - error getting key: %v", err)
				}
			})
		}},
		{name: "find-or-create", fn: func(b *testing.B) {
			getKey, iter := getKeys("find-or-create")
			b.Cleanup(func() { iter(deleteKey("find-or-create")) })
			parallel(b, func(i int) {
				if _, _, err := store.FindOrCreate(getKey(i), []byte("test")); err != nil {
					plog.Errorf("(find-or-create) - error: %v", err)
				}
			})
		}},
		{name: "delete", fn: func(b *testing.B) {
			getKey, iter := getKeys("delete")
			iter(putKey("delete"))
			parallel(b, func(i int) {
				if err := store.Del(getKey(i)); err != nil {
					plog.Errorf("(delete) - error deleting key: %v", err)
				}
			})
		}},
		{name: "scan", ordered: true, fn: func(b *testing.B) {
			_, iter := getKeys("scan")
			iter(putKey("scan"))
			b.Cleanup(func() { iter(deleteKey("scan")) })
			prefix := perfKeyPrefix + "-scan-"
			parallel(b, func(int) {
				handle, _, _, err := store.Scan([]byte(prefix), true, []byte(prefix+"~"), true)
				if err != nil {
					plog.Errorf("(scan) - error opening scan: %v", err)
					return
				}
				for {
					if _, _, err := store.GetNext(handle); err != nil {
						if !errors.Is(err, kvs.ErrNoNextKey) {
							plog.Errorf("(scan) - error: %v", err)
						}
						return
					}
				}
			})
		}},
	}
}

// parallel runs op with a per-goroutine counter on all benchmark goroutines
func parallel(b *testing.B, op func(i int)) {
	b.SetParallelism(perfNumThreads)
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			op(counter)
			counter++
		}
	})
}

func putKey(test string) func([]byte) {
	return func(k []byte) {
		if err := store.Put(k, []byte("test")); err != nil {
			plog.Errorf("(%s) - error putting key: %v", test, err)
		}
	}
}

func deleteKey(test string) func([]byte) {
	return func(k []byte) {
		if err := store.Del(k); err != nil && !errors.Is(err, kvs.ErrKeyDoesNotExist) {
			plog.Errorf("(%s) - error deleting key: %v", test, err)
		}
	}
}

func shouldSkip(test string) bool {
	// Check if the test is in the skip list
	for _, skip := range perfSkip {
		if test == skip {
			return true
		}
	}
	return false
}

func getKeys(prefix string) (func(int) []byte, func(func([]byte))) {
	keys := make([][]byte, perfKeySpread)
	for i := 0; i < perfKeySpread; i++ {
		keys[i] = []byte(fmt.Sprintf("%s-%s-%d", perfKeyPrefix, prefix, i))
	}

	// Function to get a key by index (with wraparound)
	getKey := func(i int) []byte {
		return keys[i%perfKeySpread]
	}

	// Function to iterate over all keys and apply a function to each
	iterateKeys := func(fn func([]byte)) {
		for _, key := range keys {
			fn(key)
		}
	}

	return getKey, iterateKeys
}

func printResult(test string, result testing.BenchmarkResult) {
	if result.NsPerOp() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	// Print the formatted result
	fmt.Printf("%-20s%.0fns/op (%s/op)\t%.0f ops/sec\n", test, nsPerOp, time.Duration(nsPerOp), opsPerSec)
}

func writeResultsToCSV(csvPath string, results map[string]testing.BenchmarkResult) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "OpsPerSec", "Skipped",
		"IndexType", "HeapSizeMiB", "MaxValLen", "CacheSize",
		"Threads", "LargeValueSizeKB", "Keys Count",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	tests := make([]string, 0, len(results))
	for test := range results {
		tests = append(tests, test)
	}
	sort.Strings(tests)

	// Write test results
	for _, test := range tests {
		result := results[test]
		var nsPerOp float64
		var opsPerSec float64
		var skipped string

		if result.NsPerOp() == 0 {
			skipped = "true"
		} else {
			skipped = "false"
			nsPerOp = math.Max(float64(result.NsPerOp()), 1)
			opsPerSec = 1.0 / (nsPerOp / 1e9)
		}

		row := []string{
			test,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", opsPerSec),
			skipped,
			storeConf.IndexType,
			strconv.FormatUint(storeConf.Heap.HeapSize>>20, 10),
			strconv.Itoa(store.MaxValLen()),
			strconv.Itoa(storeConf.CacheSize),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfLargeValueSizeKB),
			strconv.Itoa(perfKeySpread),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	}

	return nil
}
