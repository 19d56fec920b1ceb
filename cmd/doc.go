// Package cmd implements the command-line interface of fKV. It provides
// operations to run command scripts against a store and to measure its
// performance.
//
// The package is organized into several subpackages:
//
//   - kv: Commands for key-value store operations (exec, info, perf)
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// All flags can also be set as environment variables with the FKV_ prefix
// (e.g. FKV_INDEX=hashtable) or in a .env / .env.local file. Metrics are
// configured with KVS_METRICS_ENABLED, KVS_METRICS_OUTPUT_PATH and
// KVS_METRICS_FORMAT.
//
// See fkv -help for a list of all commands.
package cmd
