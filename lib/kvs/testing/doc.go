// Package testing provides the conformance suite and benchmarks for
// kvs.Store implementations. Every index type runs the same suite, tests
// for features an index type lacks check for RetCUnsupportedOperation
// instead.
package testing
