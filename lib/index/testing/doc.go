// Package testing provides the conformance suite for index engines that
// satisfy the index.Index interface.
//
// Example usage:
//
//	indextesting.RunIndexTests(t, "MyIndex", func() index.Index {
//		return NewMyIndex()
//	})
//
// Ordered engines additionally get their Seek and Cursor behaviour checked,
// engines without index.FeatureOrdered skip those tests.
package testing
