// Package testutil provides deterministic test data and on-disk helpers for
// haystack tests.
package testutil
