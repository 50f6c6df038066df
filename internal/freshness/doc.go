// Package freshness decides whether local artifacts already satisfy the
// build's correctness requirements and can be skipped.
//
// A verdict is derived, never stored: an artifact is fresh when it exists and
// its measured duration matches the declared excerpt span within a fixed
// 50 ms tolerance. Separated stems additionally must match the raw excerpt's
// duration exactly, since both come off the same decode path.
package freshness
