// Package driver runs a full corpus build: it loads the catalog, holds the
// single-builder lock, and feeds every item through the pipeline while
// recording per-item outcomes in the build store. A failing item is logged
// and recorded; the run continues with the next item.
package driver
