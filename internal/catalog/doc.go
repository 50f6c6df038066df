// Package catalog loads corpus item descriptors from JSON catalog files.
//
// Each item carries a stable file-name stem, start/end timestamps, optional
// per-instrument channel overrides, candidate source links, and free-form
// metadata used only for logging. The loader validates overrides against the
// fixed instrument-role set; timestamps are parsed lazily and soft-fail so a
// malformed span forces a rebuild attempt instead of aborting the whole load.
package catalog
