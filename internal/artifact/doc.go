// Package artifact defines the structured descriptor behind every file the
// pipeline produces.
//
// Raw excerpts, channel-derived excerpts, and separated stems all share one
// naming scheme: <stem>[-<l|r>chan][_<instrument>].wav. Deriving and parsing
// those names lives here so reconciliation never has to guess at substrings.
package artifact
