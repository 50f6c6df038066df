// Package separation orchestrates the two source-separation backends.
//
// Each backend shares an invocation contract (build a command per input, run
// under a duration-derived timeout, reconcile outputs) but the two lay out
// their results differently: spleeter writes every stem into one flat
// directory, demucs nests a subdirectory per input under a model scratch
// directory. Reconciliation normalizes both shapes down to one canonical
// per-instrument file set, keyed by structured artifact descriptors rather
// than filename guessing.
//
// Jobs within one backend's batch run concurrently under a supervised group:
// the first fatal failure cancels the rest. Backends themselves always run
// sequentially.
package separation
