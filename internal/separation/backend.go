package separation

import (
	"context"
	"path/filepath"

	"stemset/internal/artifact"
)

// Backend is one of the two source-separation tools the pipeline can invoke.
// The set is closed: the two implementations differ irreducibly in command
// shape and output layout, so each carries its own reconciliation.
type Backend interface {
	// Name identifies the backend in logs and build records.
	Name() string
	// Model returns the model identifier passed to the tool.
	Model() string
	// OutputDir returns the canonical directory holding this backend's stems.
	OutputDir() string
	// TimeoutMultiplier scales the excerpt duration into a per-job timeout.
	TimeoutMultiplier() int
	// Command builds the argument list for separating one input file.
	Command(inputPath string) (binary string, args []string)
	// SuccessMarker returns the substring the tool prints on success, empty
	// for tools whose exit status is the only signal.
	SuccessMarker() string
	// Reconcile normalizes the backend's output layout down to the canonical
	// per-instrument file set for the item, discarding everything else.
	Reconcile(ctx context.Context, stem string, overrides map[artifact.Instrument]artifact.Channel) error
}

// ExpectedStems returns the canonical stem paths an item should own inside
// dir: one per instrument role, channel-suffixed when that role has an
// override.
func ExpectedStems(dir, stem string, overrides map[artifact.Instrument]artifact.Channel) []string {
	paths := make([]string, 0, len(artifact.Instruments()))
	for _, instrument := range artifact.Instruments() {
		ref := artifact.Ref{Stem: stem, Channel: overrides[instrument], Instrument: instrument}
		paths = append(paths, filepath.Join(dir, ref.StemName()))
	}
	return paths
}

// keepSet computes which stem descriptors reconciliation retains: a role with
// a configured override keeps its channel variant, a role without keeps the
// plain stereo stem.
func keepSet(stem string, overrides map[artifact.Instrument]artifact.Channel) map[artifact.Ref]struct{} {
	keep := make(map[artifact.Ref]struct{}, len(artifact.Instruments()))
	for _, instrument := range artifact.Instruments() {
		keep[artifact.Ref{Stem: stem, Channel: overrides[instrument], Instrument: instrument}] = struct{}{}
	}
	return keep
}
