package separation

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"stemset/internal/artifact"
	"stemset/internal/fileutil"
)

func TestDemucsCommandShape(t *testing.T) {
	t.Parallel()

	backend := NewDemucs("demucs", "htdemucs_6s", "/out", 0)
	binary, args := backend.Command("/raw/track_1.wav")
	if binary != "demucs" {
		t.Fatalf("unexpected binary %q", binary)
	}
	want := []string{"/raw/track_1.wav", "-n", "htdemucs_6s", "-o", "/out"}
	if len(args) != len(want) {
		t.Fatalf("unexpected args %v", args)
	}
	for i, arg := range want {
		if args[i] != arg {
			t.Fatalf("arg %d: got %q, want %q", i, args[i], arg)
		}
	}
}

func TestDemucsScratchDir(t *testing.T) {
	t.Parallel()

	backend := NewDemucs("demucs", "htdemucs_6s", filepath.Join("/data", "demucs"), 0)
	if got, want := backend.ScratchDir(), filepath.Join("/data", "demucs", "htdemucs_6s"); got != want {
		t.Fatalf("ScratchDir() = %q, want %q", got, want)
	}
}

func TestDemucsReconcileMovesKeptStemsAndRemovesSubdirs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	backend := NewDemucs("demucs", "htdemucs_6s", dir, 0)
	scratch := backend.ScratchDir()

	// The channel-split item produced two per-input subdirectories, each
	// with the model's full instrument set.
	for _, sub := range []string{"track_1-lchan", "track_1-rchan"} {
		for _, instrument := range []string{"piano", "bass", "drums", "vocals", "guitar", "other"} {
			touch(t, filepath.Join(scratch, sub, instrument+".wav"))
		}
	}
	// Another item's subdirectory stays untouched.
	touch(t, filepath.Join(scratch, "track_2", "bass.wav"))

	overrides := map[artifact.Instrument]artifact.Channel{artifact.Bass: artifact.ChannelLeft}
	if err := backend.Reconcile(context.Background(), "track_1", overrides); err != nil {
		t.Fatalf("Reconcile returned error: %v", err)
	}

	if !fileutil.Exists(filepath.Join(dir, "track_1-lchan_bass.wav")) {
		t.Fatal("expected the left-channel bass stem in the output directory")
	}
	if fileutil.Exists(filepath.Join(dir, "track_1-rchan_bass.wav")) {
		t.Fatal("right-channel bass should have been discarded")
	}
	if fileutil.Exists(filepath.Join(dir, "track_1-lchan_vocals.wav")) {
		t.Fatal("unconfigured roles should have been discarded")
	}
	for _, sub := range []string{"track_1-lchan", "track_1-rchan"} {
		if _, err := os.Stat(filepath.Join(scratch, sub)); !os.IsNotExist(err) {
			t.Fatalf("expected subdirectory %s to be removed", sub)
		}
	}
	if !fileutil.Exists(filepath.Join(scratch, "track_2", "bass.wav")) {
		t.Fatal("sibling item's subdirectory must survive")
	}
}

func TestDemucsReconcileStereoItem(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	backend := NewDemucs("demucs", "htdemucs_6s", dir, 0)
	for _, instrument := range []string{"piano", "bass", "drums", "vocals"} {
		touch(t, filepath.Join(backend.ScratchDir(), "track_1", instrument+".wav"))
	}

	if err := backend.Reconcile(context.Background(), "track_1", nil); err != nil {
		t.Fatalf("Reconcile returned error: %v", err)
	}
	for _, want := range []string{"track_1_piano.wav", "track_1_bass.wav", "track_1_drums.wav"} {
		if !fileutil.Exists(filepath.Join(dir, want)) {
			t.Fatalf("missing kept stem %s", want)
		}
	}
	if fileutil.Exists(filepath.Join(dir, "track_1_vocals.wav")) {
		t.Fatal("vocals should have been discarded")
	}
}
