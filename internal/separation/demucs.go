package separation

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"stemset/internal/artifact"
	"stemset/internal/fileutil"
	"stemset/internal/services"
)

// Demucs runs the HTDemucs model. Unlike spleeter it nests its output: a
// subdirectory named after the model, holding one subdirectory per input
// stem, each with one file per produced instrument.
type Demucs struct {
	binary     string
	model      string
	outputDir  string
	multiplier int
}

// Demucs is assumed slower per unit input than spleeter.
const defaultDemucsMultiplier = 10

// NewDemucs constructs the demucs backend. A multiplier of zero falls back
// to the default timeout scaling.
func NewDemucs(binary, model, outputDir string, multiplier int) *Demucs {
	if multiplier <= 0 {
		multiplier = defaultDemucsMultiplier
	}
	return &Demucs{binary: binary, model: model, outputDir: outputDir, multiplier: multiplier}
}

func (d *Demucs) Name() string { return "demucs" }

func (d *Demucs) Model() string { return d.model }

func (d *Demucs) OutputDir() string { return d.outputDir }

func (d *Demucs) TimeoutMultiplier() int { return d.multiplier }

func (d *Demucs) Command(inputPath string) (string, []string) {
	return d.binary, []string{
		inputPath,
		"-n", d.model,
		"-o", d.outputDir,
	}
}

func (d *Demucs) SuccessMarker() string { return "" }

// ScratchDir returns the transient model directory demucs writes under the
// canonical output directory.
func (d *Demucs) ScratchDir() string {
	return filepath.Join(d.outputDir, d.model)
}

// Reconcile collects stems from every per-input subdirectory belonging to the
// item, keeps the per-role selection, moves the kept files up into the shared
// output directory renamed <subdirectory>_<filename>, and removes the item's
// subdirectories along with every unwanted stem inside them.
func (d *Demucs) Reconcile(ctx context.Context, stem string, overrides map[artifact.Instrument]artifact.Channel) error {
	scratch := d.ScratchDir()
	entries, err := os.ReadDir(scratch)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "separate", "demucs cleanup", "read scratch directory", err)
	}

	keep := keepSet(stem, overrides)
	var itemDirs []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		ref, ok := artifact.ParseExcerptBase(entry.Name())
		if !ok || ref.Stem != stem {
			continue
		}
		itemDirs = append(itemDirs, entry.Name())

		subdir := filepath.Join(scratch, entry.Name())
		files, err := os.ReadDir(subdir)
		if err != nil {
			return services.Wrap(services.ErrExternalTool, "separate", "demucs cleanup", "read input subdirectory", err)
		}
		for _, file := range files {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if file.IsDir() {
				continue
			}
			instrument, ok := instrumentFromBaseName(file.Name())
			if !ok {
				continue
			}
			candidate := artifact.Ref{Stem: stem, Channel: ref.Channel, Instrument: instrument}
			if _, wanted := keep[candidate]; !wanted {
				continue
			}
			src := filepath.Join(subdir, file.Name())
			dst := filepath.Join(d.outputDir, entry.Name()+"_"+file.Name())
			if err := fileutil.MoveFile(src, dst); err != nil {
				return services.Wrap(services.ErrExternalTool, "separate", "demucs cleanup", "move kept stem", err)
			}
		}
	}

	// Unwanted stems are discarded along with the per-input directories.
	for _, name := range itemDirs {
		if err := os.RemoveAll(filepath.Join(scratch, name)); err != nil {
			return services.Wrap(services.ErrExternalTool, "separate", "demucs cleanup", "remove input subdirectory", err)
		}
	}
	return nil
}

func instrumentFromBaseName(name string) (artifact.Instrument, bool) {
	base := strings.TrimSuffix(name, "."+artifact.FileExt)
	if base == name || base == "" {
		return "", false
	}
	return artifact.Instrument(base), true
}
