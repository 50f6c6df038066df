package separation

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"stemset/internal/artifact"
	"stemset/internal/services"
)

// Spleeter runs Deezer's Spleeter model. It writes every job's stems into one
// flat output directory using the <input-stem>_<instrument>.<ext> convention.
type Spleeter struct {
	binary     string
	model      string
	outputDir  string
	multiplier int
}

const defaultSpleeterMultiplier = 5

// NewSpleeter constructs the spleeter backend. A multiplier of zero falls
// back to the default timeout scaling.
func NewSpleeter(binary, model, outputDir string, multiplier int) *Spleeter {
	if multiplier <= 0 {
		multiplier = defaultSpleeterMultiplier
	}
	return &Spleeter{binary: binary, model: model, outputDir: outputDir, multiplier: multiplier}
}

func (s *Spleeter) Name() string { return "spleeter" }

func (s *Spleeter) Model() string { return s.model }

func (s *Spleeter) OutputDir() string { return s.outputDir }

func (s *Spleeter) TimeoutMultiplier() int { return s.multiplier }

func (s *Spleeter) Command(inputPath string) (string, []string) {
	return s.binary, []string{
		"separate",
		"-p", s.model,
		"-o", s.outputDir,
		inputPath,
		"-c", artifact.FileExt,
		"-f", "{filename}_{instrument}.{codec}",
	}
}

// SuccessMarker matches the tool's own (misspelled) completion message.
func (s *Spleeter) SuccessMarker() string { return "written succesfully" }

// Reconcile keeps, per instrument role, the channel-suffixed stem matching
// that role's override if one is configured, else the plain stereo stem, and
// deletes every other file the item produced in the flat output directory.
func (s *Spleeter) Reconcile(ctx context.Context, stem string, overrides map[artifact.Instrument]artifact.Channel) error {
	entries, err := os.ReadDir(s.outputDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "separate", "spleeter cleanup", "read output directory", err)
	}

	keep := keepSet(stem, overrides)
	for _, entry := range entries {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if entry.IsDir() {
			continue
		}
		ref, ok := artifact.ParseStemName(entry.Name())
		if !ok || ref.Stem != stem {
			// Unparsable files or other items' stems are left alone.
			continue
		}
		if _, wanted := keep[ref]; wanted {
			continue
		}
		if err := os.Remove(filepath.Join(s.outputDir, entry.Name())); err != nil {
			return services.Wrap(services.ErrExternalTool, "separate", "spleeter cleanup", "remove unwanted stem", err)
		}
	}
	return nil
}
