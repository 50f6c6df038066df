package ffmpeg

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"stemset/internal/artifact"
	"stemset/internal/services"
	"stemset/internal/services/command"
)

// Option configures the splitter.
type Option func(*Splitter)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(executor command.Executor) Option {
	return func(s *Splitter) {
		if executor != nil {
			s.exec = executor
		}
	}
}

// Splitter derives single-channel excerpts from a stereo excerpt using ffmpeg.
type Splitter struct {
	binary  string
	timeout time.Duration
	exec    command.Executor
}

// NewSplitter constructs a channel splitter. timeoutSeconds bounds each
// extraction run; channel splitting is fast and deterministic, so a stuck
// process is treated as fatal rather than retried.
func NewSplitter(binary string, timeoutSeconds int, opts ...Option) (*Splitter, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, services.Wrap(services.ErrConfiguration, "split", "client", "ffmpeg binary required", nil)
	}
	splitter := &Splitter{
		binary:  binary,
		timeout: time.Duration(timeoutSeconds) * time.Second,
		exec:    command.System{},
	}
	for _, opt := range opts {
		opt(splitter)
	}
	return splitter, nil
}

// Split writes one side-suffixed excerpt per distinct channel present in
// overrides, next to rawExcerpt. It is a no-op when overrides is empty and
// returns the paths it produced.
func (s *Splitter) Split(ctx context.Context, rawExcerpt string, overrides map[artifact.Instrument]artifact.Channel) ([]string, error) {
	channels := distinctChannels(overrides)
	if len(channels) == 0 {
		return nil, nil
	}

	dir := filepath.Dir(rawExcerpt)
	stem := strings.TrimSuffix(filepath.Base(rawExcerpt), "."+artifact.FileExt)

	produced := make([]string, 0, len(channels))
	for _, channel := range channels {
		ref := artifact.Ref{Stem: stem, Channel: channel}
		outPath := filepath.Join(dir, ref.ExcerptName())
		args := []string{
			"-y",
			"-i", rawExcerpt,
			"-map_channel", fmt.Sprintf("0.0.%d", channel.Index()),
			outPath,
		}
		if err := command.RunWithTimeout(ctx, s.exec, s.binary, args, s.timeout, "split", "ffmpeg", nil); err != nil {
			return nil, err
		}
		produced = append(produced, outPath)
	}
	return produced, nil
}

func distinctChannels(overrides map[artifact.Instrument]artifact.Channel) []artifact.Channel {
	set := make(map[artifact.Channel]struct{}, len(overrides))
	for _, channel := range overrides {
		if channel == artifact.ChannelNone {
			continue
		}
		set[channel] = struct{}{}
	}
	channels := make([]artifact.Channel, 0, len(set))
	for channel := range set {
		channels = append(channels, channel)
	}
	sort.Slice(channels, func(i, j int) bool { return channels[i] < channels[j] })
	return channels
}
