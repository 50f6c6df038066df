package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"stemset/internal/artifact"
	"stemset/internal/catalog"
	"stemset/internal/config"
	"stemset/internal/fileutil"
	"stemset/internal/freshness"
	"stemset/internal/logging"
	"stemset/internal/media/ffprobe"
	"stemset/internal/separation"
	"stemset/internal/services"
	"stemset/internal/services/ffmpeg"
	"stemset/internal/services/ytdlp"
)

// State tracks the strictly sequential per-item build lifecycle.
type State string

const (
	StateInit      State = "init"
	StateAcquired  State = "acquired"
	StateSplit     State = "split"
	StateSeparated State = "separated"
	StateFinalized State = "finalized"
)

// Downloader acquires a raw excerpt from one of several candidate sources.
type Downloader interface {
	FilterCandidates(ctx context.Context, links []string) []string
	Acquire(ctx context.Context, candidates []string, destPath string, startSec, endSec int, report func(string)) error
}

// ChannelSplitter derives single-channel excerpts from a raw excerpt.
type ChannelSplitter interface {
	Split(ctx context.Context, rawExcerpt string, overrides map[artifact.Instrument]artifact.Channel) ([]string, error)
}

// Options carries the per-invocation build switches. It is copied at
// construction; later mutation has no effect on a running maker.
type Options struct {
	ForceDownload   bool
	ForceSeparation bool
	// IncludeLog attaches the build log to the item's catalog metadata on
	// finalize. Off by default: the log is still available via LogLines.
	IncludeLog bool
}

// ItemMaker builds one catalog item end to end.
type ItemMaker struct {
	item   *catalog.Item
	cfg    *config.Config
	logger *slog.Logger

	downloader      Downloader
	splitter        ChannelSplitter
	downloadCheck   *freshness.Checker
	separationCheck *freshness.Checker
	runner          *separation.Runner
	backends        []separation.Backend

	log        *itemLog
	includeLog bool
	state      State
	performed  bool
}

// NewItemMaker constructs an ItemMaker with real external-tool dependencies.
func NewItemMaker(cfg *config.Config, item *catalog.Item, logger *slog.Logger, backends []separation.Backend, opts Options) (*ItemMaker, error) {
	downloader, err := ytdlp.New(cfg.Tools.YtDlp, cfg.Acquisition.AttemptsPerSource, cfg.Acquisition.ProbeTimeout)
	if err != nil {
		return nil, err
	}
	splitter, err := ffmpeg.NewSplitter(cfg.Tools.FFmpeg, cfg.Acquisition.SplitTimeout)
	if err != nil {
		return nil, err
	}
	prober := ffprobe.Probe{Binary: cfg.Tools.FFprobe}
	return NewItemMakerWithDependencies(cfg, item, logger, downloader, splitter, prober, separation.NewRunner(nil), backends, opts), nil
}

// NewItemMakerWithDependencies allows injecting all collaborators (used in tests).
func NewItemMakerWithDependencies(
	cfg *config.Config,
	item *catalog.Item,
	logger *slog.Logger,
	downloader Downloader,
	splitter ChannelSplitter,
	prober freshness.Prober,
	runner *separation.Runner,
	backends []separation.Backend,
	opts Options,
) *ItemMaker {
	return &ItemMaker{
		item:            item,
		cfg:             cfg,
		logger:          logging.NewComponentLogger(logger, "itemmaker"),
		downloader:      downloader,
		splitter:        splitter,
		downloadCheck:   freshness.NewChecker(prober, opts.ForceDownload),
		separationCheck: freshness.NewChecker(prober, opts.ForceSeparation),
		runner:          runner,
		backends:        backends,
		log:             newItemLog(),
		includeLog:      opts.IncludeLog,
		state:           StateInit,
	}
}

// State reports the current lifecycle state.
func (m *ItemMaker) State() State {
	return m.state
}

// Performed reports whether any stage did real work rather than skipping on
// a freshness check.
func (m *ItemMaker) Performed() bool {
	return m.performed
}

// MakeItem runs the full build for the item: acquisition, channel splitting,
// separation, and finalization.
func (m *ItemMaker) MakeItem(ctx context.Context) error {
	ctx = services.WithItem(ctx, m.item.FName)
	if err := m.GetItem(ctx); err != nil {
		return err
	}
	if err := m.SeparateAudio(ctx); err != nil {
		return err
	}
	return m.FinalizeOutput(ctx)
}

// rawExcerptPath returns the canonical location of the item's raw excerpt.
func (m *ItemMaker) rawExcerptPath() string {
	ref := artifact.Ref{Stem: m.item.FName}
	return filepath.Join(m.cfg.Paths.RawAudioDir, ref.ExcerptName())
}

// channelExcerptPaths returns the canonical locations of the item's
// channel-derived excerpts, one per distinct overridden side.
func (m *ItemMaker) channelExcerptPaths() []string {
	if !m.cfg.Separation.SeparateChannels {
		return nil
	}
	seen := make(map[artifact.Channel]struct{})
	var paths []string
	for _, channel := range []artifact.Channel{artifact.ChannelLeft, artifact.ChannelRight} {
		for _, side := range m.item.Overrides() {
			if side != channel {
				continue
			}
			if _, dup := seen[channel]; dup {
				continue
			}
			seen[channel] = struct{}{}
			ref := artifact.Ref{Stem: m.item.FName, Channel: channel}
			paths = append(paths, filepath.Join(m.cfg.Paths.RawAudioDir, ref.ExcerptName()))
		}
	}
	return paths
}

// GetItem ensures the raw excerpt and any channel-derived excerpts are on
// disk, downloading and splitting only when a freshness check fails.
func (m *ItemMaker) GetItem(ctx context.Context) error {
	ctx = services.WithStage(ctx, "acquire")
	logger := logging.WithContext(ctx, m.logger)

	rawPath := m.rawExcerptPath()
	inputs := append([]string{rawPath}, m.channelExcerptPaths()...)

	start, end, spanOK := m.item.Span()
	expected := float64(end - start)
	if spanOK && m.downloadCheck.Fresh(ctx, inputs, expected) {
		logger.Info("raw excerpt up to date, skipping download")
		m.log.Append("skipping download, excerpt already on disk")
		m.state = StateSplit
		return nil
	}
	if !spanOK {
		return services.Wrap(services.ErrValidation, "acquire", m.item.FName, "item has no usable start/end timestamps", nil)
	}

	candidates := m.downloader.FilterCandidates(ctx, m.item.ExternalLinks())
	if len(candidates) == 0 {
		return services.Wrap(services.ErrAcquisition, "acquire", m.item.FName, "no playable candidate sources", nil)
	}

	logger.Info("downloading raw excerpt",
		logging.String("track", m.item.TrackName),
		logging.Int("candidates", len(candidates)),
		logging.Int("start", start),
		logging.Int("end", end),
	)
	m.log.Append(fmt.Sprintf("downloading %s ...", m.item.Describe()))
	if err := m.downloader.Acquire(ctx, candidates, rawPath, start, end, m.log.Append); err != nil {
		return err
	}
	m.log.Append("... downloaded successfully")
	m.state = StateAcquired
	m.performed = true

	return m.splitChannels(ctx, logger, rawPath)
}

func (m *ItemMaker) splitChannels(ctx context.Context, logger *slog.Logger, rawPath string) error {
	overrides := m.item.Overrides()
	if m.cfg.Separation.SeparateChannels && len(overrides) > 0 {
		derived, err := m.splitter.Split(ctx, rawPath, overrides)
		if err != nil {
			return err
		}
		if len(derived) > 0 {
			logger.Info("split channel excerpts", logging.Int("files", len(derived)))
			m.log.Append(fmt.Sprintf("split %d channel excerpt(s)", len(derived)))
		}
	}
	m.state = StateSplit
	return nil
}

// SeparateAudio runs every enabled backend over the item's excerpts,
// skipping entirely when all expected stems across backends are fresh.
func (m *ItemMaker) SeparateAudio(ctx context.Context) error {
	ctx = services.WithStage(ctx, "separate")
	logger := logging.WithContext(ctx, m.logger)

	if len(m.backends) == 0 {
		m.state = StateSeparated
		return nil
	}

	rawPath := m.rawExcerptPath()
	if !fileutil.Exists(rawPath) {
		return services.Wrap(services.ErrNotFound, "separate", m.item.FName, "raw excerpt missing", nil)
	}

	start, end, spanOK := m.item.Span()
	if !spanOK {
		return services.Wrap(services.ErrValidation, "separate", m.item.FName, "item has no usable start/end timestamps", nil)
	}
	excerptSeconds := end - start
	expected := float64(excerptSeconds)

	overrides := m.item.Overrides()
	var stems []string
	for _, backend := range m.backends {
		stems = append(stems, separation.ExpectedStems(backend.OutputDir(), m.item.FName, overrides)...)
	}
	if m.separationCheck.FreshExact(ctx, stems, expected, rawPath) {
		logger.Info("separated stems up to date, skipping separation")
		m.log.Append("skipping separation, stems already on disk")
		m.state = StateSeparated
		return nil
	}

	inputs := append([]string{rawPath}, m.channelExcerptPaths()...)
	for _, backend := range m.backends {
		logger.Info("separating excerpts",
			logging.String("backend", backend.Name()),
			logging.String("model", backend.Model()),
			logging.Int("jobs", len(inputs)),
		)
		m.log.Append(fmt.Sprintf("separating with %s (%s) ...", backend.Name(), backend.Model()))
		if err := m.runner.Run(ctx, backend, inputs, excerptSeconds, m.log.Append); err != nil {
			return err
		}
		if err := backend.Reconcile(ctx, m.item.FName, overrides); err != nil {
			return err
		}
	}
	m.state = StateSeparated
	m.performed = true
	return nil
}

// FinalizeOutput removes backend scratch directories and, when the log was
// requested, attaches it to the item; otherwise any stale item log is cleared.
func (m *ItemMaker) FinalizeOutput(ctx context.Context) error {
	ctx = services.WithStage(ctx, "finalize")
	logger := logging.WithContext(ctx, m.logger)

	for _, backend := range m.backends {
		scratcher, ok := backend.(interface{ ScratchDir() string })
		if !ok {
			continue
		}
		// Best effort: a leftover scratch directory is re-trimmed on the
		// next run.
		if err := os.RemoveAll(scratcher.ScratchDir()); err != nil {
			logger.Warn("failed to remove scratch directory", logging.Error(err))
		}
	}

	if m.includeLog {
		m.item.Log = m.log.Lines()
	} else {
		m.item.Log = nil
	}
	m.state = StateFinalized
	return nil
}

// LogLines returns the build log accumulated so far.
func (m *ItemMaker) LogLines() []string {
	return m.log.Lines()
}
