package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"stemset/internal/builds"
	"stemset/internal/catalog"
	"stemset/internal/config"
	"stemset/internal/logging"
	"stemset/internal/pipeline"
	"stemset/internal/separation"
	"stemset/internal/services"
)

// Options selects the corpus and the per-run build switches.
type Options struct {
	Corpus          string
	ForceDownload   bool
	ForceSeparation bool
	NoSpleeter      bool
	NoDemucs        bool
	IncludeLog      bool
	Progress        bool
}

// itemBuilder is the slice of the pipeline an item run needs. Faked in tests.
type itemBuilder interface {
	GetItem(ctx context.Context) error
	SeparateAudio(ctx context.Context) error
	FinalizeOutput(ctx context.Context) error
	Performed() bool
	LogLines() []string
}

type makerFactory func(cfg *config.Config, item *catalog.Item, logger *slog.Logger, backends []separation.Backend, opts pipeline.Options) (itemBuilder, error)

func defaultMakerFactory(cfg *config.Config, item *catalog.Item, logger *slog.Logger, backends []separation.Backend, opts pipeline.Options) (itemBuilder, error) {
	return pipeline.NewItemMaker(cfg, item, logger, backends, opts)
}

// Driver coordinates one corpus build run.
type Driver struct {
	cfg      *config.Config
	store    *builds.Store
	logger   *slog.Logger
	opts     Options
	lock     *flock.Flock
	newMaker makerFactory
}

// New constructs a corpus driver.
func New(cfg *config.Config, store *builds.Store, logger *slog.Logger, opts Options) (*Driver, error) {
	if cfg == nil || store == nil {
		return nil, errors.New("driver requires config and store")
	}
	return &Driver{
		cfg:      cfg,
		store:    store,
		logger:   logging.NewComponentLogger(logger, "driver"),
		opts:     opts,
		lock:     flock.New(filepath.Join(cfg.Paths.DataDir, ".stemset.lock")),
		newMaker: defaultMakerFactory,
	}, nil
}

// Backends returns the enabled separation backends in invocation order.
func (d *Driver) Backends() []separation.Backend {
	var backends []separation.Backend
	if !d.opts.NoSpleeter {
		backends = append(backends, separation.NewSpleeter(
			d.cfg.Tools.Spleeter,
			d.cfg.Separation.SpleeterModel,
			d.cfg.Paths.SpleeterDir,
			d.cfg.Separation.SpleeterTimeoutMultiplier,
		))
	}
	if !d.opts.NoDemucs {
		backends = append(backends, separation.NewDemucs(
			d.cfg.Tools.Demucs,
			d.cfg.Separation.DemucsModel,
			d.cfg.Paths.DemucsDir,
			d.cfg.Separation.DemucsTimeoutMultiplier,
		))
	}
	return backends
}

func (d *Driver) loadCatalog() ([]*catalog.Item, error) {
	name := strings.TrimSpace(d.opts.Corpus)
	if name == "" {
		return nil, services.Wrap(services.ErrConfiguration, "driver", "catalog", "no corpus selected", nil)
	}
	if strings.ContainsRune(name, os.PathSeparator) {
		return catalog.Load(name)
	}
	return catalog.LoadByName(d.cfg.Paths.CatalogDir, name)
}

// Run builds every catalog item and returns the run summary. Item failures
// are isolated; Run itself fails only on setup problems.
func (d *Driver) Run(ctx context.Context) (*builds.RunSummary, error) {
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, d.logger)

	items, err := d.loadCatalog()
	if err != nil {
		return nil, err
	}
	if err := d.cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	locked, err := d.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire build lock: %w", err)
	}
	if !locked {
		return nil, errors.New("another stemset build is already running")
	}
	defer func() { _ = d.lock.Unlock() }()

	backends := d.Backends()
	logger.Info("starting corpus build",
		logging.String("corpus", d.opts.Corpus),
		logging.Int("items", len(items)),
		logging.Int("backends", len(backends)),
	)

	var progress *mpb.Progress
	var bar *mpb.Bar
	if d.opts.Progress {
		progress = mpb.New(mpb.WithWidth(64))
		bar = progress.AddBar(int64(len(items)),
			mpb.PrependDecorators(
				decor.Name("Building: "),
				decor.CountersNoUnit("%d / %d"),
			),
			mpb.AppendDecorators(decor.Percentage()),
		)
	}

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		d.runItem(ctx, runID, item, backends)
		if bar != nil {
			bar.Increment()
		}
	}
	if progress != nil {
		progress.Wait()
	}

	summary, err := d.store.Summarize(ctx, runID)
	if err != nil {
		return nil, err
	}
	logger.Info("corpus build finished",
		logging.Int("total", summary.Total),
		logging.Int("completed", summary.Completed),
		logging.Int("skipped", summary.Skipped),
		logging.Int("failed", summary.Failed),
	)
	return summary, nil
}

func (d *Driver) runItem(ctx context.Context, runID string, item *catalog.Item, backends []separation.Backend) {
	ctx = services.WithItem(ctx, item.FName)
	logger := logging.WithContext(ctx, d.logger)

	record, err := d.store.NewRecord(ctx, runID, item.FName)
	if err != nil {
		logger.Error("failed to create build record", logging.Error(err))
		return
	}

	maker, err := d.newMaker(d.cfg, item, d.logger, backends, pipeline.Options{
		ForceDownload:   d.opts.ForceDownload,
		ForceSeparation: d.opts.ForceSeparation,
		IncludeLog:      d.opts.IncludeLog,
	})
	if err != nil {
		d.failItem(ctx, logger, record.ID, err)
		return
	}

	stages := []struct {
		status builds.Status
		run    func(context.Context) error
	}{
		{builds.StatusDownloading, maker.GetItem},
		{builds.StatusSeparating, maker.SeparateAudio},
		{builds.StatusSeparating, maker.FinalizeOutput},
	}
	for _, stage := range stages {
		if err := d.store.UpdateStatus(ctx, record.ID, stage.status); err != nil {
			logger.Warn("failed to update build record", logging.Error(err))
		}
		if err := stage.run(ctx); err != nil {
			d.failItem(ctx, logger, record.ID, err)
			return
		}
	}

	if lines := maker.LogLines(); len(lines) > 0 {
		if err := d.store.AttachLog(ctx, record.ID, lines); err != nil {
			logger.Warn("failed to attach item log", logging.Error(err))
		}
	}
	final := builds.StatusCompleted
	if !maker.Performed() {
		final = builds.StatusSkipped
	}
	if err := d.store.UpdateStatus(ctx, record.ID, final); err != nil {
		logger.Warn("failed to update build record", logging.Error(err))
	}
	logger.Info("item build finished", logging.String("status", string(final)))
}

func (d *Driver) failItem(ctx context.Context, logger *slog.Logger, recordID int64, err error) {
	logger.Error("item build failed", logging.Error(err))
	if markErr := d.store.MarkFailed(ctx, recordID, err.Error()); markErr != nil {
		logger.Warn("failed to record build failure", logging.Error(markErr))
	}
}
