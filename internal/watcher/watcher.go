package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/raaihank/pii-sentinel/internal/config"
	"github.com/raaihank/pii-sentinel/internal/logger"
	"github.com/raaihank/pii-sentinel/internal/pipeline"
)

// Watcher monitors a directory and runs every newly created dataset file
// through the redaction pipeline.
type Watcher struct {
	config   config.WatchConfig
	pipeline *pipeline.Pipeline
	suffix   string
	logger   *logger.Logger
}

// New creates a directory watcher.
func New(cfg config.WatchConfig, p *pipeline.Pipeline, outputSuffix string, log *logger.Logger) (*Watcher, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("watch.dir must be set")
	}
	return &Watcher{
		config:   cfg,
		pipeline: p,
		suffix:   outputSuffix,
		logger:   log,
	}, nil
}

// settleWindow is how long a file must go without writes before it is
// considered complete and handed to the pipeline.
const settleWindow = 500 * time.Millisecond

// Run watches the configured directory until the context is cancelled.
// A file is processed once it has settled: every create or write event
// restarts its quiet timer, so slow writers are not read mid-flush. Settled
// files are processed sequentially.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.config.Dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.config.Dir, err)
	}

	w.logger.Info("Watching directory for input files",
		zap.String("dir", w.config.Dir),
		zap.String("pattern", w.config.Pattern))

	ready := make(chan string)
	pending := make(map[string]*time.Timer)
	defer func() {
		for _, timer := range pending {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !w.matches(event.Name) {
				continue
			}
			if timer, seen := pending[event.Name]; seen {
				timer.Reset(settleWindow)
				continue
			}
			name := event.Name
			pending[name] = time.AfterFunc(settleWindow, func() {
				select {
				case ready <- name:
				case <-ctx.Done():
				}
			})

		case name := <-ready:
			delete(pending, name)
			w.process(ctx, name)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Watcher error", zap.Error(err))
		}
	}
}

// matches applies the filename pattern and skips our own output files.
func (w *Watcher) matches(path string) bool {
	name := filepath.Base(path)
	if strings.Contains(name, w.suffix) {
		return false
	}
	ok, err := filepath.Match(w.config.Pattern, name)
	return err == nil && ok
}

func (w *Watcher) process(ctx context.Context, inputPath string) {
	outputPath := pipeline.OutputPathFor(inputPath, w.suffix)
	if w.config.OutputDir != "" {
		outputPath = filepath.Join(w.config.OutputDir, filepath.Base(outputPath))
	}

	result, err := w.pipeline.ProcessFile(ctx, inputPath, outputPath)
	if err != nil {
		w.logger.Error("Failed to process file",
			zap.String("input", inputPath),
			zap.Error(err))
		return
	}

	w.logger.Info("File processed",
		zap.String("input", inputPath),
		zap.String("output", outputPath),
		zap.Int64("total_records", result.TotalRecords),
		zap.Int64("pii_records", result.PIIRecords))
}
