package risk

import (
	"context"
	"path/filepath"

	"github.com/dmitrijs2005/facelock/internal/logging"
	"github.com/dmitrijs2005/facelock/internal/server/metrics"
	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the assessor's policy when the policy file changes.
type Watcher struct {
	path     string
	assessor *Assessor
	log      logging.Logger
	metrics  *metrics.Metrics

	// reloaded, when set, receives the result of every reload attempt.
	reloaded func(error)
}

func NewWatcher(path string, a *Assessor, log logging.Logger, m *metrics.Metrics) *Watcher {
	return &Watcher{
		path:     filepath.Clean(path),
		assessor: a,
		log:      log.With("module", "risk", "policy_file", path),
		metrics:  m,
	}
}

// Reload loads the file once and applies it if valid.
func (w *Watcher) Reload(ctx context.Context) error {
	p, err := LoadPolicyFile(w.path)
	if err == nil {
		err = w.assessor.SetPolicy(p)
	}
	w.metrics.PolicyReload(err == nil)
	if err != nil {
		w.log.Warn(ctx, "risk policy rejected, keeping previous", "error", err)
	} else {
		w.log.Info(ctx, "risk policy loaded",
			"low", p.Thresholds.Low, "high", p.Thresholds.High)
	}
	if w.reloaded != nil {
		w.reloaded(err)
	}
	return err
}

// Run watches the file's directory, so editors that replace the file on save
// are picked up too. It blocks until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				_ = w.Reload(ctx)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Error(ctx, "policy watcher error", "error", err)
		}
	}
}
