package editor

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Job is background work started with Editor.Go. Its context is cancelled
// when the line is aborted or the editor closes.
type Job func(ctx context.Context) error

// workers is a bounded pool of background goroutines. Cancel abandons the
// current generation of jobs and starts a fresh one; jobs report results
// through Editor.Dispatch, never by touching editor state.
type workers struct {
	limit  int
	logger *slog.Logger

	mu     sync.Mutex
	group  *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc
	closed bool
}

func newWorkers(limit int, logger *slog.Logger) *workers {
	w := &workers{limit: limit, logger: logger}
	w.renew()
	return w
}

func (w *workers) renew() {
	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.limit)
	w.group, w.ctx, w.cancel = g, gctx, cancel
}

// Go starts job without blocking the caller, even when the pool is full.
func (w *workers) Go(job Job) bool {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return false
	}
	g, ctx := w.group, w.ctx
	w.mu.Unlock()

	run := func() error {
		if err := job(ctx); err != nil && ctx.Err() == nil {
			w.logger.Debug("background job failed", "err", err)
		}
		return nil
	}
	if !g.TryGo(run) {
		go g.Go(run)
	}
	return true
}

// Cancel cancels in-flight jobs without waiting for them.
func (w *workers) Cancel() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	cancel := w.cancel
	w.renew()
	w.mu.Unlock()
	cancel()
}

// Close cancels the current jobs and waits for them.
func (w *workers) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	g, cancel := w.group, w.cancel
	w.mu.Unlock()
	cancel()
	return g.Wait()
}
