package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"

	"github.com/gofrs/flock"

	"coachcast/internal/config"
	"coachcast/internal/generation"
	"coachcast/internal/logging"
	"coachcast/internal/queue"
)

// Daemon owns the job store, the generation pipeline, and the HTTP API, and
// enforces single-instance execution via a lock file.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *queue.Store
	generator *generation.Generator
	api       *apiServer

	lockPath string
	pidPath  string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	QueueDBPath  string
	LockFilePath string
	JobCounts    queue.HealthSummary
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *queue.Store, gen *generation.Generator, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || gen == nil {
		return nil, errors.New("daemon requires config, store, and generator")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.DataDir, "coachcastd.lock")
	d := &Daemon{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "daemon"),
		store:     store,
		generator: gen,
		lockPath:  lockPath,
		pidPath:   PIDFilePath(cfg),
		lock:      flock.New(lockPath),
	}
	srv, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = srv
	return d, nil
}

// Start acquires the daemon lock, resumes interrupted pollers, and brings
// up the HTTP API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another coachcast daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	d.generator.Start(d.ctx)

	if err := d.generator.ResumePolling(d.ctx); err != nil {
		d.logger.Warn("failed to resume interrupted jobs", logging.Error(err))
	}

	if d.api != nil {
		if err := d.api.start(d.ctx); err != nil {
			d.generator.Stop()
			_ = d.lock.Unlock()
			d.cancel()
			d.ctx = nil
			d.cancel = nil
			return err
		}
	}

	if err := os.WriteFile(d.pidPath, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		d.logger.Warn("failed to write pid file", logging.Error(err))
	}

	d.running.Store(true)
	d.logger.Info("coachcast daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop shuts down the API, drains pollers, and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.api != nil {
		d.api.stop()
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.generator.Stop()
	if err := os.Remove(d.pidPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		d.logger.Warn("failed to remove pid file", logging.Error(err))
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("coachcast daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Status reports runtime information including job counts.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		QueueDBPath:  d.store.Path(),
		LockFilePath: d.lockPath,
	}
	if summary, err := d.store.Health(ctx); err == nil {
		status.JobCounts = summary
	} else {
		d.logger.Warn("failed to summarize job counts", logging.Error(err))
	}
	return status
}

// PIDFilePath returns the location of the daemon pid file for a config.
func PIDFilePath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.DataDir, "coachcastd.pid")
}

// APIAddr returns the bound API address once the server is listening.
func (d *Daemon) APIAddr() string {
	if d.api == nil {
		return ""
	}
	return d.api.addr()
}
