package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"callprep/internal/config"
	"callprep/internal/lifecycle"
	"callprep/internal/logging"
	"callprep/internal/notifications"
	"callprep/internal/progress"
	"callprep/internal/services"
	"callprep/internal/store"
	"callprep/internal/summary"
)

// CallService is the call service surface the daemon needs: the lifecycle
// operations plus the approval preview.
type CallService interface {
	lifecycle.CallService
	AssistantIntro(attendee, meeting string) string
}

// Components bundles the collaborators the daemon wires into each lifecycle.
type Components struct {
	Calls      CallService
	Summarizer summary.Summarizer
	Writer     lifecycle.ReportWriter
	Notifier   notifications.Service
}

// Daemon owns the detached call lifecycles and enforces single-instance execution.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      *store.Store
	components Components
	registry   *progress.Registry
	options    lifecycle.Options

	lockPath string
	lock     *flock.Flock

	mu           sync.RWMutex
	running      atomic.Bool
	ctx          context.Context
	cancel       context.CancelFunc
	runner       *lifecycle.Runner
	orchestrator *lifecycle.Orchestrator
	api          *apiServer
}

// Status represents daemon runtime information.
type Status struct {
	Running          bool
	PID              int
	DatabasePath     string
	LockFilePath     string
	ReportsDir       string
	ActiveLifecycles int
	TrackedCalls     int
	PendingTasks     int
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, st *store.Store, logger *slog.Logger, components Components) (*Daemon, error) {
	if cfg == nil || st == nil {
		return nil, errors.New("daemon requires config and store")
	}
	if components.Calls == nil || components.Summarizer == nil || components.Writer == nil {
		return nil, services.Wrap(services.ErrConfiguration, "daemon", "init", "call service, summarizer and report writer are required", nil)
	}
	if components.Notifier == nil {
		components.Notifier = notifications.NewService(cfg)
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:        cfg,
		logger:     logger,
		store:      st,
		components: components,
		registry:   progress.NewRegistry(cfg.Progress.Capacity),
		options:    lifecycle.OptionsFromConfig(cfg),
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock, starts the lifecycle runner and serves the
// HTTP API. Cancelling ctx is the shutdown signal for in-flight lifecycles.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another callprep daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	runner := lifecycle.NewRunner(runCtx, d.cfg.Lifecycle.MaxConcurrent, d.logger)
	orchestrator := lifecycle.New(lifecycle.Dependencies{
		Calls:      d.components.Calls,
		Summarizer: d.components.Summarizer,
		Writer:     d.components.Writer,
		Store:      d.store,
		Registry:   d.registry,
		Notifier:   d.components.Notifier,
		Logger:     d.logger,
		Runner:     runner,
	}, d.options)

	d.mu.Lock()
	d.ctx, d.cancel = runCtx, cancel
	d.runner = runner
	d.orchestrator = orchestrator
	d.mu.Unlock()

	server, err := newAPIServer(d.cfg, d, d.logger)
	if err == nil {
		err = server.start(runCtx)
	}
	if err != nil {
		cancel()
		runner.Stop()
		_ = d.lock.Unlock()
		d.mu.Lock()
		d.ctx, d.cancel, d.runner, d.orchestrator = nil, nil, nil, nil
		d.mu.Unlock()
		return fmt.Errorf("start api server: %w", err)
	}
	d.mu.Lock()
	d.api = server
	d.mu.Unlock()

	d.running.Store(true)
	d.logger.Info("callprep daemon started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String("lock", d.lockPath),
		logging.Int("max_concurrent", d.cfg.Lifecycle.MaxConcurrent),
	)
	return nil
}

// Stop cancels in-flight lifecycles, waits for them to record their terminal
// state and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.mu.Lock()
	cancel, runner, server := d.cancel, d.runner, d.api
	d.cancel = nil
	d.api = nil
	d.mu.Unlock()

	server.stop()
	if cancel != nil {
		cancel()
	}
	if runner != nil {
		runner.Stop()
	}
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "daemon_lock_release_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove "+d.lockPath+" if the next start reports a running instance"),
		)
	}
	d.running.Store(false)
	d.logger.Info("callprep daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Addr returns the API listen address once started.
func (d *Daemon) Addr() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.api == nil || d.api.listener == nil {
		return ""
	}
	return d.api.listener.Addr().String()
}

// StartCall places a call and tracks the rest of its lifecycle in the background.
func (d *Daemon) StartCall(ctx context.Context, req services.CallRequest) (string, error) {
	d.mu.RLock()
	orchestrator := d.orchestrator
	d.mu.RUnlock()
	if orchestrator == nil || !d.running.Load() {
		return "", errors.New("daemon is not running")
	}
	return orchestrator.Launch(ctx, req)
}

// CallProgress returns the tracked progress for handle.
func (d *Daemon) CallProgress(handle string) (progress.Progress, bool) {
	return d.registry.Get(strings.TrimSpace(handle))
}

// Preview returns the assistant introduction for a prospective call.
func (d *Daemon) Preview(attendee, meeting string) string {
	return d.components.Calls.AssistantIntro(attendee, meeting)
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.components.Notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	d.mu.RLock()
	runner := d.runner
	d.mu.RUnlock()
	pending := 0
	if runner != nil {
		pending = runner.Pending()
	}
	return Status{
		Running:          d.running.Load(),
		PID:              os.Getpid(),
		DatabasePath:     d.store.Path(),
		LockFilePath:     d.lockPath,
		ReportsDir:       d.cfg.Paths.ReportsDir,
		ActiveLifecycles: d.registry.Active(),
		TrackedCalls:     d.registry.Len(),
		PendingTasks:     pending,
	}
}
