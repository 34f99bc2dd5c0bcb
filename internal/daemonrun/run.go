package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"callprep/internal/config"
	"callprep/internal/daemon"
	"callprep/internal/logging"
	"callprep/internal/notifications"
	"callprep/internal/report"
	"callprep/internal/services/vapi"
	"callprep/internal/store"
	"callprep/internal/summary"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the callprep daemon and blocks until ctx is cancelled or the
// process receives SIGINT/SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	level := opts.LogLevel
	if strings.TrimSpace(level) == "" {
		level = cfg.Logging.Level
	}
	logPath := cfg.LogFilePath()
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Development:      opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logDependencySnapshot(logger, cfg)
	pidPath := filepath.Join(cfg.Paths.StateDir, "callprepd.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	summarizer, err := summary.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("configure summarizer: %w", err)
	}

	st, err := store.Open(cfg)
	if err != nil {
		logger.Error("open report store", logging.Error(err))
		return err
	}

	d, err := daemon.New(cfg, st, logger, daemon.Components{
		Calls:      vapi.NewClient(vapi.ConfigFrom(cfg.Vapi)),
		Summarizer: summarizer,
		Writer:     report.NewWriter(cfg.Paths.ReportsDir),
		Notifier:   notifications.NewService(cfg),
	})
	if err != nil {
		_ = st.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		logging.ErrorWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check for another running callprepd and the api.bind address"),
		)
		return err
	}
	logger.Info("callprep daemon listening",
		logging.String(logging.FieldEventType, "daemon_listening"),
		logging.String("addr", d.Addr()),
	)

	<-signalCtx.Done()
	logger.Info("callprep daemon shutting down")
	d.Stop()
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	logger.Info("dependency snapshot",
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.Bool("vapi_key_present", strings.TrimSpace(cfg.Vapi.APIKey) != ""),
		logging.Bool("phone_number_configured", strings.TrimSpace(cfg.Vapi.PhoneNumberID) != ""),
		logging.String("summarizer_provider", cfg.Summarizer.Provider),
		logging.Bool("summarizer_key_present", strings.TrimSpace(cfg.Summarizer.APIKey) != ""),
		logging.Bool("ntfy_enabled", strings.TrimSpace(cfg.Notifications.NtfyTopic) != ""),
		logging.String("reports_dir", cfg.Paths.ReportsDir),
		logging.String("database_path", cfg.Paths.DatabasePath),
	)
}
