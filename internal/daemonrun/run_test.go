package daemonrun

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"callprep/internal/daemonctl"
	"callprep/internal/testsupport"
)

func TestRunServesUntilCancelled(t *testing.T) {
	fake := testsupport.NewVapiServer(t)
	cfg := testsupport.NewConfig(t, testsupport.WithVapiBaseURL(fake.URL))
	cfg.API.Bind = freeAddr(t)
	cfg.Logging.Format = "json"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, cfg, Options{LogLevel: "error"}) }()

	client := daemonctl.NewClient(cfg.API.Bind, "")
	deadline := time.Now().Add(5 * time.Second)
	for {
		status, err := client.Status(context.Background())
		if err == nil {
			if !status.Running || status.LockFilePath != cfg.LockPath() {
				t.Fatalf("unexpected status %+v", status)
			}
			break
		}
		if !errors.Is(err, daemonctl.ErrDaemonNotRunning) || time.Now().After(deadline) {
			cancel()
			t.Fatalf("daemon did not come up: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	pidPath := filepath.Join(cfg.Paths.StateDir, "callprepd.pid")
	if _, err := os.Stat(pidPath); err != nil {
		t.Fatalf("expected pid file: %v", err)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	if _, err := os.Stat(pidPath); !os.IsNotExist(err) {
		t.Fatalf("expected pid file removed, got %v", err)
	}
}

func TestRunRequiresConfig(t *testing.T) {
	if err := Run(context.Background(), nil, Options{}); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	return ln.Addr().String()
}
