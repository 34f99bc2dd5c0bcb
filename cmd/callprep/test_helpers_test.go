package main

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"callprep/internal/config"
	"callprep/internal/summary"
	"callprep/internal/testsupport"
)

type cliTestEnv struct {
	vapi       *testsupport.VapiServer
	summarizer *testsupport.StaticSummarizer
	configPath string
	baseDir    string
	bind       string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("CALLPREP_REPORTS_DIR", "")
	t.Setenv("DATABASE_PATH", "")

	fake := testsupport.NewVapiServer(t)
	env := &cliTestEnv{
		vapi:       fake,
		summarizer: &testsupport.StaticSummarizer{Text: "- Goals: agree on the Q4 roadmap"},
		configPath: filepath.Join(base, "callprep.toml"),
		baseDir:    base,
		bind:       freeAddr(t),
	}
	writeTestConfig(t, env)

	previous := newSummarizer
	newSummarizer = func(*config.Config) (summary.Summarizer, error) { return env.summarizer, nil }
	t.Cleanup(func() { newSummarizer = previous })
	return env
}

func writeTestConfig(t *testing.T, env *cliTestEnv) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
state_dir = %q
log_dir = %q
reports_dir = %q

[vapi]
api_key = "test-vapi-key"
base_url = %q
phone_number_id = "test-line"

[summarizer]
provider = "anthropic"
api_key = "test-summarizer-key"

[lifecycle]
poll_interval_seconds = 1
poll_timeout_seconds = 5

[api]
bind = %q

[logging]
format = "json"
level = "debug"
`,
		filepath.Join(env.baseDir, "state"),
		filepath.Join(env.baseDir, "logs"),
		filepath.Join(env.baseDir, "meeting-notes"),
		env.vapi.URL,
		env.bind,
	)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func (env *cliTestEnv) loadConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, _, _, err := config.Load(env.configPath)
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	return cfg
}

func runCLI(t *testing.T, env *cliTestEnv, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stdout)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
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

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected output to contain %q, got:\n%s", substr, output)
	}
}
