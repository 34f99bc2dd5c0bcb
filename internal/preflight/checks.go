package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"callprep/internal/config"
	"callprep/internal/services"
	"callprep/internal/services/vapi"
	"callprep/internal/store"
)

// PhoneLister is the call service surface used by the reachability check.
type PhoneLister interface {
	ListPhoneNumbers(ctx context.Context) ([]vapi.PhoneNumber, error)
}

// CheckCallService verifies that the call service is reachable, the key is
// accepted and at least one outbound phone line exists.
func CheckCallService(ctx context.Context, client PhoneLister) Result {
	const name = "Call service"

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	numbers, err := client.ListPhoneNumbers(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: summarizeServiceError(err)}
	}
	if len(numbers) == 0 {
		return Result{Name: name, Detail: "reachable, but no phone numbers are configured"}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("reachable (%d phone number(s))", len(numbers))}
}

// CheckSummarizerKey verifies that the selected summarizer has an API key.
func CheckSummarizerKey(sc config.Summarizer) Result {
	name := "Summarizer (" + sc.Provider + ")"
	if strings.TrimSpace(sc.APIKey) == "" {
		return Result{Name: name, Detail: "API key missing"}
	}
	return Result{Name: name, Passed: true, Detail: "API key present (" + sc.Model + ")"}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

func summarizeHealth(name string, health store.DatabaseHealth) Result {
	switch {
	case !health.DatabaseExists:
		return Result{Name: name, Detail: health.DBPath + " (error: does not exist)"}
	case !health.IntegrityCheck:
		return Result{Name: name, Detail: health.DBPath + " (error: integrity check failed)"}
	case len(health.MissingColumns) > 0:
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: missing columns %s)", health.DBPath, strings.Join(health.MissingColumns, ", "))}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d reports, schema v%d)", health.DBPath, health.TotalReports, health.SchemaVersion)}
}

// summarizeServiceError produces a human-readable summary for reachability failures.
func summarizeServiceError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (call service unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (call service unreachable)"
	}
	if errors.Is(err, services.ErrConfiguration) {
		return "not configured: " + err.Error()
	}
	return err.Error()
}
