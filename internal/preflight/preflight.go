package preflight

import (
	"context"

	"callprep/internal/config"
	"callprep/internal/services/vapi"
	"callprep/internal/store"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// Run executes every preflight check for the given config.
func Run(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
	}
	if !cfg.ReportsDirIsURL() {
		results = append(results, CheckDirectoryAccess("Reports directory", cfg.Paths.ReportsDir))
	}
	results = append(results,
		CheckDatabase(ctx, cfg.Paths.DatabasePath),
		CheckCallService(ctx, vapi.NewClient(vapi.ConfigFrom(cfg.Vapi))),
		CheckSummarizerKey(cfg.Summarizer),
	)
	return results
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}

// CheckDatabase opens the report database and verifies its schema.
func CheckDatabase(ctx context.Context, path string) Result {
	const name = "Report database"

	st, err := store.OpenPath(path)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	defer st.Close()

	health, err := st.CheckHealth(ctx)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return summarizeHealth(name, health)
}
