package testsupport

import (
	"context"
	"sync/atomic"

	"callprep/internal/summary"
)

// StaticSummarizer returns Text for every transcript.
type StaticSummarizer struct {
	Text  string
	Err   error
	calls atomic.Int32
}

// Summarize implements summary.Summarizer.
func (s *StaticSummarizer) Summarize(context.Context, string, string, string) (summary.Result, error) {
	s.calls.Add(1)
	if s.Err != nil {
		return summary.Result{}, s.Err
	}
	return summary.Result{Summary: s.Text}, nil
}

// Calls reports how many times Summarize ran.
func (s *StaticSummarizer) Calls() int {
	return int(s.calls.Load())
}
