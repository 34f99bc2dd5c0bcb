package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"callprep/internal/config"
	"callprep/internal/lifecycle"
	"callprep/internal/notifications"
	"callprep/internal/progress"
	"callprep/internal/report"
	"callprep/internal/services"
	"callprep/internal/services/vapi"
	"callprep/internal/store"
	"callprep/internal/summary"
)

// newSummarizer is swapped in tests to avoid a remote language model.
var newSummarizer = func(cfg *config.Config) (summary.Summarizer, error) {
	return summary.NewFromConfig(cfg)
}

var errCallDeclined = errors.New("call cancelled")

func newCallCommand(ctx *commandContext) *cobra.Command {
	var req services.CallRequest
	var assumeYes bool
	var detach bool

	cmd := &cobra.Command{
		Use:   "call",
		Short: "Call an attendee and write a meeting preparation report",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			req = req.Normalized()
			if err := req.Validate(); err != nil {
				return err
			}

			calls := vapi.NewClient(vapi.ConfigFrom(cfg.Vapi))
			if !assumeYes {
				approved, err := confirmCall(cmd.InOrStdin(), cmd.OutOrStdout(), calls.AssistantIntro(req.AttendeeName, req.MeetingDescription))
				if err != nil {
					return err
				}
				if !approved {
					fmt.Fprintln(cmd.OutOrStdout(), "Call cancelled")
					return errCallDeclined
				}
			}

			if detach {
				return startDetachedCall(cmd, ctx, req)
			}
			return runCall(cmd, ctx, cfg, calls, req)
		},
	}

	cmd.Flags().StringVar(&req.AttendeeName, "name", "", "Attendee name")
	cmd.Flags().StringVar(&req.PhoneNumber, "phone", "", "Attendee phone number (E.164)")
	cmd.Flags().StringVar(&req.MeetingDescription, "meeting", "", "What the meeting is about")
	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Skip the approval prompt")
	cmd.Flags().BoolVar(&detach, "detach", false, "Hand the call to the running daemon and return immediately")
	return cmd
}

// confirmCall shows the assistant introduction and asks for approval. A
// non-interactive stdin cannot approve; callers pass --yes instead.
func confirmCall(in io.Reader, out io.Writer, intro string) (bool, error) {
	if file, ok := in.(*os.File); ok && !isatty.IsTerminal(file.Fd()) && !isatty.IsCygwinTerminal(file.Fd()) {
		return false, errors.New("stdin is not a terminal; pass --yes to place the call without the approval prompt")
	}
	fmt.Fprintln(out, intro)
	fmt.Fprintln(out)
	fmt.Fprint(out, "Proceed with call? (yes/no): ")

	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func runCall(cmd *cobra.Command, ctx *commandContext, cfg *config.Config, calls *vapi.Client, req services.CallRequest) error {
	summarizer, err := newSummarizer(cfg)
	if err != nil {
		return err
	}
	st, err := store.Open(cfg)
	if err != nil {
		return fmt.Errorf("open report database: %w", err)
	}
	defer st.Close()

	orchestrator := lifecycle.New(lifecycle.Dependencies{
		Calls:      calls,
		Summarizer: summarizer,
		Writer:     report.NewWriter(cfg.Paths.ReportsDir),
		Store:      st,
		Registry:   progress.NewRegistry(cfg.Progress.Capacity),
		Notifier:   notifications.NewService(cfg),
		Logger:     ctx.logger(),
	}, lifecycle.OptionsFromConfig(cfg))

	if !ctx.jsonOutput() {
		fmt.Fprintf(cmd.OutOrStdout(), "Calling %s at %s...\n", req.AttendeeName, req.PhoneNumber)
	}
	outcome, runErr := orchestrator.Run(cmd.Context(), req)
	if ctx.jsonOutput() {
		if err := writeJSON(cmd, outcome); err != nil {
			return err
		}
		return runErr
	}

	out := cmd.OutOrStdout()
	if runErr != nil {
		var persistErr *lifecycle.PersistenceError
		if errors.As(runErr, &persistErr) && persistErr.Summary != "" {
			fmt.Fprintln(out, "The report could not be saved. Summary:")
			fmt.Fprintln(out, persistErr.Summary)
		}
		return fmt.Errorf("call %s: %w", displayStatus(outcome.Status), runErr)
	}
	fmt.Fprintf(out, "Call %s (%s)\n", outcome.Handle, displayStatus(outcome.Status))
	fmt.Fprintf(out, "Report: %s\n", outcome.ReportPath)
	fmt.Fprintln(out)
	fmt.Fprintln(out, outcome.Summary)
	return nil
}

func startDetachedCall(cmd *cobra.Command, ctx *commandContext, req services.CallRequest) error {
	client, err := ctx.daemonClient()
	if err != nil {
		return err
	}
	accepted, err := client.StartCall(cmd.Context(), req)
	if err != nil {
		return err
	}
	if ctx.jsonOutput() {
		return writeJSON(cmd, accepted)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Call %s %s; follow it with `callprep status %s`\n", accepted.Handle, accepted.Status, accepted.Handle)
	return nil
}
