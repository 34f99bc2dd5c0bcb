package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"callprep/internal/api"
	"callprep/internal/daemonctl"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var wait bool

	cmd := &cobra.Command{
		Use:   "status [handle]",
		Short: "Show daemon status, or the progress of one detached call",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.daemonClient()
			if err != nil {
				return err
			}
			if len(args) == 0 {
				status, err := client.Status(cmd.Context())
				if err != nil {
					return err
				}
				return printDaemonStatus(cmd, ctx, status)
			}

			cfg, _ := ctx.ensureConfig()
			var entry *api.CallProgress
			if wait {
				entry, err = client.WaitForCall(cmd.Context(), args[0], cfg.PollInterval())
			} else {
				entry, err = client.CallStatus(cmd.Context(), args[0])
			}
			if errors.Is(err, daemonctl.ErrCallNotFound) {
				return fmt.Errorf("call %s is not tracked by the daemon", args[0])
			}
			if err != nil {
				return err
			}
			return printCallProgress(cmd, ctx, entry)
		},
	}
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "Poll until the call finishes")
	return cmd
}

func printDaemonStatus(cmd *cobra.Command, ctx *commandContext, status *api.DaemonStatus) error {
	if ctx.jsonOutput() {
		return writeJSON(cmd, status)
	}
	p := newStatusPrinter(cmd.OutOrStdout())
	kind, state := statusError, "stopped"
	if status.Running {
		kind, state = statusOK, "running"
	}
	p.line("Daemon", kind, fmt.Sprintf("%s (pid %d)", state, status.PID))
	p.line("Active calls", statusInfo, strconv.Itoa(status.ActiveLifecycles))
	p.line("Tracked calls", statusInfo, strconv.Itoa(status.TrackedCalls))
	p.line("Queued calls", statusInfo, strconv.Itoa(status.PendingTasks))
	p.line("Database", statusInfo, status.DatabasePath)
	p.line("Reports", statusInfo, status.ReportsDir)
	return nil
}

func printCallProgress(cmd *cobra.Command, ctx *commandContext, entry *api.CallProgress) error {
	if ctx.jsonOutput() {
		return writeJSON(cmd, entry)
	}
	out := cmd.OutOrStdout()
	p := newStatusPrinter(out)
	p.line("Call "+entry.Handle, progressKind(entry.Status), displayStatus(entry.Status))
	p.line("Attendee", statusInfo, entry.AttendeeName)
	p.line("Meeting", statusInfo, entry.MeetingDescription)
	if entry.CallStatus != "" {
		p.line("Remote status", statusInfo, entry.CallStatus)
	}
	if entry.ErrorMessage != "" {
		p.line("Error", progressKind(entry.Status), entry.ErrorMessage)
	}
	if entry.ReportPath != "" {
		p.line("Report", statusOK, entry.ReportPath)
	}
	if entry.Summary != "" {
		fmt.Fprintln(out)
		fmt.Fprintln(out, entry.Summary)
	}
	return nil
}
