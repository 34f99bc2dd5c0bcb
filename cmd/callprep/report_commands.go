package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"callprep/internal/api"
	"callprep/internal/config"
	"callprep/internal/store"
)

func newReportCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newListCommand(ctx),
		newShowCommand(ctx),
		newSearchCommand(ctx),
		newStatsCommand(ctx),
		newDeleteCommand(ctx),
	}
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent calls",
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 || offset < 0 {
				return errors.New("limit and offset must not be negative")
			}
			return ctx.withStore(func(_ *config.Config, st *store.Store) error {
				reports, err := st.ListRecent(cmd.Context(), limit, offset)
				if err != nil {
					return err
				}
				return printReports(cmd, ctx, reports, "No calls recorded yet")
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", store.DefaultListLimit, "Maximum number of calls to show")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of calls to skip")
	return cmd
}

func newSearchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "search <text>",
		Short: "Search calls by attendee name or meeting description",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(strings.Join(args, " "))
			return ctx.withStore(func(_ *config.Config, st *store.Store) error {
				reports, err := st.Search(cmd.Context(), query)
				if err != nil {
					return err
				}
				return printReports(cmd, ctx, reports, fmt.Sprintf("No calls match %q", query))
			})
		},
	}
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one call with its summary and transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseReportID(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(_ *config.Config, st *store.Store) error {
				r, err := st.GetByID(cmd.Context(), id)
				if err != nil {
					return err
				}
				if r == nil {
					return fmt.Errorf("call %d not found", id)
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, api.FromReport(r))
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Call #%d\n", r.ID)
				fmt.Fprintf(out, "  Attendee: %s (%s)\n", r.AttendeeName, r.PhoneNumber)
				fmt.Fprintf(out, "  Meeting:  %s\n", r.MeetingDescription)
				fmt.Fprintf(out, "  When:     %s\n", formatLocalTime(r.CallTimestamp))
				fmt.Fprintf(out, "  Status:   %s\n", displayStatus(r.CallStatus))
				if r.ReportFilePath != "" {
					fmt.Fprintf(out, "  Report:   %s\n", r.ReportFilePath)
				}
				fmt.Fprintln(out)
				fmt.Fprintln(out, "Summary")
				fmt.Fprintln(out, strings.TrimSpace(r.Summary))
				fmt.Fprintln(out)
				fmt.Fprintln(out, "Transcript")
				fmt.Fprintln(out, strings.TrimSpace(r.Transcript))
				return nil
			})
		},
	}
}

func newStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show call counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, st *store.Store) error {
				stats, err := st.Stats(cmd.Context())
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, api.FromStats(stats))
				}
				rows := [][]string{
					{"Total calls", strconv.Itoa(stats.Total)},
					{"Successful", strconv.Itoa(stats.Successful)},
					{"Last 7 days", strconv.Itoa(stats.Recent)},
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]column{{Header: "Metric"}, {Header: "Count", Right: true}}, rows))
				return nil
			})
		},
	}
}

func newDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a call record (the report file is kept)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseReportID(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(_ *config.Config, st *store.Store) error {
				deleted, err := st.Delete(cmd.Context(), id)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, api.DeleteResponse{ID: id, Deleted: deleted})
				}
				if !deleted {
					return fmt.Errorf("call %d not found", id)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted call %d\n", id)
				return nil
			})
		},
	}
}

func printReports(cmd *cobra.Command, ctx *commandContext, reports []*store.Report, empty string) error {
	if ctx.jsonOutput() {
		return writeJSON(cmd, api.ReportListResponse{Reports: api.FromReports(reports)})
	}
	out := cmd.OutOrStdout()
	if len(reports) == 0 {
		fmt.Fprintln(out, empty)
		return nil
	}
	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		rows = append(rows, []string{
			strconv.FormatInt(r.ID, 10),
			formatLocalTime(r.CallTimestamp),
			r.AttendeeName,
			truncate(r.MeetingDescription, 80),
			displayStatus(r.CallStatus),
		})
	}
	fmt.Fprintln(out, renderTable([]column{
		{Header: "ID", Right: true},
		{Header: "When"},
		{Header: "Attendee", MaxWidth: 24},
		{Header: "Meeting", MaxWidth: 40},
		{Header: "Status"},
	}, rows))
	return nil
}

func parseReportID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid call id %q", arg)
	}
	return id, nil
}
