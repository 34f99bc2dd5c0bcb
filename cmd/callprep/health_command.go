package main

import (
	"errors"

	"github.com/spf13/cobra"

	"callprep/internal/preflight"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check directories, the report database and remote services",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.Run(cmd.Context(), cfg)
			if ctx.jsonOutput() {
				if err := writeJSON(cmd, results); err != nil {
					return err
				}
			} else {
				p := newStatusPrinter(cmd.OutOrStdout())
				for _, r := range results {
					kind := statusOK
					if !r.Passed {
						kind = statusError
					}
					p.line(r.Name, kind, r.Detail)
				}
			}
			if preflight.Failed(results) {
				return errors.New("one or more health checks failed")
			}
			return nil
		},
	}
}
