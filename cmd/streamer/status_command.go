package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"streamer/internal/api"
	"streamer/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, preflight, and stage status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			runCtx := commandContextOrBackground(cmd)

			var status *api.StatusResponse
			client, clientErr := ctx.client()
			if clientErr == nil {
				status, err = client.Status(runCtx)
				if err != nil && !isDaemonUnreachable(err) {
					return wrapDialError(err, ctx.apiAddress())
				}
			}
			if asJSON {
				if status == nil {
					return writeJSON(cmd, api.StatusResponse{})
				}
				return writeJSON(cmd, status)
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			for _, line := range renderSectionHeader("System Status", colorize) {
				fmt.Fprintln(stdout, line)
			}
			if status == nil {
				fmt.Fprintln(stdout, renderStatusLine("Streamer", statusError, "Not running", colorize))
			} else {
				fmt.Fprintln(stdout, renderStatusLine("Streamer", statusOK, fmt.Sprintf("Running (pid %d)", status.PID), colorize))
				fmt.Fprintln(stdout, renderStatusLine("Backend", statusInfo, displayName(status.Backend), colorize))
				fmt.Fprintln(stdout, renderStatusLine("Journal", statusInfo, status.JournalPath, colorize))
				if status.Pipeline.LastError != "" {
					fmt.Fprintln(stdout, renderStatusLine("Last tick error", statusWarn, status.Pipeline.LastError, colorize))
				}
			}
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Preflight", colorize) {
				fmt.Fprintln(stdout, line)
			}
			results := preflight.RunAll(runCtx, cfg)
			for _, line := range preflightLines(results, colorize) {
				fmt.Fprintln(stdout, line)
			}

			if status == nil {
				return nil
			}
			fmt.Fprintln(stdout)
			for _, line := range renderSectionHeader("Stages", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, line := range stageStatusLines(status.Pipeline.Stages, colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintln(stdout, renderTable(stageTableColumns, stageTableRows(status.Pipeline.Stages)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output the daemon status as JSON")
	return cmd
}
