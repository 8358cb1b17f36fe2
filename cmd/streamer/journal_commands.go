package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"streamer/internal/journal"
)

func newJournalCommand(ctx *commandContext) *cobra.Command {
	journalCmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect the exception and artifact journal",
	}

	var filter journal.Filter
	var asJSON bool
	exceptionsCmd := &cobra.Command{
		Use:   "exceptions",
		Short: "List journaled exceptions, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			runCtx := commandContextOrBackground(cmd)
			return ctx.withJournal(runCtx, func(j journalAPI) error {
				views, err := j.Exceptions(runCtx, filter)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, views)
				}
				if len(views) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Journal has no exceptions")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(exceptionTableColumns, exceptionTableRows(views)))
				return nil
			})
		},
	}
	exceptionsCmd.Flags().StringVar(&filter.Stage, "stage", "", "Only show rows from this stage")
	exceptionsCmd.Flags().IntVarP(&filter.Limit, "limit", "n", 0, "Maximum number of rows")
	exceptionsCmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")

	var artFilter journal.Filter
	var artJSON bool
	artifactsCmd := &cobra.Command{
		Use:   "artifacts",
		Short: "List journaled artifacts, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			runCtx := commandContextOrBackground(cmd)
			return ctx.withJournal(runCtx, func(j journalAPI) error {
				arts, err := j.Artifacts(runCtx, artFilter)
				if err != nil {
					return err
				}
				if artJSON {
					return writeJSON(cmd, arts)
				}
				if len(arts) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Journal has no artifacts")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(artifactTableColumns, artifactTableRows(arts)))
				return nil
			})
		},
	}
	artifactsCmd.Flags().StringVar(&artFilter.Stage, "stage", "", "Only show rows from this stage")
	artifactsCmd.Flags().IntVarP(&artFilter.Limit, "limit", "n", 0, "Maximum number of rows")
	artifactsCmd.Flags().BoolVar(&artJSON, "json", false, "Output as JSON")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every journal row",
		RunE: func(cmd *cobra.Command, _ []string) error {
			runCtx := commandContextOrBackground(cmd)
			return ctx.withJournal(runCtx, func(j journalAPI) error {
				removed, err := j.Clear(runCtx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d journal rows\n", removed)
				return nil
			})
		},
	}

	journalCmd.AddCommand(exceptionsCmd, artifactsCmd, clearCmd)
	return journalCmd
}
