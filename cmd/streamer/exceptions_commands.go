package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"streamer/internal/api"
)

func newExceptionsCommand(ctx *commandContext) *cobra.Command {
	var stageFilter string
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "exceptions",
		Aliases: []string{"exc"},
		Short:   "List exceptions awaiting acknowledgement",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withClient(func(client *api.Client) error {
				resp, err := client.Exceptions(commandContextOrBackground(cmd), api.SourceLive, stageFilter, 0)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp.Exceptions)
				}
				if len(resp.Exceptions) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No pending exceptions")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(exceptionTableColumns, exceptionTableRows(resp.Exceptions)))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&stageFilter, "stage", "", "Only show exceptions from this stage")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")

	cmd.AddCommand(&cobra.Command{
		Use:   "ack <stage>",
		Short: "Acknowledge the oldest exception of a stage so it can resume",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.ToLower(strings.TrimSpace(args[0]))
			return ctx.withClient(func(client *api.Client) error {
				resp, err := client.Acknowledge(commandContextOrBackground(cmd), name)
				if err != nil {
					return err
				}
				exc := resp.Exception
				fmt.Fprintf(cmd.OutOrStdout(), "Acknowledged %s exception #%d (%s): %s\n",
					displayName(exc.Stage), exc.Seq, exc.Type, exc.Message)
				return nil
			})
		},
	})
	return cmd
}

func newArtifactsCommand(ctx *commandContext) *cobra.Command {
	var stageFilter string
	var limit int
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "artifacts",
		Short: "List the most recent artifacts held by the daemon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withClient(func(client *api.Client) error {
				resp, err := client.Artifacts(commandContextOrBackground(cmd), api.SourceLive, stageFilter, limit)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp.Artifacts)
				}
				if len(resp.Artifacts) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No artifacts yet")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(artifactTableColumns, artifactTableRows(resp.Artifacts)))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&stageFilter, "stage", "", "Only show artifacts from this stage")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of artifacts")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
