package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"streamer/internal/api"
)

func newSpeakCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "speak <text>...",
		Short: "Queue text for the speech stage",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			return ctx.withClient(func(client *api.Client) error {
				resp, err := client.Speak(commandContextOrBackground(cmd), text)
				if err != nil {
					return err
				}
				if resp == nil || !resp.Accepted {
					return errors.New("speech input was not accepted")
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Speech queued")
				return nil
			})
		},
	}
}

func newStopCommand(ctx *commandContext) *cobra.Command {
	var conversation string
	var reason string
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Abandon in-flight work for a conversation on every stage",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withClient(func(client *api.Client) error {
				resp, err := client.Stop(commandContextOrBackground(cmd), api.StopRequest{
					ConversationID: conversation,
					Reason:         reason,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Stop %s sent to %s\n", resp.ConversationID, strings.Join(resp.Stages, ", "))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&conversation, "conversation", "", "Conversation ID (generated when empty)")
	cmd.Flags().StringVar(&reason, "reason", "", "Reason recorded with the stop")
	return cmd
}
