package main

import (
	"github.com/spf13/cobra"

	"streamer/internal/daemonrun"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var logLevel string
	var development bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the streamer daemon in the foreground",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if ctx.apiFlag != nil && *ctx.apiFlag != "" {
				cfg.Paths.APIBind = *ctx.apiFlag
			}
			return daemonrun.Run(commandContextOrBackground(cmd), cfg, daemonrun.Options{
				LogLevel:    logLevel,
				Development: development,
			})
		},
	}
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override logging.level for this run")
	cmd.Flags().BoolVar(&development, "development", false, "Include source locations in log output")
	return cmd
}
