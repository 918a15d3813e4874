package main

import (
	"github.com/spf13/cobra"
)

const (
	groupMedia  = "media"
	groupEngine = "engine"
)

func newRootCommand() *cobra.Command {
	var configPath, logLevel string
	ctx := newCommandContext(&configPath, &logLevel)

	root := &cobra.Command{
		Use:   "framepress",
		Short: "Lazy-loaded media transcoding",
		Long: "framepress fetches its encoding engine on first use and runs thumbnail,\n" +
			"probe, audio extraction, and quality ladder jobs against local video files.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "Configuration file path")
	flags.StringVar(&logLevel, "log-level", "", "Override the configured log level (debug, info, warn, error)")

	root.AddGroup(
		&cobra.Group{ID: groupMedia, Title: "Media commands:"},
		&cobra.Group{ID: groupEngine, Title: "Engine and diagnostics:"},
	)
	for _, cmd := range []*cobra.Command{
		newProbeCommand(ctx),
		newThumbnailCommand(ctx),
		newAudioCommand(ctx),
		newLadderCommand(ctx),
	} {
		cmd.GroupID = groupMedia
		root.AddCommand(cmd)
	}
	for _, cmd := range []*cobra.Command{
		newWarmCommand(ctx),
		newDoctorCommand(ctx),
		newLogsCommand(ctx),
		newConfigCommand(),
	} {
		cmd.GroupID = groupEngine
		root.AddCommand(cmd)
	}
	return root
}
