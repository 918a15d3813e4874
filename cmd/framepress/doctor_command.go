package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"framepress/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, directories and the runtime source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			for _, line := range renderSectionHeader("Configuration", colorize) {
				fmt.Fprintln(out, line)
			}
			path := ctx.configPath
			if path == "" {
				path = "(defaults)"
			}
			fmt.Fprintln(out, renderStatusLine("Config file", statusInfo, path, colorize))
			fmt.Fprintln(out, renderStatusLine("Runtime version", statusInfo, cfg.Runtime.Version, colorize))
			fmt.Fprintln(out)

			for _, line := range renderSectionHeader("Checks", colorize) {
				fmt.Fprintln(out, line)
			}
			failed := 0
			for _, result := range preflight.RunAll(cmd.Context(), cfg) {
				kind := statusOK
				if !result.Passed {
					kind = statusError
					failed++
				}
				fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}

			if local := preflight.CheckLocalAssets(cfg); len(local) > 0 {
				fmt.Fprintln(out)
				rows := make([][]string, 0, len(local))
				for _, status := range local {
					detail := status.Detail
					if status.Available {
						detail = status.Description
					}
					rows = append(rows, []string{status.Name, yesNo(status.Available), status.Path, detail})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Asset", "Present", "Path", "Detail"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
				))
			}

			if failed > 0 {
				noun := "check"
				if failed > 1 {
					noun = "checks"
				}
				return fmt.Errorf("doctor: %d %s failed", failed, noun)
			}
			return nil
		},
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
