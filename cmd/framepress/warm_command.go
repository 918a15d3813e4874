package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"framepress/internal/engine"
	"framepress/internal/transcoder"
)

const warmPollInterval = 200 * time.Millisecond

func newWarmCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "warm",
		Short: "Fetch the runtime and initialize the engine once",
		Long: "Fetch the runtime payload and initialize the engine, reporting load progress.\n" +
			"Useful to verify the runtime source end to end; the engine is released on exit.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			return ctx.withService(cmd, func(runCtx context.Context, service *transcoder.Service) error {
				started := time.Now()
				stop := make(chan struct{})
				done := make(chan struct{})
				go func() {
					defer close(done)
					if colorize {
						reportLoadProgress(out, service, stop)
					} else {
						<-stop
					}
				}()

				err := service.EnsureReady(runCtx)
				close(stop)
				<-done

				status := service.Status()
				kind := statusOK
				message := fmt.Sprintf("%d%% in %s", status.Progress, time.Since(started).Round(time.Millisecond))
				if err != nil {
					kind = statusError
					message = err.Error()
				}
				fmt.Fprintln(out, renderStatusLine("Engine", kind, stateLabel(status.State)+" "+message, colorize))
				return err
			})
		},
	}
}

// reportLoadProgress redraws a single progress line until stop is closed.
func reportLoadProgress(out io.Writer, service *transcoder.Service, stop <-chan struct{}) {
	ticker := time.NewTicker(warmPollInterval)
	defer ticker.Stop()
	last := -1
	for {
		select {
		case <-stop:
			if last >= 0 {
				fmt.Fprint(out, "\r\x1b[K")
			}
			return
		case <-ticker.C:
			status := service.Status()
			if status.State != engine.StateLoading || status.Progress == last {
				continue
			}
			last = status.Progress
			fmt.Fprintf(out, "\rLoading engine... %3d%%", last)
		}
	}
}

func stateLabel(state engine.State) string {
	return cases.Title(language.Und).String(state.String())
}
