package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"framepress/internal/config"
	"framepress/internal/fileutil"
	"framepress/internal/ladder"
	"framepress/internal/media"
	"framepress/internal/transcoder"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "probe <video>",
		Short: "Report a video's duration and resolution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			video, _, err := readVideo(args[0])
			if err != nil {
				return err
			}
			return ctx.withService(cmd, func(runCtx context.Context, service *transcoder.Service) error {
				result, err := service.Probe(runCtx, video)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, probeOutput{
						File:            video.Filename,
						DurationSeconds: result.DurationSeconds,
						Width:           result.Width,
						Height:          result.Height,
					})
				}
				resolution := "unknown"
				if !result.Resolution().IsZero() {
					resolution = result.Resolution().String()
				}
				duration := "unknown"
				if result.DurationSeconds > 0 {
					duration = formatSeconds(result.DurationSeconds)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"File", "Duration", "Resolution"},
					[][]string{{video.Filename, duration, resolution}},
					[]columnAlignment{alignLeft, alignRight, alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

type probeOutput struct {
	File            string `json:"file"`
	DurationSeconds int    `json:"duration_seconds"`
	Width           int    `json:"width"`
	Height          int    `json:"height"`
}

func newThumbnailCommand(ctx *commandContext) *cobra.Command {
	var at float64
	var width int
	var output string

	cmd := &cobra.Command{
		Use:   "thumbnail <video>",
		Short: "Extract a JPEG thumbnail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			video, source, err := readVideo(args[0])
			if err != nil {
				return err
			}
			target, err := outputPath(output, source, "-thumb.jpg")
			if err != nil {
				return err
			}
			return ctx.withService(cmd, func(runCtx context.Context, service *transcoder.Service) error {
				artifact, err := service.GenerateThumbnail(runCtx, video, at, width)
				if err != nil {
					return err
				}
				return writeArtifact(cmd, target, artifact)
			})
		},
	}

	cmd.Flags().Float64Var(&at, "at", 0, "Seek position in seconds")
	cmd.Flags().IntVar(&width, "width", 320, "Thumbnail width in pixels; height keeps the aspect ratio")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination file (default <video>-thumb.jpg)")
	return cmd
}

func newAudioCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "audio <video>",
		Short: "Extract mono 16 kHz PCM audio as WAV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			video, source, err := readVideo(args[0])
			if err != nil {
				return err
			}
			target, err := outputPath(output, source, ".wav")
			if err != nil {
				return err
			}
			return ctx.withService(cmd, func(runCtx context.Context, service *transcoder.Service) error {
				artifact, err := service.ExtractAudio(runCtx, video)
				if err != nil {
					return err
				}
				return writeArtifact(cmd, target, artifact)
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination file (default <video>.wav)")
	return cmd
}

func newLadderCommand(ctx *commandContext) *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "ladder <video>",
		Short: "Encode the quality ladder renditions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			video, source, err := readVideo(args[0])
			if err != nil {
				return err
			}
			dir := filepath.Dir(source)
			if strings.TrimSpace(outputDir) != "" {
				if dir, err = config.ExpandPath(outputDir); err != nil {
					return fmt.Errorf("resolve output directory: %w", err)
				}
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}
			stem := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))

			out := cmd.OutOrStdout()
			return ctx.withService(cmd, func(runCtx context.Context, service *transcoder.Service) error {
				renditions, err := service.GenerateQualityLadder(runCtx, video, ladder.ProgressFunc(func(index, total int, name string) {
					fmt.Fprintf(out, "[%d/%d] encoding %s\n", index, total, name)
				}))
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(renditions))
				for _, rendition := range renditions {
					target := filepath.Join(dir, stem+"-"+rendition.Tier.Name+".mp4")
					if err := fileutil.WriteFileAtomic(target, rendition.Artifact.Data, 0o644); err != nil {
						return fmt.Errorf("write %s: %w", target, err)
					}
					rows = append(rows, []string{
						rendition.Tier.Name,
						rendition.Tier.Bitrate,
						formatBytes(rendition.Artifact.Size()),
						target,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Tier", "Bitrate", "Size", "File"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory for renditions (default: beside the video)")
	return cmd
}

// readVideo loads a video file into memory and returns it with its absolute path.
func readVideo(arg string) (media.Video, string, error) {
	path, err := config.ExpandPath(strings.TrimSpace(arg))
	if err != nil {
		return media.Video{}, "", fmt.Errorf("resolve video path: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return media.Video{}, "", fmt.Errorf("inspect video %q: %w", path, err)
	}
	if info.IsDir() {
		return media.Video{}, "", fmt.Errorf("video %q is a directory", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return media.Video{}, "", fmt.Errorf("read video: %w", err)
	}
	return media.Video{Filename: filepath.Base(path), Data: data}, path, nil
}

// outputPath returns flag when set, otherwise source with its extension
// replaced by suffix.
func outputPath(flag, source, suffix string) (string, error) {
	if strings.TrimSpace(flag) != "" {
		path, err := config.ExpandPath(flag)
		if err != nil {
			return "", fmt.Errorf("resolve output path: %w", err)
		}
		return path, nil
	}
	return strings.TrimSuffix(source, filepath.Ext(source)) + suffix, nil
}

func writeArtifact(cmd *cobra.Command, target string, artifact media.Artifact) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := fileutil.WriteFileAtomic(target, artifact.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s, %s)\n", target, artifact.MediaType, formatBytes(artifact.Size()))
	return nil
}

func formatSeconds(total int) string {
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

func formatBytes(size int) string {
	const unit = 1024
	if size < unit {
		return strconv.Itoa(size) + " B"
	}
	div, exp := int64(unit), 0
	for n := int64(size) / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}
