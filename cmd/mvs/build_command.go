package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"mvstories/internal/api"
	"mvstories/internal/bundle"
	"mvstories/internal/mvs"
)

var buildFormats = []string{"json", "mvsj", "mvsx", "mvstory", "html", "selfhosted"}

type buildRequest struct {
	Format string
	Title  string
	Mode   string
}

type artifact struct {
	Label  string
	Data   []byte
	Binary bool
}

func newBuildCommand(ctx *commandContext) *cobra.Command {
	var output string
	var req buildRequest

	cmd := &cobra.Command{
		Use:   "build <folder|story.json|story.mvstory>",
		Short: "Build a story into MVS data, a container, or a playback page",
		Long: "Build compiles every scene and writes the result. Without --format the\n" +
			"compiled MVS state is written: MVSX when the story has assets, MVSJ otherwise.\n" +
			"Binary output written to stdout is base64 encoded behind a FORMAT_BASE64: prefix.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.toolchain()
			if err != nil {
				return err
			}
			if req.Format == "" {
				req.Format = formatFromExtension(output)
			}
			st, err := loadStory(cmd.Context(), args[0], svc.Codec)
			if err != nil {
				return err
			}
			mgr := api.NewFromStory(st, svc.ManagerOptions()...)
			art, err := buildArtifact(cmd.Context(), mgr, req)
			if err != nil {
				return fmt.Errorf("build story: %w", err)
			}
			if err := writeOutput(cmd.OutOrStdout(), output, art.Label, art.Data, art.Binary); err != nil {
				return err
			}
			if output != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s file saved to %s (%d bytes)\n", art.Label, output, len(art.Data))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (defaults to stdout)")
	cmd.Flags().StringVarP(&req.Format, "format", "f", "", "Output format: "+strings.Join(buildFormats, ", "))
	cmd.Flags().StringVar(&req.Title, "title", "", "Page title for html output (defaults to the story title)")
	cmd.Flags().StringVar(&req.Mode, "mode", "embed", "Data embedding for html output: embed or container")
	return cmd
}

// formatFromExtension infers the build format from the output file name.
func formatFromExtension(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mvsj":
		return "mvsj"
	case ".mvsx":
		return "mvsx"
	case ".mvstory":
		return "mvstory"
	case ".html", ".htm":
		return "html"
	case ".zip":
		return "selfhosted"
	}
	return ""
}

func buildArtifact(ctx context.Context, mgr *api.Manager, req buildRequest) (artifact, error) {
	format := strings.ToLower(strings.TrimSpace(req.Format))
	switch format {
	case "json":
		data, err := mgr.ToText()
		return artifact{Label: "JSON", Data: data}, err
	case "mvstory":
		data, err := mgr.ToContainer(ctx)
		return artifact{Label: "MVStory", Data: data, Binary: true}, err
	case "html":
		mode, err := bundle.ParseMode(req.Mode)
		if err != nil {
			return artifact{}, err
		}
		data, err := mgr.ToPlaybackDocument(ctx, api.PlaybackOptions{Title: req.Title, Mode: mode})
		return artifact{Label: "HTML", Data: data}, err
	case "selfhosted":
		var buf bytes.Buffer
		if err := mgr.ToSelfHostedZip(ctx, &buf); err != nil {
			return artifact{}, err
		}
		return artifact{Label: "ZIP", Data: buf.Bytes(), Binary: true}, nil
	case "", "mvsj", "mvsx":
		state, err := mgr.ToCompiledState(ctx)
		if err != nil {
			return artifact{}, err
		}
		if format != "mvsj" && state.Format() == mvs.FormatMVSX {
			return artifact{Label: "MVSX", Data: state.Archive, Binary: true}, nil
		}
		data, err := json.MarshalIndent(state.Data, "", "  ")
		return artifact{Label: "MVSJ", Data: data}, err
	}
	return artifact{}, fmt.Errorf("unknown format %q (supported: %s)", req.Format, strings.Join(buildFormats, ", "))
}
