package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"mvstories/internal/story"
)

type storySummary struct {
	Title    string         `json:"title"`
	Metadata map[string]any `json:"metadata"`
	Global   int            `json:"global_script_lines"`
	Scenes   []sceneSummary `json:"scenes"`
	Assets   []assetSummary `json:"assets"`
}

type sceneSummary struct {
	ID           string `json:"id"`
	Header       string `json:"header"`
	Key          string `json:"key,omitempty"`
	Camera       string `json:"camera,omitempty"`
	LingerMs     int    `json:"linger_duration_ms"`
	TransitionMs int    `json:"transition_duration_ms"`
	ScriptLines  int    `json:"script_lines"`
}

type assetSummary struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

func newInspectCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "inspect <folder|story.json|story.mvstory>",
		Short: "Show the scenes and assets of a story",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.toolchain()
			if err != nil {
				return err
			}
			st, err := loadStory(cmd.Context(), args[0], svc.Codec)
			if err != nil {
				return err
			}
			summary := summarize(st)
			if asJSON {
				return writeJSON(cmd, summary)
			}
			fmt.Fprint(cmd.OutOrStdout(), renderSummary(summary, shouldColorize(cmd.OutOrStdout())))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the summary as JSON")
	return cmd
}

func summarize(st story.Story) storySummary {
	out := storySummary{
		Title:    st.Metadata.Title(),
		Metadata: map[string]any(st.Metadata),
		Global:   lineCount(st.JavaScript),
		Scenes:   make([]sceneSummary, 0, len(st.Scenes)),
		Assets:   make([]assetSummary, 0, len(st.Assets)),
	}
	for _, scene := range st.Scenes {
		s := sceneSummary{
			ID:           scene.ID,
			Header:       scene.Header,
			Key:          scene.Key,
			LingerMs:     scene.LingerDurationMs,
			TransitionMs: scene.TransitionDurationMs,
			ScriptLines:  lineCount(scene.JavaScript),
		}
		if scene.Camera != nil {
			s.Camera = fmt.Sprintf("%s fov %s", orDefault(scene.Camera.Mode, "perspective"), strconv.FormatFloat(scene.Camera.FOV, 'g', 4, 64))
		}
		out.Scenes = append(out.Scenes, s)
	}
	for _, asset := range st.Assets {
		out.Assets = append(out.Assets, assetSummary{Name: asset.Name, Size: len(asset.Content)})
	}
	return out
}

func renderSummary(s storySummary, colorize bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", heading(orDefault(s.Title, "Untitled"), colorize))

	keys := make([]string, 0, len(s.Metadata))
	for k := range s.Metadata {
		if k != "title" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "  %s %v\n", dim(k+":", colorize), s.Metadata[k])
	}
	fmt.Fprintf(&b, "  %s %d lines\n\n", dim("global script:", colorize), s.Global)

	rows := make([][]string, 0, len(s.Scenes))
	for i, scene := range s.Scenes {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			scene.ID,
			scene.Header,
			scene.Key,
			orDefault(scene.Camera, "-"),
			strconv.Itoa(scene.LingerMs),
			strconv.Itoa(scene.TransitionMs),
			strconv.Itoa(scene.ScriptLines),
		})
	}
	b.WriteString(renderTable(
		[]string{"#", "ID", "Header", "Key", "Camera", "Linger ms", "Transition ms", "Script lines"},
		rows,
		0, 5, 6, 7,
	))
	b.WriteString("\n")

	if len(s.Assets) == 0 {
		b.WriteString("No assets\n")
		return b.String()
	}
	assetRows := make([][]string, 0, len(s.Assets))
	for _, asset := range s.Assets {
		assetRows = append(assetRows, []string{asset.Name, humanBytes(int64(asset.Size))})
	}
	b.WriteString(renderTable([]string{"Asset", "Size"}, assetRows, 1))
	b.WriteString("\n")
	return b.String()
}

func lineCount(src string) int {
	src = strings.TrimRight(src, "\n")
	if strings.TrimSpace(src) == "" {
		return 0
	}
	return strings.Count(src, "\n") + 1
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
