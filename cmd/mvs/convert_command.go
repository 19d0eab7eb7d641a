package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"mvstories/internal/api"
	"mvstories/internal/storyfolder"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "convert <input> -o <output>",
		Short: "Convert a story between folder, JSON, and MVStory forms",
		Long: "Convert reads a story folder, a .json story, or a .mvstory container and\n" +
			"writes it in the form named by the output: .json, .mvstory, or a new folder\n" +
			"when the output has no extension.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(output) == "" {
				return fmt.Errorf("--output is required")
			}
			svc, err := ctx.toolchain()
			if err != nil {
				return err
			}
			st, err := loadStory(cmd.Context(), args[0], svc.Codec)
			if err != nil {
				return err
			}
			mgr := api.NewFromStory(st, svc.ManagerOptions()...)

			var label string
			var data []byte
			switch ext := strings.ToLower(filepath.Ext(output)); ext {
			case ".json":
				label = "JSON"
				data, err = mgr.ToText()
			case ".mvstory":
				label = "MVStory"
				data, err = mgr.ToContainer(cmd.Context())
			case "":
				if err := storyfolder.Write(output, mgr.Snapshot()); err != nil {
					return fmt.Errorf("write story folder: %w", err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Story folder written to %s (%d scenes)\n", output, len(st.Scenes))
				return nil
			default:
				return fmt.Errorf("unsupported output extension %q (want .json, .mvstory, or a folder)", ext)
			}
			if err != nil {
				return fmt.Errorf("convert story: %w", err)
			}
			if err := writeOutput(cmd.OutOrStdout(), output, label, data, false); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%s file saved to %s (%d bytes)\n", label, output, len(data))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path: .json, .mvstory, or a folder")
	return cmd
}
