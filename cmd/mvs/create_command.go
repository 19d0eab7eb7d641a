package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"mvstories/internal/storyfolder"
)

func newCreateCommand(ctx *commandContext) *cobra.Command {
	var dir string
	var opts storyfolder.ScaffoldOptions

	cmd := &cobra.Command{
		Use:         "create <story-name>",
		Short:       "Create a new story folder from the template",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			parent := dir
			if parent == "" {
				wd, err := os.Getwd()
				if err != nil {
					return err
				}
				parent = wd
			}
			root, err := storyfolder.Scaffold(parent, args[0], opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created story at %s\n", root)
			fmt.Fprintln(out, "Next steps:")
			fmt.Fprintf(out, "  mvs watch %s\n", filepath.Clean(root))
			fmt.Fprintf(out, "  mvs build %s -f html -o %s.html\n", filepath.Clean(root), args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Parent directory (defaults to the current directory)")
	cmd.Flags().StringVar(&opts.Author, "author", "", "Author recorded in story.yaml")
	cmd.Flags().StringVar(&opts.Description, "description", "", "Description recorded in story.yaml")
	return cmd
}
