package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mvstories/internal/library"
	"mvstories/internal/story"
)

func newLibraryCommand(ctx *commandContext) *cobra.Command {
	libraryCmd := &cobra.Command{
		Use:     "library",
		Aliases: []string{"lib"},
		Short:   "Manage saved sessions and published stories",
	}

	libraryCmd.AddCommand(newLibraryListCommand(ctx))
	libraryCmd.AddCommand(newLibraryImportCommand(ctx))
	libraryCmd.AddCommand(newLibraryExportCommand(ctx))
	libraryCmd.AddCommand(newLibraryDeleteCommand(ctx))
	libraryCmd.AddCommand(newLibraryStatsCommand(ctx))

	return libraryCmd
}

func newLibraryListCommand(ctx *commandContext) *cobra.Command {
	var kind string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List library items",
		RunE: func(cmd *cobra.Command, args []string) error {
			k := library.Kind(strings.ToLower(strings.TrimSpace(kind)))
			if k != "" && k != library.KindSession && k != library.KindStory {
				return fmt.Errorf("invalid --kind %q (want session or story)", kind)
			}
			return ctx.withLibrary(func(store *library.Store) error {
				items, err := store.List(cmd.Context(), k)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, items)
				}
				out := cmd.OutOrStdout()
				if len(items) == 0 {
					fmt.Fprintln(out, "Library is empty")
					return nil
				}
				rows := make([][]string, 0, len(items))
				for _, item := range items {
					rows = append(rows, []string{
						item.ID,
						string(item.Kind),
						item.Title,
						string(item.Format),
						fmt.Sprintf("v%d", item.Version),
						humanBytes(item.Size),
						item.UpdatedAt.Local().Format("2006-01-02 15:04"),
					})
				}
				fmt.Fprint(out, renderTable(
					[]string{"ID", "Kind", "Title", "Format", "Version", "Size", "Updated"},
					rows,
					4, 5,
				))
				fmt.Fprintln(out)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "Only list session or story items")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print items as JSON")
	return cmd
}

func newLibraryImportCommand(ctx *commandContext) *cobra.Command {
	var publish bool
	var title string
	var description string
	var tags string
	var creator string

	cmd := &cobra.Command{
		Use:   "import <folder|story.json|story.mvstory>",
		Short: "Save a story as a session, or publish it with --publish",
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

			in := library.NewItem{
				Kind:        library.KindSession,
				Title:       importTitle(title, st),
				Description: strings.TrimSpace(description),
				Tags:        splitTagList(tags),
				Creator:     strings.TrimSpace(creator),
				Format:      library.FormatMVStory,
			}
			if publish {
				state, err := svc.Compiler.CompileStory(cmd.Context(), st)
				if err != nil {
					return fmt.Errorf("publish story: %w", err)
				}
				in.Kind = library.KindStory
				in.Format = library.Format(state.Format())
				if in.Data, err = state.Bytes(); err != nil {
					return err
				}
			} else if in.Data, err = svc.Codec.Pack(cmd.Context(), st); err != nil {
				return err
			}

			return ctx.withLibrary(func(store *library.Store) error {
				item, err := store.Create(cmd.Context(), in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %s %s (%s, %s)\n", item.Kind, item.ID, item.Format, humanBytes(item.Size))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&publish, "publish", false, "Compile and store as a published story")
	cmd.Flags().StringVar(&title, "title", "", "Item title (defaults to the story title)")
	cmd.Flags().StringVar(&description, "description", "", "Item description")
	cmd.Flags().StringVar(&tags, "tags", "", "Comma separated tags")
	cmd.Flags().StringVar(&creator, "creator", "", "Creator name")
	return cmd
}

func newLibraryExportCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Write the payload of a library item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLibrary(func(store *library.Store) error {
				item, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if item == nil {
					return fmt.Errorf("library item %s not found", args[0])
				}
				data, err := store.Payload(cmd.Context(), item.ID)
				if err != nil {
					return err
				}
				binary := item.Format != library.FormatMVSJ
				if err := writeOutput(cmd.OutOrStdout(), output, strings.ToUpper(string(item.Format)), data, binary); err != nil {
					return err
				}
				if output != "" {
					fmt.Fprintf(cmd.ErrOrStderr(), "Exported %s to %s (%d bytes)\n", item.ID, output, len(data))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (defaults to stdout)")
	return cmd
}

func newLibraryDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a library item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLibrary(func(store *library.Store) error {
				removed, err := store.Delete(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !removed {
					return fmt.Errorf("library item %s not found", args[0])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
				return nil
			})
		},
	}
}

func newLibraryStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize library usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLibrary(func(store *library.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Sessions: %d\n", stats.Sessions)
				fmt.Fprintf(out, "Stories:  %d\n", stats.Stories)
				fmt.Fprintf(out, "Size:     %s\n", humanBytes(stats.TotalBytes))
				fmt.Fprintf(out, "Path:     %s\n", store.Path())
				return nil
			})
		},
	}
}

func importTitle(title string, st story.Story) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	if t := strings.TrimSpace(st.Metadata.Title()); t != "" {
		return t
	}
	return story.DefaultStoryTitle
}

func splitTagList(raw string) []string {
	var tags []string
	for _, part := range strings.Split(raw, ",") {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
