package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mvstories/internal/devserver"
	"mvstories/internal/logging"
	"mvstories/internal/services"
	"mvstories/internal/storyfolder"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var port int
	var host string
	var directServe bool

	cmd := &cobra.Command{
		Use:   "watch <folder|template>",
		Short: "Preview a story folder and rebuild it on every change",
		Long: "Watch serves a live preview of a story folder. Saving any file rebuilds the\n" +
			"story and reloads connected browsers. Pass \"template\" to preview a fresh\n" +
			"scaffold in a temporary folder that is removed on exit.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.serviceLogger()
			if err != nil {
				return err
			}

			dir := args[0]
			if dir == "template" {
				if _, statErr := os.Stat(dir); statErr != nil {
					tmp, err := os.MkdirTemp("", "mvs-template-")
					if err != nil {
						return fmt.Errorf("create template directory: %w", err)
					}
					defer os.RemoveAll(tmp)
					dir, err = storyfolder.Scaffold(tmp, "template-story", storyfolder.ScaffoldOptions{})
					if err != nil {
						return err
					}
				}
			}

			if !cmd.Flags().Changed("port") {
				port = cfg.Watch.Port
			}
			if !cmd.Flags().Changed("direct") {
				directServe = cfg.Watch.DirectServe
			}
			srv := &devserver.Server{
				Dir:         dir,
				Host:        host,
				Port:        port,
				Debounce:    cfg.WatchDebounce(),
				DirectServe: directServe,
				Services:    services.New(cfg, logger),
				Logger:      logger,
			}
			if err := srv.Start(cmd.Context()); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Watching %s\n", dir)
			fmt.Fprintf(out, "Preview at http://%s/\n", srv.Addr())
			status := srv.Status()
			if status.OK {
				fmt.Fprintf(out, "Built %q: %d scenes in %s\n", status.Title, status.Scenes, status.Elapsed)
			} else {
				fmt.Fprintf(out, "Initial build failed: %s\n", status.Error)
			}
			fmt.Fprintln(out, "Press Ctrl+C to stop")

			<-cmd.Context().Done()
			logger.Info("preview stopping", logging.String("dir", dir))
			return srv.Close()
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Preview port (defaults to watch.port)")
	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Address to bind")
	cmd.Flags().BoolVar(&directServe, "direct", false, "Redirect to the hosted viewer instead of a local page")
	return cmd
}
