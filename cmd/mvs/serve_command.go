package main

import (
	"github.com/spf13/cobra"

	"mvstories/internal/library"
	"mvstories/internal/logging"
	"mvstories/internal/server"
	"mvstories/internal/services"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the session and story library API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("bind") {
				cfg.Paths.APIBind = bind
			}
			logger, err := ctx.serviceLogger()
			if err != nil {
				return err
			}
			store, err := library.Open(cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			srv, err := server.New(cfg, store,
				server.WithServices(services.New(cfg, logger)),
				server.WithLogger(logger),
			)
			if err != nil {
				return err
			}
			logger.Info("library api starting",
				logging.String("bind", cfg.Paths.APIBind),
				logging.String("library", store.Path()),
				logging.Bool("auth", cfg.Paths.APIToken != ""),
			)
			return srv.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (defaults to paths.api_bind)")
	return cmd
}
