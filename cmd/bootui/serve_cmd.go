package main

import (
	"github.com/phrazzld/bootui/internal/api"
	"github.com/spf13/cobra"
)

var serveNoAuth bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the worker and its status API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := newApplication(configPath)
		if err != nil {
			return err
		}

		w := app.newWorker()
		w.Run()
		defer w.Stop()

		jwtService := app.jwtService
		if serveNoAuth {
			app.logger.Warn("status API authentication disabled")
			jwtService = nil
		}
		router := api.NewRouter(w, jwtService, app.logger)

		return runHTTPServer(cmd.Context(), "status", app.config.Server.Address(), router, app.logger)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveNoAuth, "no-auth", false, "serve /api without bearer token checks")
}
