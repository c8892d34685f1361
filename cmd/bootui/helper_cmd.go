package main

import (
	"github.com/phrazzld/bootui/internal/helper"
	"github.com/spf13/cobra"
)

var helperCmd = &cobra.Command{
	Use:   "helper",
	Short: "Run the privileged helper daemon",
	Long: `Run the privileged helper daemon.

The helper owns the boot UI files and performs installs and removals on
behalf of the worker. Every request except /health must carry a bearer token
signed with helper.secret.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := newApplication(configPath)
		if err != nil {
			return err
		}

		installer := helper.NewDirInstaller(app.config.Helper.InstallDir)
		srv := helper.NewServer(installer, app.jwtService, app.logger)

		return runHTTPServer(cmd.Context(), "helper", app.config.Helper.Addr, srv.Routes(), app.logger)
	},
}
