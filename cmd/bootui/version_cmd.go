package main

import (
	"fmt"

	"github.com/phrazzld/bootui/internal/helper"
	"github.com/phrazzld/bootui/internal/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the boot UI version this build installs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "bootui version %s\nhelper protocol %d\n",
			version.Current(), helper.ProtocolVersion)
		return err
	},
}
