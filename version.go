package main

import (
	"fmt"
	"form_guard/internal/dataType"

	"github.com/spf13/cobra"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", dataType.PluginName, dataType.FormGuardVersion)
		},
	}
}
