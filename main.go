package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	basePath string
	debug    bool
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "form_guard",
		Short:         "Disable site forms on non-production hosts",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	root.PersistentFlags().StringVar(&basePath, "prefix", "", "Config file base path")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	root.AddCommand(
		newServeCommand(),
		newCheckUpdateCommand(),
		newUpdateServerCommand(),
		newVersionCommand(),
	)
	return root
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
