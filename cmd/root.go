package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"melodex/server"
)

var rootCmd = &cobra.Command{
	Use:   "melodex",
	Short: "Melodex is a self-hosted music library and streaming server.",
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
