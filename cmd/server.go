package cmd

import (
	"github.com/spf13/cobra"

	"melodex/server"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the Melodex HTTP server",
	Long:  `Start the Melodex music server, serving the library API and the audio streaming endpoints.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
