package cmd

import (
	"mantrafm/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the MantraFM HTTP server",
	Long:  `Runs the MantraFM API server: mantra management, song generation and playlists.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
