package cmd

import (
	"fmt"
	"log"
	"os"

	"mantrafm/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mantrafm",
	Short: "MantraFM turns personal mantras into songs.",
	Run: func(cmd *cobra.Command, args []string) {
		log.Println("Starting MantraFM server...")
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
