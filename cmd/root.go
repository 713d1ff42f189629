// Package cmd implements the command-line entrypoint wiring batch-wide
// flags into a cljob.Run invocation.
package cmd

import (
	"log"

	"github.com/spf13/cobra"
)

// Execute runs the command using program args and exits on failure.
func Execute() {
	if err := rootCmd().Execute(); err != nil {
		log.Fatal(err)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cljob",
		Short: "Fan-out executor for administrative tasks across a fleet of hosts",
	}
	cmd.AddCommand(runCmd())
	return cmd
}
