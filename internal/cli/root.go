// Package cli implements ghostctl, the operator tool for inspecting chunking,
// diffs, ingestion and retrieval outside the server.
package cli

import (
	"io"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "ghostctl",
	Short:         "Operate the ghostwriter retrieval pipeline",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func Execute() error {
	return rootCmd.Execute()
}

// readInput reads a file argument, or stdin when the argument is "-".
func readInput(cmd *cobra.Command, name string) (string, error) {
	if name == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		return string(data), err
	}
	data, err := os.ReadFile(name)
	return string(data), err
}
