package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	GitCommit = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "lspclient-demo",
		Short: "Drive an LSP client runtime against a language server",
		Long: `lspclient-demo is a thin host harness around the lspclient library:
it spawns a language server over stdio, runs the connection through its full
lifecycle, and prints a trace of what happened.`,
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(traceCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
