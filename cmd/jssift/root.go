package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/nao1215/jssift/internal/log"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for jssift.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jssift",
		Short: "Extract interesting string literals from the JavaScript of a web page",
		Long: `jssift fetches a web page, downloads every external script it references
and writes the string literals found in reachable code (endpoints, URLs,
keys, messages) to one text file per script.

Runs are recorded in a local history database so that two runs against the
same page can be compared.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs to stderr as JSON")

	cmd.AddCommand(NewSiftCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getVerboseFlag reads the persistent verbose flag.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// newLogger builds the secret-masking logger selected by the persistent
// flags. Logs go to stderr so that stdout carries only results.
func newLogger(cmd *cobra.Command, verbose bool) *slog.Logger {
	asJSON, err := cmd.Flags().GetBool("log-json")
	if err != nil {
		asJSON = false
	}
	if asJSON {
		return log.NewSecureJSONLogger(cmd.ErrOrStderr(), verbose)
	}
	return log.NewSecureLogger(cmd.ErrOrStderr(), verbose)
}
