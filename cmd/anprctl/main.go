// Command anprctl checks datasets, renders zoom windows and summarizes
// ledgers without starting the validator UI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"anpr-validator/internal/cli"
	"anpr-validator/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "anprctl",
		Short:   "anprctl - command line companion to the ANPR Validator",
		Version: version.String(),
		Long: `anprctl works on the same files as the ANPR Validator: recognizer
exports, capture folders and validation ledgers.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(cli.CheckCmd())
	rootCmd.AddCommand(cli.ZoomCmd())
	rootCmd.AddCommand(cli.LedgerCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
