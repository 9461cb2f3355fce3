// Command muton runs mutation-testing campaigns against FunC, Tact, and
// Tolk smart-contract sources: loading targets, generating mutants,
// scheduling test runs against them, and reporting which mutants survived.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "muton",
		Short:   "Mutation testing for FunC, Tact, and Tolk contracts",
		Long:    "muton generates source-level mutants of TON smart-contract code and runs your test suite against each one, reporting which mutations your tests fail to catch.",
		Version: version,
	}
	registerGlobalFlags(rootCmd)

	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(mutateCmd())
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(testCmd())
	rootCmd.AddCommand(cleanCmd())
	rootCmd.AddCommand(purgeCmd())
	rootCmd.AddCommand(printCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
