package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pkgparse",
		Short: "Extract metadata from PKGBUILD build recipes",
		Long: `Pkgparse evaluates PKGBUILD files through a bash evaluator process
and decodes the resulting metadata: package names, versions, dependencies,
sources and checksums, including split packages and per-architecture values.

Recipes can be given as files, as directories to scan recursively, or as
snapshot archives (.tar, .tar.gz, .tar.xz, .tar.zst).`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Setup logging
			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			} else {
				logrus.SetLevel(logrus.InfoLevel)
			}
		},
	}

	// Global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	rootCmd.AddCommand(NewParseCmd())
	rootCmd.AddCommand(NewVerifyCmd())
	rootCmd.AddCommand(NewVercmpCmd())
	rootCmd.AddCommand(NewGenScriptCmd())

	return rootCmd
}
