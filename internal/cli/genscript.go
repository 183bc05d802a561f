package cli

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/srcforge/pkgparse/internal/script"
)

// NewGenScriptCmd creates the genscript command
func NewGenScriptCmd() *cobra.Command {
	var (
		output         string
		makepkgLibrary string
		makepkgConfig  string
		algos          []string
		noSources      bool
		noPkgverFunc   bool
	)

	cmd := &cobra.Command{
		Use:   "genscript",
		Short: "Assemble the evaluation script",
		Long: `Assembles the bash evaluation script for the given configuration and
writes it to stdout or a file. The same configuration always produces a
byte-identical script, so the output can be cached and reused with
parse --script.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := script.DefaultConfig()
			if makepkgLibrary != "" {
				cfg.MakepkgLibrary = makepkgLibrary
			}
			if makepkgConfig != "" {
				cfg.MakepkgConfig = makepkgConfig
			}
			if cmd.Flags().Changed("checksums") {
				cfg.Algos = algos
			}
			if noSources {
				cfg.Sources = false
				cfg.Algos = nil
			}
			cfg.PkgverFunc = !noPkgverFunc

			if output == "" {
				content, err := cfg.Generate()
				if err != nil {
					return err
				}
				_, err = os.Stdout.Write(content)
				return err
			}
			if _, err := script.Build(cfg, output); err != nil {
				return err
			}
			logrus.Infof("Wrote evaluation script to %s", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the script to a file instead of stdout")
	cmd.Flags().StringVar(&makepkgLibrary, "makepkg-library", "", "Path to the makepkg support library")
	cmd.Flags().StringVar(&makepkgConfig, "makepkg-config", "", "Path to the makepkg configuration file")
	cmd.Flags().StringSliceVar(&algos, "checksums", script.ChecksumAlgos(), "Checksum categories to emit")
	cmd.Flags().BoolVar(&noSources, "no-sources", false, "Skip the source and checksum arrays")
	cmd.Flags().BoolVar(&noPkgverFunc, "no-pkgver-func", false, "Skip the pkgver() function probe")

	return cmd
}
