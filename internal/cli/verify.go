package cli

import (
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/srcforge/pkgparse/internal/integ"
	"github.com/srcforge/pkgparse/internal/parser"
)

// NewVerifyCmd creates the verify command
func NewVerifyCmd() *cobra.Command {
	var sourceDir string

	cmd := &cobra.Command{
		Use:   "verify <recipe>...",
		Short: "Verify downloaded sources against a recipe's checksums",
		Long: `Evaluates each recipe and checks its source files, looked up next to
the recipe (or under --source-dir), against every checksum array it
declares. SKIP entries are not verified.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parser.New()
			if err != nil {
				return err
			}
			defer p.Close()

			failed := 0
			for _, path := range args {
				recipe, err := p.ParseOne(cmd.Context(), path)
				if err != nil {
					return fmt.Errorf("failed to parse %s: %w", path, err)
				}

				dir := sourceDir
				if dir == "" {
					dir = filepath.Dir(path)
				}
				mismatches, err := integ.VerifySources(recipe, dir)
				if err != nil {
					return fmt.Errorf("failed to verify %s: %w", path, err)
				}
				for _, arch := range recipe.Arch {
					archMismatches, err := integ.VerifyArchSources(recipe, arch, dir)
					if err != nil {
						return fmt.Errorf("failed to verify %s: %w", path, err)
					}
					mismatches = append(mismatches, archMismatches...)
				}

				if len(mismatches) == 0 {
					logrus.Infof("%s: all checksums match", recipe.Base)
					continue
				}
				failed++
				for _, mismatch := range mismatches {
					logrus.Errorf("%s: %s", recipe.Base, mismatch)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d recipes failed verification", failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&sourceDir, "source-dir", "s", "", "Directory holding the source files (defaults to the recipe's directory)")

	return cmd
}
