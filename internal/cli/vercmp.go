package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/srcforge/pkgparse/internal/models"
	"github.com/srcforge/pkgparse/internal/vercmp"
)

// NewVercmpCmd creates the vercmp command
func NewVercmpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vercmp <version-a> <version-b>",
		Short: "Compare two package versions",
		Long: `Compares two full versions of the form [epoch:]version[-release] and
prints -1, 0 or 1 as the first sorts lower than, equal to, or higher
than the second.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := models.ParseVersion(args[0])
			if err != nil {
				return err
			}
			b, err := models.ParseVersion(args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), vercmp.Compare(a, b))
			return nil
		},
	}
}
