package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/54b3r/librarian-go/internal/logging"
)

// NewSeedCmd constructs the `librarian seed` command, which populates the
// Qdrant collection from the catalog if it is empty.
func NewSeedCmd() *cobra.Command {
	var dataDir string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Embed the catalog into Qdrant if the collection is empty",
		Long: `Embed every catalog book and write it to the Qdrant collection.

Seeding is skipped when the collection already holds documents; the
command then reports the existing count.

Examples:
  librarian seed
  librarian seed --data-dir ./data`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			log := logging.FromContext(ctx)

			a, closeApp, err := buildApp(ctx, log, dataDir, false)
			if err != nil {
				return fmt.Errorf("seed: %w", err)
			}
			defer closeApp()

			n, err := a.seeder.SeedIfEmpty(ctx)
			if err != nil {
				return err //nolint:wrapcheck // already prefixed by the seed package
			}
			fmt.Fprintf(cmd.OutOrStdout(), "collection holds %d documents\n", n)
			return nil
		},
	}

	cmd.Flags().StringVar(&dataDir, "data-dir", "", "Directory holding the catalog JSON files (default: embedded catalog)")

	return cmd
}
