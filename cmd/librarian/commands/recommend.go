package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/54b3r/librarian-go/internal/librarian"
	"github.com/54b3r/librarian-go/internal/logging"
)

// NewRecommendCmd constructs the `librarian recommend` command, which runs a
// single recommendation and prints the result.
func NewRecommendCmd() *cobra.Command {
	var (
		dataDir string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "recommend [interests]",
		Short: "Recommend one book for the given interests",
		Long: `Recommend exactly one catalog book for a description of the reader's
interests. The collection is seeded first if it is empty.

Examples:
  librarian recommend "space exploration and first contact"
  librarian recommend --json "friendship and magic"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.FromContext(ctx)

			flush := setupTracing(ctx, log)
			defer flush()

			a, closeApp, err := buildApp(ctx, log, dataDir, true)
			if err != nil {
				return fmt.Errorf("recommend: %w", err)
			}
			defer closeApp()

			if _, err := a.seeder.SeedIfEmpty(ctx); err != nil {
				return err //nolint:wrapcheck // already prefixed by the seed package
			}
			res, err := a.librarian.Recommend(ctx, args[0])
			if err != nil {
				return fmt.Errorf("recommend: %w", err)
			}
			return printResult(cmd.OutOrStdout(), res, asJSON)
		},
	}

	cmd.Flags().StringVar(&dataDir, "data-dir", "", "Directory holding the catalog JSON files (default: embedded catalog)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")

	return cmd
}

// printResult writes res as indented JSON or as plain text.
func printResult(w io.Writer, res *librarian.Result, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res) //nolint:wrapcheck // CLI output
	}

	fmt.Fprintln(w, res.Message)
	if res.ChosenTitle != nil {
		fmt.Fprintf(w, "\nChosen title: %s\n", *res.ChosenTitle)
	} else {
		fmt.Fprintln(w, "\nNo title could be identified.")
	}
	return nil
}
