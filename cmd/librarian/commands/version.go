package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/54b3r/librarian-go/internal/version"
)

// NewVersionCmd constructs the `librarian version` subcommand.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the librarian version, git commit, and build date",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
