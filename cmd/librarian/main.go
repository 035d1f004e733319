// Command librarian is the Smart Librarian book recommender. It serves the
// recommendation HTTP API and offers one-shot seed and recommend commands.
package main

import (
	"fmt"
	"os"

	"github.com/54b3r/librarian-go/cmd/librarian/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
