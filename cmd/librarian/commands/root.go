// Package commands defines all Cobra CLI commands for the librarian binary.
package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/54b3r/librarian-go/internal/audit"
	"github.com/54b3r/librarian-go/internal/config"
	"github.com/54b3r/librarian-go/internal/logging"
)

// rootFlags holds the persistent flag values shared by every subcommand.
type rootFlags struct {
	configPath string
	envFile    string
	logLevel   string
	logFormat  string
}

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	var flags rootFlags

	root := &cobra.Command{
		Use:   "librarian",
		Short: "Smart Librarian: RAG book recommendations powered by LLMs",
		Long: `Smart Librarian recommends exactly one book from a curated catalog.

It embeds the catalog into a Qdrant collection, retrieves the closest
candidates for a reader's interests, and lets a tool-calling chat model
choose one and present its full summary.

Configuration is read from .env, a YAML file (~/.librarian/config.yaml)
and environment variables, with environment variables taking precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			boot := logging.NewWithOptions(logging.Options{Level: flags.logLevel, Format: flags.logFormat})

			dotEnv, err := config.LoadDotEnv(flags.envFile, boot)
			if err != nil {
				return err
			}
			loaded, err := config.Load(flags.configPath, boot)
			if err != nil {
				return err
			}

			// LOG_* may have arrived through .env or YAML.
			log := logging.NewWithOptions(logging.Options{Level: flags.logLevel, Format: flags.logFormat})
			slog.SetDefault(log)
			ctx := logging.WithLogger(cmd.Context(), log)
			cmd.SetContext(ctx)

			audit.LogCommandStart(ctx, log, cmd.Name(), audit.Source{ConfigPath: loaded, DotEnv: dotEnv})
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "Path to YAML config file (default: ~/.librarian/config.yaml)")
	pf.StringVar(&flags.envFile, "env-file", ".env", "Path to a .env file; real environment variables always win")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error (default: $LOG_LEVEL or info)")
	pf.StringVar(&flags.logFormat, "log-format", "", "Log format: json or text (default: $LOG_FORMAT or json)")

	root.AddCommand(
		NewServeCmd(),
		NewSeedCmd(),
		NewRecommendCmd(),
		NewVersionCmd(),
	)

	return root
}
