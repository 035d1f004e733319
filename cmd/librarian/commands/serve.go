package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/54b3r/librarian-go/internal/logging"
	"github.com/54b3r/librarian-go/internal/server"
)

// NewServeCmd constructs the `librarian serve` command, which starts the
// HTTP API.
func NewServeCmd() *cobra.Command {
	var (
		host    string
		port    int
		dataDir string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Smart Librarian HTTP API",
		Long: `Start the Smart Librarian HTTP API.

Endpoints: POST /api/recommend, GET /api/seed, GET /api/health,
GET /api/ready, GET /api/debug and GET /metrics. The Qdrant collection is
seeded from the catalog on the first request that needs it.

Examples:
  librarian serve
  librarian serve --port 9000 --data-dir ./data
  MODEL_PROVIDER=ollama librarian serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			log := logging.FromContext(ctx)

			if !cmd.Flags().Changed("host") {
				if v := os.Getenv("LIBRARIAN_HOST"); v != "" {
					host = v
				}
			}
			if !cmd.Flags().Changed("port") {
				if v := os.Getenv("LIBRARIAN_PORT"); v != "" {
					p, err := strconv.Atoi(v)
					if err != nil {
						return fmt.Errorf("serve: invalid LIBRARIAN_PORT %q", v)
					}
					port = p
				}
			}

			flush := setupTracing(ctx, log)
			defer flush()

			a, closeApp, err := buildApp(ctx, log, dataDir, true)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer closeApp()

			srv, err := server.New(server.Deps{
				Recommender: a.librarian,
				Seeder:      a.seeder,
				Index:       a.index,
				Catalog:     a.catalog,
			}, &server.Config{
				Host:    host,
				Port:    port,
				Logger:  log,
				Pingers: buildPingers(a, log),
				Debug: server.DebugInfo{
					HasKey:     a.providerCfg.HasCredential(),
					ChatModel:  a.providerCfg.ModelName(),
					EmbedModel: a.embedModel,
				},
			})
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			log.Info("serve starting", slog.String("provider", string(a.providerCfg.Backend)))
			return srv.Start(ctx) //nolint:wrapcheck // server errors are already prefixed
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Host address to bind to (env: LIBRARIAN_HOST)")
	cmd.Flags().IntVarP(&port, "port", "p", 8000, "TCP port to listen on (env: LIBRARIAN_PORT)")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "Directory holding the catalog JSON files (default: embedded catalog)")

	return cmd
}
