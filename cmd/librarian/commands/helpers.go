package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/54b3r/librarian-go/internal/catalog"
	"github.com/54b3r/librarian-go/internal/embedder"
	"github.com/54b3r/librarian-go/internal/librarian"
	"github.com/54b3r/librarian-go/internal/provider"
	"github.com/54b3r/librarian-go/internal/rag"
	"github.com/54b3r/librarian-go/internal/seed"
	"github.com/54b3r/librarian-go/internal/server"
	"github.com/54b3r/librarian-go/internal/tracing"
	"github.com/54b3r/librarian-go/internal/version"
)

// app bundles the collaborators shared by serve, seed and recommend.
type app struct {
	catalog    *catalog.Catalog
	embedder   rag.Embedder
	embedModel string
	index      *rag.QdrantIndex
	seeder     *seed.Seeder

	// Set only when built with a chat model.
	providerCfg *provider.Config
	librarian   *librarian.Librarian
}

// buildApp loads the catalog, connects the embedder and Qdrant, and, when
// withChat is set, constructs the chat model and librarian. The returned
// close releases the Qdrant connection.
func buildApp(ctx context.Context, log *slog.Logger, dataDir string, withChat bool) (*app, func(), error) {
	cat, err := loadCatalog(dataDir)
	if err != nil {
		return nil, nil, err
	}
	log.Info("catalog loaded", slog.Int("books", cat.Len()), slog.String("source", catalogSource(dataDir)))

	if err := embedder.ValidateForRAG(log); err != nil {
		return nil, nil, err
	}
	backend := embedder.Backend()
	emb, err := embedder.NewFromEnv(ctx)
	if err != nil {
		return nil, nil, err
	}

	qcfg, err := qdrantConfigFromEnv(backend)
	if err != nil {
		return nil, nil, err
	}
	idx, err := rag.NewQdrantIndex(ctx, qcfg)
	if err != nil {
		return nil, nil, err
	}
	closeIdx := func() {
		if cerr := idx.Close(); cerr != nil {
			log.Warn("qdrant close failed", slog.Any("error", cerr))
		}
	}
	log.Info("qdrant connected",
		slog.String("host", qcfg.Host),
		slog.Int("port", qcfg.Port),
		slog.String("collection", qcfg.Collection),
		slog.Uint64("vector_size", qcfg.VectorSize),
	)

	sd, err := seed.New(cat, emb, idx, seed.Options{MetricsRegistry: prometheus.DefaultRegisterer})
	if err != nil {
		closeIdx()
		return nil, nil, err
	}

	a := &app{
		catalog:    cat,
		embedder:   emb,
		embedModel: embedder.ModelName(backend),
		index:      idx,
		seeder:     sd,
	}
	if !withChat {
		return a, closeIdx, nil
	}

	chat, pcfg, err := provider.NewFromEnv(ctx)
	if err != nil {
		closeIdx()
		return nil, nil, fmt.Errorf("failed to initialise model provider: %w", err)
	}
	log.Info("provider initialised",
		slog.String("provider", string(pcfg.Backend)),
		slog.String("model", pcfg.ModelName()),
	)

	retriever, err := rag.NewRetriever(emb, idx, rag.DefaultTopK)
	if err != nil {
		closeIdx()
		return nil, nil, err
	}
	lib, err := librarian.New(ctx, &librarian.Config{
		ChatModel:       chat,
		Retriever:       retriever,
		Catalog:         cat,
		OmitTemperature: !pcfg.SupportsTemperature(),
		MetricsRegistry: prometheus.DefaultRegisterer,
	})
	if err != nil {
		closeIdx()
		return nil, nil, err
	}
	a.providerCfg = pcfg
	a.librarian = lib
	return a, closeIdx, nil
}

// loadCatalog reads the catalog from dir, LIBRARIAN_DATA_DIR, or the copy
// embedded in the binary, in that order.
func loadCatalog(dir string) (*catalog.Catalog, error) {
	if dir == "" {
		dir = os.Getenv("LIBRARIAN_DATA_DIR")
	}
	if dir == "" {
		return catalog.LoadDefault()
	}
	return catalog.Load(dir)
}

func catalogSource(dir string) string {
	if dir == "" {
		dir = os.Getenv("LIBRARIAN_DATA_DIR")
	}
	if dir == "" {
		return "embedded"
	}
	return dir
}

// qdrantConfigFromEnv reads QDRANT_* and sizes the collection for the
// embedding backend.
func qdrantConfigFromEnv(embedBackend string) (*rag.QdrantConfig, error) {
	cfg := &rag.QdrantConfig{
		Host:       os.Getenv("QDRANT_HOST"),
		Collection: os.Getenv("QDRANT_COLLECTION"),
		APIKey:     os.Getenv("QDRANT_API_KEY"),
		UseTLS:     strings.EqualFold(os.Getenv("QDRANT_TLS"), "true"),
		VectorSize: uint64(embedder.DefaultDimensions(embedBackend)), //nolint:gosec // dimensions are small and positive
	}
	if p := os.Getenv("QDRANT_PORT"); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil || port <= 0 || port > 65535 {
			return nil, fmt.Errorf("invalid QDRANT_PORT %q", p)
		}
		cfg.Port = port
	}
	return cfg, nil
}

// buildPingers returns the readiness probes for serve. The chat backend is
// probed only when the provider exposes a token-free health check.
func buildPingers(a *app, log *slog.Logger) []server.Pinger {
	pingers := []server.Pinger{server.NewQdrantPinger(a.index.Client())}
	if hc := provider.NewHealthCheck(a.providerCfg, nil); hc != nil {
		pingers = append(pingers, server.NewLLMPinger(hc, string(a.providerCfg.Backend)))
	} else {
		log.Info("readiness: chat backend has no health probe", slog.String("provider", string(a.providerCfg.Backend)))
	}
	return pingers
}

// setupTracing enables Langfuse and OTLP export when configured. The
// returned func flushes both and must run before exit.
func setupTracing(ctx context.Context, log *slog.Logger) func() {
	flush, ok := tracing.SetupLangfuse(version.Version)
	if ok {
		log.Info("langfuse tracing enabled")
	} else {
		log.Info("langfuse tracing disabled", slog.String("reason", "LANGFUSE_PUBLIC_KEY not set"))
	}

	otelCfg := tracing.OTelConfigFromEnv(version.Version)
	shutdown, err := tracing.SetupOTel(ctx, otelCfg)
	if err != nil {
		log.Warn("otel tracing disabled", slog.Any("error", err))
		shutdown = func(context.Context) error { return nil }
	} else if otelCfg.Endpoint != "" {
		log.Info("otel tracing enabled", slog.String("endpoint", otelCfg.Endpoint))
	}

	return func() {
		flush()
		if err := shutdown(context.WithoutCancel(ctx)); err != nil {
			log.Warn("otel shutdown failed", slog.Any("error", err))
		}
	}
}
