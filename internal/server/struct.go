package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/54b3r/librarian-go/internal/catalog"
	"github.com/54b3r/librarian-go/internal/librarian"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1).
	Host string
	// Port is the TCP port to listen on (default: 8000).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response. A
	// recommendation spans two model round-trips, so keep this generous.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// Logger is the structured logger used by the server and its handlers.
	// If nil, [logging.New] is used.
	Logger *slog.Logger
	// Pingers is the ordered list of dependency probes run by GET /api/ready.
	// If empty, /api/ready returns 200 with no checks.
	Pingers []Pinger
	// MetricsRegistry receives the server's metrics. Defaults to
	// prometheus.DefaultRegisterer.
	MetricsRegistry prometheus.Registerer
	// MetricsGatherer backs GET /metrics. Defaults to
	// prometheus.DefaultGatherer.
	MetricsGatherer prometheus.Gatherer
	// Debug is reported verbatim by GET /api/debug.
	Debug DebugInfo
}

// DebugInfo is the static part of the GET /api/debug response.
type DebugInfo struct {
	// HasKey reports whether the chat credential is present.
	HasKey bool
	// ChatModel is the configured chat model name.
	ChatModel string
	// EmbedModel is the configured embedding model name.
	EmbedModel string
}

// Recommender produces a recommendation for a reader's query.
// *librarian.Librarian satisfies it; tests inject a fake.
type Recommender interface {
	Recommend(ctx context.Context, query string) (*librarian.Result, error)
}

// Seeder populates the vector index when it is empty and returns the number
// of documents present or written.
type Seeder interface {
	SeedIfEmpty(ctx context.Context) (int, error)
}

// Counter reports the number of documents in the vector index.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// Deps are the collaborators the handlers call.
type Deps struct {
	Recommender Recommender
	Seeder      Seeder
	Index       Counter
	Catalog     *catalog.Catalog
}

// Server is the HTTP server that exposes the librarian.
type Server struct {
	// deps holds the request-path collaborators.
	deps Deps
	// cfg holds the resolved server configuration.
	cfg *Config
	// httpServer is the underlying net/http server.
	httpServer *http.Server
	// log is the structured logger for this server instance.
	log *slog.Logger
	// pingers is the ordered list of dependency probes for GET /api/ready.
	pingers []Pinger
	// metrics holds the server's Prometheus collectors.
	metrics *serverMetrics
	// validate checks decoded request bodies.
	validate *validator.Validate
}

// recommendRequest is the JSON body for POST /api/recommend. Query is a
// pointer so that an explicit empty string is accepted while a missing field
// is rejected.
type recommendRequest struct {
	Query *string `json:"query" validate:"required"`
}

// seedResponse is the JSON body returned by GET /api/seed.
type seedResponse struct {
	OK    bool `json:"ok"`
	Count int  `json:"count"`
}

// debugResponse is the JSON body returned by GET /api/debug.
type debugResponse struct {
	HasKey     bool   `json:"has_key"`
	ModelsEnv  string `json:"models_env"`
	EmbedModel string `json:"embed_model"`
	BooksCount int    `json:"books_count"`
	DBCount    int    `json:"db_count"`
}

// errorResponse is the JSON body for every non-2xx API response.
type errorResponse struct {
	Detail string `json:"detail"`
}
