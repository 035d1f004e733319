// Package seed populates the vector index from the book catalog exactly once.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/singleflight"

	"github.com/54b3r/librarian-go/internal/catalog"
	"github.com/54b3r/librarian-go/internal/embedder"
	"github.com/54b3r/librarian-go/internal/logging"
	"github.com/54b3r/librarian-go/internal/rag"
)

// Outcome label values for the seed counter.
const (
	outcomeSeeded  = "seeded"
	outcomeSkipped = "skipped"
	outcomeError   = "error"
)

// Seeder writes one indexed document per catalog book when the index is
// empty. It is safe for concurrent use; simultaneous callers share a single
// attempt.
type Seeder struct {
	// catalog supplies the books to index.
	catalog *catalog.Catalog

	// embedder produces one vector per document text.
	embedder rag.Embedder

	// index is the collection being seeded.
	index rag.VectorIndex

	group singleflight.Group

	// attempts counts seed outcomes: seeded, skipped, error.
	attempts *prometheus.CounterVec

	// duration records how long a seed that actually wrote took.
	duration prometheus.Histogram
}

// Options configures optional Seeder behaviour.
type Options struct {
	// MetricsRegistry receives the seeder's metrics. Nil disables registration
	// (metrics are still created so callers never nil-check).
	MetricsRegistry prometheus.Registerer
}

// New constructs a Seeder. All three collaborators are required.
func New(cat *catalog.Catalog, emb rag.Embedder, idx rag.VectorIndex, opts Options) (*Seeder, error) {
	if cat == nil {
		return nil, fmt.Errorf("seed: catalog must not be nil")
	}
	if emb == nil {
		return nil, fmt.Errorf("seed: embedder must not be nil")
	}
	if idx == nil {
		return nil, fmt.Errorf("seed: index must not be nil")
	}

	factory := promauto.With(opts.MetricsRegistry)
	return &Seeder{
		catalog:  cat,
		embedder: emb,
		index:    idx,
		attempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "librarian",
			Subsystem: "seed",
			Name:      "attempts_total",
			Help:      "Seed attempts partitioned by outcome.",
		}, []string{"outcome"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "librarian",
			Subsystem: "seed",
			Name:      "duration_seconds",
			Help:      "Wall-clock duration of seeds that wrote documents.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		}),
	}, nil
}

// SeedIfEmpty ensures the index holds the catalog. If the index already has
// documents it returns their count without embedding or writing anything.
// Otherwise it embeds every document in one batch and, only if that
// succeeds, upserts them in one batch and returns the number written.
//
// The emptiness check is the only gate: a partially seeded index is left as
// is. Document IDs are deterministic, so a repeated upsert overwrites rather
// than duplicates.
//
// The shared attempt runs detached from any one caller's cancellation, so a
// caller only fails early when its own ctx is done.
func (s *Seeder) SeedIfEmpty(ctx context.Context) (int, error) {
	ch := s.group.DoChan("seed", func() (any, error) {
		return s.seed(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("seed: %w", ctx.Err())
	case r := <-ch:
		if r.Shared {
			logging.FromContext(ctx).Debug("seed: joined in-flight attempt")
		}
		if r.Err != nil {
			return 0, r.Err
		}
		return r.Val.(int), nil
	}
}

func (s *Seeder) seed(ctx context.Context) (int, error) {
	log := logging.FromContext(ctx)

	count, err := s.index.Count(ctx)
	if err != nil {
		s.attempts.WithLabelValues(outcomeError).Inc()
		return 0, fmt.Errorf("seed: count index: %w", err)
	}
	if count > 0 {
		s.attempts.WithLabelValues(outcomeSkipped).Inc()
		log.Debug("seed: index already populated", slog.Int("count", count))
		return count, nil
	}

	start := time.Now()
	docs := Documents(s.catalog)
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
	}

	embeddings, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		s.attempts.WithLabelValues(outcomeError).Inc()
		log.Error("seed: embedding failed", slog.Any("error", err))
		return 0, fmt.Errorf("seed: embedding create failed, check OPENAI_API_KEY / network: %w", err)
	}
	if len(embeddings) != len(docs) {
		s.attempts.WithLabelValues(outcomeError).Inc()
		return 0, fmt.Errorf("%w: seed: embedder returned %d vectors for %d documents", embedder.ErrEmbedding, len(embeddings), len(docs))
	}

	if err := s.index.Upsert(ctx, docs, embeddings); err != nil {
		s.attempts.WithLabelValues(outcomeError).Inc()
		return 0, fmt.Errorf("seed: upsert: %w", err)
	}

	s.attempts.WithLabelValues(outcomeSeeded).Inc()
	s.duration.Observe(time.Since(start).Seconds())
	log.Info("seed: index populated",
		slog.Int("documents", len(docs)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return len(docs), nil
}

// Documents builds the indexed form of every catalog book: id "book-{i}",
// the three-line document text, and coerced title/themes metadata.
func Documents(cat *catalog.Catalog) []rag.Document {
	docs := make([]rag.Document, len(cat.Books))
	for i, b := range cat.Books {
		docs[i] = rag.Document{
			ID:   catalog.DocumentID(i),
			Text: catalog.DocumentText(b),
			Metadata: rag.NewMetadata(map[string]any{
				rag.MetaTitle:  b.Title,
				rag.MetaThemes: b.Themes,
			}),
		}
	}
	return docs
}
