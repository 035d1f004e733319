package seed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/54b3r/librarian-go/internal/catalog"
	"github.com/54b3r/librarian-go/internal/embedder"
	"github.com/54b3r/librarian-go/internal/rag"
)

// countingEmbedder records every Embed call and encodes each text's position.
type countingEmbedder struct {
	calls atomic.Int32
	err   error
	delay time.Duration
}

func (e *countingEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.calls.Add(1)
	if e.delay > 0 {
		time.Sleep(e.delay)
	}
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i)}
	}
	return out, nil
}

// blockingEmbedder signals once Embed starts, then waits for hold or ctx.
type blockingEmbedder struct {
	started chan struct{}
	once    sync.Once
	hold    time.Duration
}

func (e *blockingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.once.Do(func() { close(e.started) })
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(e.hold):
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i)}
	}
	return out, nil
}

// shortEmbedder drops the last vector.
type shortEmbedder struct{}

func (shortEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	return make([][]float32, len(texts)-1), nil
}

// memIndex is an in-memory VectorIndex keyed by document ID.
type memIndex struct {
	mu      sync.Mutex
	docs    map[string]rag.Document
	upserts int
	preset  int
}

func newMemIndex() *memIndex { return &memIndex{docs: map[string]rag.Document{}} }

func (m *memIndex) Count(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.preset + len(m.docs), nil
}

func (m *memIndex) Upsert(_ context.Context, docs []rag.Document, embs [][]float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(docs) != len(embs) {
		return fmt.Errorf("mismatch")
	}
	m.upserts++
	for _, d := range docs {
		m.docs[d.ID] = d
	}
	return nil
}

func (m *memIndex) Query(context.Context, []float32, int) ([]rag.Candidate, error) { return nil, nil }
func (m *memIndex) Close() error                                                 { return nil }

func testCatalog() *catalog.Catalog {
	return &catalog.Catalog{
		Books: []catalog.BookRecord{
			{Title: "1984", ShortSummary: "Surveillance.", Themes: []string{"freedom", "control"}},
			{Title: "Dune", ShortSummary: "Spice.", Themes: []string{"politics"}},
			{Title: "The Hobbit", ShortSummary: "A quest.", Themes: nil},
		},
		FullSummaries: map[string]string{},
	}
}

// outcomeCount reads librarian_seed_attempts_total{outcome=...} from reg.
func outcomeCount(t *testing.T, reg *prometheus.Registry, outcome string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != "librarian_seed_attempts_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "outcome" && lp.GetValue() == outcome {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	_, err := New(nil, &countingEmbedder{}, newMemIndex(), Options{})
	require.Error(t, err)
	_, err = New(testCatalog(), nil, newMemIndex(), Options{})
	require.Error(t, err)
	_, err = New(testCatalog(), &countingEmbedder{}, nil, Options{})
	require.Error(t, err)
}

func TestSeedIfEmpty_Idempotent(t *testing.T) {
	t.Parallel()

	cat := testCatalog()
	idx := newMemIndex()
	emb := &countingEmbedder{}
	reg := prometheus.NewRegistry()
	s, err := New(cat, emb, idx, Options{MetricsRegistry: reg})
	require.NoError(t, err)

	n, err := s.SeedIfEmpty(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cat.Len(), n)
	assert.Equal(t, 1, idx.upserts)

	n, err = s.SeedIfEmpty(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cat.Len(), n, "second call returns the existing count")
	assert.Equal(t, 1, idx.upserts, "second call must not upsert")
	assert.Equal(t, int32(1), emb.calls.Load(), "second call must not embed")

	count, _ := idx.Count(context.Background())
	assert.Equal(t, cat.Len(), count)

	assert.Equal(t, 1.0, outcomeCount(t, reg, outcomeSeeded))
	assert.Equal(t, 1.0, outcomeCount(t, reg, outcomeSkipped))
	assert.Equal(t, 0.0, outcomeCount(t, reg, outcomeError))
}

func TestSeedIfEmpty_PrepopulatedSkipsEmbedding(t *testing.T) {
	t.Parallel()

	idx := newMemIndex()
	idx.preset = 42
	emb := &countingEmbedder{}
	s, err := New(testCatalog(), emb, idx, Options{})
	require.NoError(t, err)

	n, err := s.SeedIfEmpty(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, n)
	assert.Zero(t, emb.calls.Load())
	assert.Zero(t, idx.upserts)
}

func TestSeedIfEmpty_EmbeddingFailureWritesNothing(t *testing.T) {
	t.Parallel()

	embErr := errors.New("401 invalid api key")
	idx := newMemIndex()
	s, err := New(testCatalog(), &countingEmbedder{err: embErr}, idx, Options{})
	require.NoError(t, err)

	_, err = s.SeedIfEmpty(context.Background())
	require.ErrorIs(t, err, embErr)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
	assert.Zero(t, idx.upserts)

	count, _ := idx.Count(context.Background())
	assert.Zero(t, count)
}

func TestSeedIfEmpty_ConcurrentCallersShareOneAttempt(t *testing.T) {
	t.Parallel()

	idx := newMemIndex()
	emb := &countingEmbedder{delay: 50 * time.Millisecond}
	s, err := New(testCatalog(), emb, idx, Options{})
	require.NoError(t, err)

	const callers = 8
	var wg sync.WaitGroup
	results := make([]int, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := s.SeedIfEmpty(context.Background())
			assert.NoError(t, err)
			results[i] = n
		}()
	}
	wg.Wait()

	for _, n := range results {
		assert.Equal(t, 3, n)
	}
	// Late arrivals may start a fresh attempt after the first finishes, but
	// they then see a populated index and skip.
	assert.Equal(t, 1, idx.upserts)
	assert.Equal(t, int32(1), emb.calls.Load())
}

func TestSeedIfEmpty_CancelledCallerDoesNotFailOthers(t *testing.T) {
	t.Parallel()

	idx := newMemIndex()
	emb := &blockingEmbedder{started: make(chan struct{}), hold: 100 * time.Millisecond}
	s, err := New(testCatalog(), emb, idx, Options{})
	require.NoError(t, err)

	ctxA, cancelA := context.WithCancel(context.Background())
	defer cancelA()
	errA := make(chan error, 1)
	go func() {
		_, err := s.SeedIfEmpty(ctxA)
		errA <- err
	}()
	<-emb.started

	type result struct {
		n   int
		err error
	}
	resB := make(chan result, 1)
	go func() {
		n, err := s.SeedIfEmpty(context.Background())
		resB <- result{n, err}
	}()

	time.Sleep(20 * time.Millisecond)
	cancelA()

	require.ErrorIs(t, <-errA, context.Canceled)

	b := <-resB
	require.NoError(t, b.err, "a live caller must not inherit another caller's cancellation")
	assert.Equal(t, 3, b.n)
	assert.Equal(t, 1, idx.upserts)
}

func TestSeedIfEmpty_CancelledBeforeStart(t *testing.T) {
	t.Parallel()

	emb := &blockingEmbedder{started: make(chan struct{}), hold: 50 * time.Millisecond}
	s, err := New(testCatalog(), emb, newMemIndex(), Options{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.SeedIfEmpty(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestSeedIfEmpty_VectorCountMismatch(t *testing.T) {
	t.Parallel()

	idx := newMemIndex()
	s, err := New(testCatalog(), shortEmbedder{}, idx, Options{})
	require.NoError(t, err)

	_, err = s.SeedIfEmpty(context.Background())
	require.ErrorIs(t, err, embedder.ErrEmbedding)
	assert.Zero(t, idx.upserts)
}

func TestDocuments(t *testing.T) {
	t.Parallel()

	docs := Documents(testCatalog())
	require.Len(t, docs, 3)

	assert.Equal(t, "book-0", docs[0].ID)
	assert.Equal(t, "Title: 1984\nSummary: Surveillance.\nThemes: freedom, control", docs[0].Text)
	assert.Equal(t, "1984", docs[0].Metadata[rag.MetaTitle])
	assert.Equal(t, "freedom, control", docs[0].Metadata[rag.MetaThemes])

	assert.Equal(t, "book-2", docs[2].ID)
	assert.Equal(t, "", docs[2].Metadata[rag.MetaThemes], "nil themes coerce to an empty string")
}
