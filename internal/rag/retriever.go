package rag

import (
	"context"
	"fmt"
)

// DefaultTopK is the number of candidates retrieved per recommendation.
const DefaultTopK = 5

// Retriever combines an Embedder and a VectorIndex. It embeds the query at
// retrieval time and delegates the nearest-neighbour search to the index.
type Retriever struct {
	// embedder converts query text to a dense vector.
	embedder Embedder

	// index performs the vector similarity search.
	index VectorIndex

	// defaultTopK is the number of results to return when the caller passes 0.
	defaultTopK int
}

// NewRetriever constructs a Retriever from the given Embedder and VectorIndex.
// defaultTopK sets the fallback result count when Retrieve is called with k=0.
func NewRetriever(embedder Embedder, index VectorIndex, defaultTopK int) (*Retriever, error) {
	if embedder == nil {
		return nil, fmt.Errorf("rag: embedder must not be nil")
	}
	if index == nil {
		return nil, fmt.Errorf("rag: index must not be nil")
	}
	if defaultTopK <= 0 {
		defaultTopK = DefaultTopK
	}
	return &Retriever{
		embedder:    embedder,
		index:       index,
		defaultTopK: defaultTopK,
	}, nil
}

// Retrieve embeds query (an empty string is embedded as-is) and returns up to
// k candidates in ranked order. If k is 0 the default is used.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]Candidate, error) {
	if k <= 0 {
		k = r.defaultTopK
	}

	embeddings, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("rag: embedding query failed: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("rag: embedder returned empty result for query")
	}

	cands, err := r.index.Query(ctx, embeddings[0], k)
	if err != nil {
		return nil, fmt.Errorf("rag: vector query failed: %w", err)
	}

	return cands, nil
}
