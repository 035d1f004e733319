// Package rag defines the retrieval side of the librarian: the vector index
// abstraction, the embedding client contract, and the retriever that couples
// the two. Concrete backends (Qdrant) satisfy these interfaces so the
// orchestrator and seeder never depend on a specific store.
package rag

import (
	"context"
	"fmt"
)

// Metadata keys stored alongside every indexed document.
const (
	// MetaTitle is the metadata key holding the book title.
	MetaTitle = "title"
	// MetaThemes is the metadata key holding the comma-joined themes.
	MetaThemes = "themes"
)

// Metadata is a flat record of scalar values (string, integer, float, bool or
// nil). Build it with CoerceMetadataValue so composite values never reach the
// index.
type Metadata map[string]any

// String returns the value under key formatted as a string, or "" if absent.
func (m Metadata) String(key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Document is a unit written to the vector index. The embedding travels
// separately in a parallel slice.
type Document struct {
	// ID is the stable, caller-chosen identifier (e.g. "book-3").
	ID string

	// Text is the document body returned by similarity queries.
	Text string

	// Metadata holds scalar-only values such as title and themes.
	Metadata Metadata
}

// Candidate is a read-only projection of a document returned by a
// similarity query, in ranked order.
type Candidate struct {
	// Text is the stored document body.
	Text string

	// Metadata is the stored metadata record.
	Metadata Metadata
}

// Title returns the candidate's title metadata.
func (c Candidate) Title() string { return c.Metadata.String(MetaTitle) }

// Themes returns the candidate's comma-joined themes metadata.
func (c Candidate) Themes() string { return c.Metadata.String(MetaThemes) }

// VectorIndex is the persistent collection the librarian reads and seeds.
// Implementations must be safe to call from multiple goroutines.
type VectorIndex interface {
	// Count returns the number of documents currently stored.
	Count(ctx context.Context) (int, error)

	// Upsert writes docs with their embeddings in one batch. embeddings must be
	// parallel to docs. Re-upserting an existing ID overwrites it.
	Upsert(ctx context.Context, docs []Document, embeddings [][]float32) error

	// Query returns up to k nearest documents to embedding by cosine distance,
	// closest first.
	Query(ctx context.Context, embedding []float32, k int) ([]Candidate, error)

	// Close releases any resources held by the index.
	Close() error
}

// Embedder converts text into dense vector embeddings.
// Implementations must be safe to call from multiple goroutines.
type Embedder interface {
	// Embed converts a batch of texts into embeddings. The returned slice is
	// parallel to the input: result[i] is the vector for texts[i].
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
