// Package embedder provides implementations of the rag.Embedder interface for
// converting text into dense vector embeddings. OpenAI, Azure OpenAI and
// Ollama are reached over plain HTTP; Gemini goes through the genai SDK.
//
// Every implementation relies on the backend returning vectors in input
// order. Vector i is taken from response position i and never re-sorted; a
// count mismatch is reported as an error.
package embedder

import "errors"

// ErrEmbedding wraps every failure of an embedding backend: transport,
// authentication, quota, decode or a vector count mismatch.
var ErrEmbedding = errors.New("embedding request failed")
