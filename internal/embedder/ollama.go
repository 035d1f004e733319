package embedder

import (
	"context"
	"net/http"
	"time"
)

// OllamaConfig configures an OllamaEmbedder.
type OllamaConfig struct {
	Host  string // e.g. "http://localhost:11434"
	Model string // e.g. "nomic-embed-text"
}

// OllamaEmbedder embeds through a local Ollama server's /api/embed. No key
// is needed.
type OllamaEmbedder struct {
	host   string
	model  string
	client *http.Client
}

// NewOllamaEmbedder returns an embedder for cfg. Local models can be slow to
// load, so the client timeout is twice the hosted one.
func NewOllamaEmbedder(cfg *OllamaConfig) *OllamaEmbedder {
	return &OllamaEmbedder{host: cfg.Host, model: cfg.Model, client: &http.Client{Timeout: 60 * time.Second}}
}

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Error      string      `json:"error,omitempty"`
}

func (r *ollamaEmbedResponse) message() string { return r.Error }

// Embed returns one vector per text, in input order.
func (e *OllamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	var out ollamaEmbedResponse
	if err := postJSON(ctx, e.client, "ollama", e.host+"/api/embed", nil, ollamaEmbedRequest{Model: e.model, Input: texts}, &out); err != nil {
		return nil, err
	}
	if err := checkCount("ollama", len(texts), len(out.Embeddings)); err != nil {
		return nil, err
	}
	return out.Embeddings, nil
}
