package embedder

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// OpenAIConfig configures an OpenAIEmbedder. The same client serves Azure
// OpenAI when Azure is set: the deployment takes the place of the model in
// the URL and the key travels in the api-key header.
type OpenAIConfig struct {
	// BaseURL is "https://api.openai.com/v1" for OpenAI, or
	// "https://<resource>.openai.azure.com/openai" for Azure.
	BaseURL string
	APIKey  string
	Model   string
	// Dimensions truncates vectors server-side. Zero keeps the model default.
	Dimensions int
	Azure      bool
	APIVersion string
	// HTTPClient defaults to a client with a 30s timeout.
	HTTPClient *http.Client
}

// OpenAIEmbedder embeds book documents and reader queries through the
// /embeddings endpoint. It is safe for concurrent use.
type OpenAIEmbedder struct {
	cfg    OpenAIConfig
	client *http.Client
}

// NewOpenAIEmbedder returns an embedder for cfg.
func NewOpenAIEmbedder(cfg *OpenAIConfig) *OpenAIEmbedder {
	c := *cfg
	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &OpenAIEmbedder{cfg: c, client: client}
}

type embeddingsRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingsResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (r *embeddingsResponse) message() string {
	if r.Error == nil {
		return ""
	}
	return r.Error.Message
}

// endpoint returns the embeddings URL for the configured flavour.
func (e *OpenAIEmbedder) endpoint() string {
	if e.cfg.Azure {
		return fmt.Sprintf("%s/deployments/%s/embeddings?api-version=%s", e.cfg.BaseURL, e.cfg.Model, e.cfg.APIVersion)
	}
	return e.cfg.BaseURL + "/embeddings"
}

func (e *OpenAIEmbedder) header() http.Header {
	h := http.Header{}
	if e.cfg.Azure {
		h.Set("api-key", e.cfg.APIKey)
	} else {
		h.Set("Authorization", "Bearer "+e.cfg.APIKey)
	}
	return h
}

// Embed sends all texts in one request. Vectors are returned in input
// order; a response with a different number of vectors is an error.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	var out embeddingsResponse
	in := embeddingsRequest{Input: texts, Model: e.cfg.Model, Dimensions: e.cfg.Dimensions}
	if err := postJSON(ctx, e.client, "openai", e.endpoint(), e.header(), in, &out); err != nil {
		return nil, err
	}
	if err := checkCount("openai", len(texts), len(out.Data)); err != nil {
		return nil, err
	}

	vecs := make([][]float32, len(out.Data))
	for i := range out.Data {
		vecs[i] = out.Data[i].Embedding
	}
	return vecs, nil
}
