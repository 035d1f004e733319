package embedder

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/54b3r/librarian-go/internal/config"
	"github.com/54b3r/librarian-go/internal/rag"
)

// Default embedding models per backend.
const (
	defaultOpenAIModel = "text-embedding-3-small"
	defaultOllamaModel = "nomic-embed-text"
	defaultGeminiModel = "text-embedding-004"

	// defaultOpenAIDimensions is the output dimension of text-embedding-3-small.
	defaultOpenAIDimensions = 1536
	// defaultOllamaDimensions is the output dimension of nomic-embed-text.
	defaultOllamaDimensions = 768
	// defaultGeminiDimensions is the output dimension of text-embedding-004.
	defaultGeminiDimensions = 768
)

// Backend returns the effective embedding backend: EMBEDDING_PROVIDER, then
// MODEL_PROVIDER, then "openai".
func Backend() string {
	if b := os.Getenv("EMBEDDING_PROVIDER"); b != "" {
		return b
	}
	return getEnvOrDefault("MODEL_PROVIDER", "openai")
}

// DefaultDimensions returns the embedding vector size for backend. Callers
// that pre-configure a vector store (Qdrant collection creation) use this.
// EMBEDDING_DIMENSIONS always takes precedence when set.
func DefaultDimensions(backend string) int {
	if v := getEnvInt("EMBEDDING_DIMENSIONS", 0); v > 0 {
		return v
	}
	switch backend {
	case "ollama":
		return defaultOllamaDimensions
	case "gemini":
		return defaultGeminiDimensions
	default:
		return defaultOpenAIDimensions
	}
}

// ModelName returns the embedding model NewFromEnv would use for backend.
func ModelName(backend string) string {
	if m := os.Getenv("EMBEDDING_MODEL"); m != "" {
		return m
	}
	switch backend {
	case "ollama":
		return defaultOllamaModel
	case "gemini":
		return defaultGeminiModel
	default:
		return getEnvOrDefault("OPENAI_EMBED_MODEL", defaultOpenAIModel)
	}
}

// NewFromEnv constructs a rag.Embedder from the environment.
//
// Resolution order:
//
//  1. EMBEDDING_PROVIDER, inheriting MODEL_PROVIDER (default: openai)
//  2. EMBEDDING_MODEL, else OPENAI_EMBED_MODEL for openai/azure, else the backend default
//  3. EMBEDDING_API_KEY, else the chat provider's key
//  4. EMBEDDING_ENDPOINT, else the chat provider's endpoint
//  5. EMBEDDING_DIMENSIONS (0 = model default)
//
// A missing credential is reported as config.ErrMissingCredential.
func NewFromEnv(ctx context.Context) (rag.Embedder, error) {
	backend := Backend()
	model := ModelName(backend)
	dims := getEnvInt("EMBEDDING_DIMENSIONS", 0)

	switch backend {
	case "openai":
		apiKey := firstEnv("EMBEDDING_API_KEY", "OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("embedder: openai: %w", config.RequireCredential("OPENAI_API_KEY"))
		}
		baseURL := firstEnv("EMBEDDING_ENDPOINT", "OPENAI_BASE_URL")
		if baseURL == "" {
			baseURL = "https://api.openai.com/v1"
		}
		return NewOpenAIEmbedder(&OpenAIConfig{
			BaseURL:    baseURL,
			APIKey:     apiKey,
			Model:      model,
			Dimensions: dims,
		}), nil

	case "azure":
		apiKey := firstEnv("EMBEDDING_API_KEY", "AZURE_OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("embedder: azure: %w", config.RequireCredential("AZURE_OPENAI_API_KEY"))
		}
		endpoint := firstEnv("EMBEDDING_ENDPOINT", "AZURE_OPENAI_ENDPOINT")
		if endpoint == "" {
			return nil, fmt.Errorf("embedder: azure: %w", config.RequireCredential("AZURE_OPENAI_ENDPOINT"))
		}
		return NewOpenAIEmbedder(&OpenAIConfig{
			BaseURL:    endpoint + "/openai",
			APIKey:     apiKey,
			Model:      model,
			Dimensions: dims,
			Azure:      true,
			APIVersion: getEnvOrDefault("AZURE_OPENAI_API_VERSION", "2025-04-01-preview"),
		}), nil

	case "ollama":
		host := firstEnv("EMBEDDING_ENDPOINT", "OLLAMA_HOST")
		if host == "" {
			host = "http://localhost:11434"
		}
		return NewOllamaEmbedder(&OllamaConfig{Host: host, Model: model}), nil

	case "gemini":
		apiKey := firstEnv("EMBEDDING_API_KEY", "GOOGLE_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("embedder: gemini: %w", config.RequireCredential("GOOGLE_API_KEY"))
		}
		return NewGeminiEmbedder(ctx, &GeminiConfig{APIKey: apiKey, Model: model, Dimensions: dims})

	default:
		return nil, fmt.Errorf("embedder: unknown backend %q (valid: openai, azure, ollama, gemini)", backend)
	}
}

// firstEnv returns the first non-empty value among keys.
func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt returns the integer value of key, or fallback if unset or not
// parseable.
func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
