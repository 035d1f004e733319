package embedder

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/54b3r/librarian-go/internal/config"
)

// knownChatModelPrefixes contains name fragments that identify chat models
// which are not suitable for embedding.
var knownChatModelPrefixes = []string{
	"gpt-4",
	"gpt-3.5",
	"gpt-35",
	"o1",
	"o3",
	"llama3",
	"llama-3",
	"mistral",
	"mixtral",
	"gemma",
	"gemini-",
	"claude",
	"deepseek",
	"qwen",
}

// looksLikeChatModel returns true when the model name resembles a known chat
// model rather than a dedicated embedding model.
func looksLikeChatModel(model string) bool {
	lower := strings.ToLower(model)
	if strings.Contains(lower, "embed") {
		return false
	}
	for _, prefix := range knownChatModelPrefixes {
		if strings.Contains(lower, prefix) {
			return true
		}
	}
	return false
}

// ValidateForRAG is a startup pre-flight check on the embedding
// configuration. It returns an error when the resolved backend cannot work
// (unknown backend, missing key or endpoint) and logs a warning when the
// configured model looks like a chat model.
func ValidateForRAG(log *slog.Logger) error {
	backend := Backend()

	switch backend {
	case "openai":
		if firstEnv("EMBEDDING_API_KEY", "OPENAI_API_KEY") == "" {
			return fmt.Errorf("embedder: %w: set OPENAI_API_KEY or EMBEDDING_API_KEY", config.ErrMissingCredential)
		}
	case "azure":
		if firstEnv("EMBEDDING_API_KEY", "AZURE_OPENAI_API_KEY") == "" {
			return fmt.Errorf("embedder: %w: set AZURE_OPENAI_API_KEY or EMBEDDING_API_KEY", config.ErrMissingCredential)
		}
		if firstEnv("EMBEDDING_ENDPOINT", "AZURE_OPENAI_ENDPOINT") == "" {
			return fmt.Errorf("embedder: %w: set AZURE_OPENAI_ENDPOINT or EMBEDDING_ENDPOINT", config.ErrMissingCredential)
		}
	case "gemini":
		if firstEnv("EMBEDDING_API_KEY", "GOOGLE_API_KEY") == "" {
			return fmt.Errorf("embedder: %w: set GOOGLE_API_KEY or EMBEDDING_API_KEY", config.ErrMissingCredential)
		}
	case "ollama":
	case "ark":
		return fmt.Errorf("embedder: ark has no embedding backend; set EMBEDDING_PROVIDER explicitly")
	default:
		return fmt.Errorf("embedder: unknown backend %q (valid: openai, azure, ollama, gemini)", backend)
	}

	if model := ModelName(backend); looksLikeChatModel(model) {
		log.Warn("embedder: embedding model looks like a chat model",
			slog.String("model", model),
			slog.String("hint", "use a dedicated embedding model e.g. text-embedding-3-small"),
		)
	}

	return nil
}
