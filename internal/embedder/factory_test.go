package embedder

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/54b3r/librarian-go/internal/config"
)

// embedEnvKeys are cleared before each factory test.
var embedEnvKeys = []string{
	"EMBEDDING_PROVIDER", "MODEL_PROVIDER", "EMBEDDING_MODEL", "OPENAI_EMBED_MODEL",
	"EMBEDDING_API_KEY", "OPENAI_API_KEY", "EMBEDDING_ENDPOINT", "OPENAI_BASE_URL",
	"EMBEDDING_DIMENSIONS", "AZURE_OPENAI_API_KEY", "AZURE_OPENAI_ENDPOINT",
	"GOOGLE_API_KEY", "OLLAMA_HOST",
}

func clearEmbedEnv(t *testing.T) {
	t.Helper()
	for _, k := range embedEnvKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestNewFromEnv_DefaultsToOpenAI(t *testing.T) {
	clearEmbedEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	e, err := NewFromEnv(context.Background())
	require.NoError(t, err)

	oe, ok := e.(*OpenAIEmbedder)
	require.True(t, ok, "expected *OpenAIEmbedder, got %T", e)
	assert.Equal(t, "text-embedding-3-small", oe.cfg.Model)
	assert.Equal(t, "https://api.openai.com/v1", oe.cfg.BaseURL)
}

func TestNewFromEnv_MissingKey(t *testing.T) {
	clearEmbedEnv(t)

	_, err := NewFromEnv(context.Background())
	require.ErrorIs(t, err, config.ErrMissingCredential)
}

func TestNewFromEnv_Backends(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
		check   func(t *testing.T, e any)
	}{
		{
			name: "openai embed model override",
			env:  map[string]string{"OPENAI_API_KEY": "k", "OPENAI_EMBED_MODEL": "text-embedding-3-large"},
			check: func(t *testing.T, e any) {
				assert.Equal(t, "text-embedding-3-large", e.(*OpenAIEmbedder).cfg.Model)
			},
		},
		{
			name: "azure",
			env: map[string]string{
				"EMBEDDING_PROVIDER":    "azure",
				"AZURE_OPENAI_API_KEY":  "k",
				"AZURE_OPENAI_ENDPOINT": "https://res.openai.azure.com",
			},
			check: func(t *testing.T, e any) {
				oe := e.(*OpenAIEmbedder)
				assert.True(t, oe.cfg.Azure)
				assert.Equal(t, "https://res.openai.azure.com/openai", oe.cfg.BaseURL)
			},
		},
		{
			name:    "azure missing endpoint",
			env:     map[string]string{"EMBEDDING_PROVIDER": "azure", "AZURE_OPENAI_API_KEY": "k"},
			wantErr: true,
		},
		{
			name: "ollama inherits model provider",
			env:  map[string]string{"MODEL_PROVIDER": "ollama", "OLLAMA_HOST": "http://gpu:11434"},
			check: func(t *testing.T, e any) {
				oe := e.(*OllamaEmbedder)
				assert.Equal(t, "http://gpu:11434", oe.host)
				assert.Equal(t, "nomic-embed-text", oe.model)
			},
		},
		{
			name:    "unknown backend",
			env:     map[string]string{"EMBEDDING_PROVIDER": "bedrock"},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearEmbedEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			e, err := NewFromEnv(context.Background())
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			tc.check(t, e)
		})
	}
}

func TestModelNameAndDimensions(t *testing.T) {
	clearEmbedEnv(t)

	assert.Equal(t, "text-embedding-3-small", ModelName("openai"))
	assert.Equal(t, "nomic-embed-text", ModelName("ollama"))
	assert.Equal(t, "text-embedding-004", ModelName("gemini"))
	assert.Equal(t, 1536, DefaultDimensions("openai"))
	assert.Equal(t, 768, DefaultDimensions("ollama"))

	t.Setenv("EMBEDDING_MODEL", "custom-embed")
	t.Setenv("EMBEDDING_DIMENSIONS", "256")
	assert.Equal(t, "custom-embed", ModelName("ollama"))
	assert.Equal(t, 256, DefaultDimensions("openai"))
}

func TestValidateForRAG(t *testing.T) {
	log := slog.New(slog.DiscardHandler)

	clearEmbedEnv(t)
	require.ErrorIs(t, ValidateForRAG(log), config.ErrMissingCredential)

	t.Setenv("OPENAI_API_KEY", "k")
	require.NoError(t, ValidateForRAG(log))

	t.Setenv("EMBEDDING_PROVIDER", "ark")
	require.Error(t, ValidateForRAG(log))
}

func TestLooksLikeChatModel(t *testing.T) {
	t.Parallel()

	assert.True(t, looksLikeChatModel("gpt-4o-mini"))
	assert.True(t, looksLikeChatModel("llama3.1:8b"))
	assert.False(t, looksLikeChatModel("text-embedding-3-small"))
	assert.False(t, looksLikeChatModel("gemini-embedding-001"))
	assert.False(t, looksLikeChatModel("nomic-embed-text"))
}
