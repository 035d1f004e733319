// Package config provides layered configuration for the librarian.
// Precedence, lowest first: defaults → .env file → YAML file → env vars.
// Values already present in the process environment are never overwritten,
// so an exported variable always wins over either file.
//
// YAML search order:
//  1. --config CLI flag (explicit path)
//  2. LIBRARIAN_CONFIG environment variable
//  3. ~/.librarian/config.yaml
//  4. ./librarian.yaml
//
// If no file is found the service runs entirely from env vars.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrMissingCredential reports that a credential required by the selected
// backend is not configured. It is fatal at startup.
var ErrMissingCredential = errors.New("config: missing required credential")

// Config is the top-level YAML configuration structure.
// Field names use yaml tags that mirror the env var naming (lowercase, underscored).
type Config struct {
	// Model configures the chat model provider.
	Model ModelConfig `yaml:"model"`

	// Embedding configures the embedding provider.
	Embedding EmbeddingConfig `yaml:"embedding"`

	// Qdrant configures the Qdrant vector store connection.
	Qdrant QdrantConfig `yaml:"qdrant"`

	// Server configures the HTTP server.
	Server ServerConfig `yaml:"server"`

	// Data configures where the book catalog is read from.
	Data DataConfig `yaml:"data"`

	// Logging configures structured logging.
	Logging LoggingConfig `yaml:"logging"`

	// Tracing configures Langfuse and OpenTelemetry.
	Tracing TracingConfig `yaml:"tracing"`
}

// ModelConfig holds chat model settings.
type ModelConfig struct {
	// Provider selects the backend: openai, azure, ollama, gemini, ark.
	Provider string `yaml:"provider"`

	// OpenAI holds OpenAI-specific settings.
	OpenAI OpenAIConfig `yaml:"openai"`

	// Azure holds Azure OpenAI-specific settings.
	Azure AzureConfig `yaml:"azure"`

	// Ollama holds Ollama-specific settings.
	Ollama OllamaConfig `yaml:"ollama"`

	// Gemini holds Google Gemini-specific settings.
	Gemini GeminiConfig `yaml:"gemini"`

	// Ark holds Volcengine Ark-specific settings.
	Ark ArkConfig `yaml:"ark"`
}

// OpenAIConfig holds OpenAI provider settings.
type OpenAIConfig struct {
	// APIKey is the OpenAI API key. Prefer env var OPENAI_API_KEY.
	APIKey string `yaml:"api_key"`
	// ChatModel is the chat completion model name.
	ChatModel string `yaml:"chat_model"`
	// EmbedModel is the embedding model name.
	EmbedModel string `yaml:"embed_model"`
	// BaseURL overrides the API base, e.g. for an OpenAI-compatible gateway.
	BaseURL string `yaml:"base_url"`
}

// AzureConfig holds Azure OpenAI provider settings.
type AzureConfig struct {
	APIKey     string `yaml:"api_key"`
	Endpoint   string `yaml:"endpoint"`
	Deployment string `yaml:"deployment"`
	APIVersion string `yaml:"api_version"`
}

// OllamaConfig holds Ollama provider settings.
type OllamaConfig struct {
	// Host is the Ollama API endpoint.
	Host string `yaml:"host"`
	// Model is the Ollama model name.
	Model string `yaml:"model"`
}

// GeminiConfig holds Google Gemini provider settings.
type GeminiConfig struct {
	// APIKey is the Google API key. Prefer env var GOOGLE_API_KEY.
	APIKey string `yaml:"api_key"`
	// Model is the Gemini model name.
	Model string `yaml:"model"`
}

// ArkConfig holds Volcengine Ark provider settings.
type ArkConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	// Provider selects the embedding backend (openai, azure, ollama, gemini).
	Provider string `yaml:"provider"`
	// Model is the embedding model name.
	Model string `yaml:"model"`
	// Dimensions overrides the embedding vector size.
	Dimensions int `yaml:"dimensions"`
	// APIKey is the embedding API key. Prefer env var EMBEDDING_API_KEY.
	APIKey string `yaml:"api_key"`
	// Endpoint is the embedding API endpoint.
	Endpoint string `yaml:"endpoint"`
}

// QdrantConfig holds Qdrant vector store settings.
type QdrantConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Collection string `yaml:"collection"`
	APIKey     string `yaml:"api_key"`
	TLS        bool   `yaml:"tls"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the bind address.
	Host string `yaml:"host"`
	// Port is the TCP port.
	Port int `yaml:"port"`
}

// DataConfig holds catalog location settings.
type DataConfig struct {
	// Dir holds book_summaries.json and full_summaries.json. Empty means the
	// copy embedded in the binary.
	Dir string `yaml:"dir"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is the log output format: json, text.
	Format string `yaml:"format"`
}

// TracingConfig holds tracing settings.
type TracingConfig struct {
	// PublicKey is the Langfuse public key. Prefer env var LANGFUSE_PUBLIC_KEY.
	PublicKey string `yaml:"public_key"`
	// SecretKey is the Langfuse secret key. Prefer env var LANGFUSE_SECRET_KEY.
	SecretKey string `yaml:"secret_key"`
	// Host is the Langfuse API host.
	Host string `yaml:"host"`
	// OTLPEndpoint is the OTLP gRPC collector address.
	OTLPEndpoint string `yaml:"otlp_endpoint"`
}

// envVar pairs an environment variable with the value the YAML file gave it.
type envVar struct {
	key, value string
}

// envVars flattens c into the env vars it stands for. Zero values are kept
// here and skipped by Load.
func (c *Config) envVars() []envVar {
	m, e := &c.Model, &c.Embedding
	return []envVar{
		{"MODEL_PROVIDER", m.Provider},
		{"OPENAI_API_KEY", m.OpenAI.APIKey},
		{"OPENAI_CHAT_MODEL", m.OpenAI.ChatModel},
		{"OPENAI_EMBED_MODEL", m.OpenAI.EmbedModel},
		{"OPENAI_BASE_URL", m.OpenAI.BaseURL},
		{"AZURE_OPENAI_API_KEY", m.Azure.APIKey},
		{"AZURE_OPENAI_ENDPOINT", m.Azure.Endpoint},
		{"AZURE_OPENAI_DEPLOYMENT", m.Azure.Deployment},
		{"AZURE_OPENAI_API_VERSION", m.Azure.APIVersion},
		{"OLLAMA_HOST", m.Ollama.Host},
		{"OLLAMA_MODEL", m.Ollama.Model},
		{"GOOGLE_API_KEY", m.Gemini.APIKey},
		{"GEMINI_MODEL", m.Gemini.Model},
		{"ARK_API_KEY", m.Ark.APIKey},
		{"ARK_MODEL", m.Ark.Model},
		{"EMBEDDING_PROVIDER", e.Provider},
		{"EMBEDDING_MODEL", e.Model},
		{"EMBEDDING_DIMENSIONS", intStr(e.Dimensions)},
		{"EMBEDDING_API_KEY", e.APIKey},
		{"EMBEDDING_ENDPOINT", e.Endpoint},
		{"QDRANT_HOST", c.Qdrant.Host},
		{"QDRANT_PORT", intStr(c.Qdrant.Port)},
		{"QDRANT_COLLECTION", c.Qdrant.Collection},
		{"QDRANT_API_KEY", c.Qdrant.APIKey},
		{"QDRANT_TLS", boolStr(c.Qdrant.TLS)},
		{"LIBRARIAN_HOST", c.Server.Host},
		{"LIBRARIAN_PORT", intStr(c.Server.Port)},
		{"LIBRARIAN_DATA_DIR", c.Data.Dir},
		{"LOG_LEVEL", c.Logging.Level},
		{"LOG_FORMAT", c.Logging.Format},
		{"LANGFUSE_PUBLIC_KEY", c.Tracing.PublicKey},
		{"LANGFUSE_SECRET_KEY", c.Tracing.SecretKey},
		{"LANGFUSE_HOST", c.Tracing.Host},
		{"OTEL_EXPORTER_OTLP_ENDPOINT", c.Tracing.OTLPEndpoint},
	}
}

// LoadDotEnv merges KEY=VALUE pairs from path (".env" when empty) into the
// process environment. Variables that are already set keep their value.
// It reports whether a file was found; a missing file is not an error.
func LoadDotEnv(path string, log *slog.Logger) (bool, error) {
	if path == "" {
		path = ".env"
	}
	switch _, err := os.Stat(path); {
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("config: stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return false, fmt.Errorf("config: read dotenv %s: %w", path, err)
	}
	log.Debug("config: dotenv merged", slog.String("path", path))
	return true, nil
}

// Load locates the YAML file (see the package doc for the search order),
// decodes it and exports every non-empty value whose variable is still
// unset. It returns the path that was read, or "" when there was none.
func Load(explicitPath string, log *slog.Logger) (string, error) {
	path := findConfigFile(explicitPath)
	if path == "" {
		log.Debug("config: no YAML file, environment only")
		return "", nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return "", fmt.Errorf("config: parse %s: %w", path, err)
	}

	var applied, shadowed int
	for _, v := range cfg.envVars() {
		if v.value == "" {
			continue
		}
		if os.Getenv(v.key) != "" {
			shadowed++
			continue
		}
		if err := os.Setenv(v.key, v.value); err != nil {
			return "", fmt.Errorf("config: export %s: %w", v.key, err)
		}
		applied++
	}

	log.Info("config: YAML applied",
		slog.String("path", path),
		slog.Int("keys_applied", applied),
		slog.Int("keys_shadowed_by_env", shadowed),
	)
	return path, nil
}

// RequireCredential returns ErrMissingCredential naming the first of keys
// that is unset or blank in the environment.
func RequireCredential(keys ...string) error {
	for _, k := range keys {
		if strings.TrimSpace(os.Getenv(k)) == "" {
			return fmt.Errorf("%w: %s is not set", ErrMissingCredential, k)
		}
	}
	return nil
}

// findConfigFile returns the first existing YAML file. An explicit path
// that does not exist yields "" without falling through to the defaults.
func findConfigFile(explicit string) string {
	if explicit != "" {
		if fileExists(explicit) {
			return explicit
		}
		return ""
	}

	candidates := []string{os.Getenv("LIBRARIAN_CONFIG")}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".librarian", "config.yaml"))
	}
	candidates = append(candidates, "librarian.yaml")

	for _, p := range candidates {
		if p != "" && fileExists(p) {
			return p
		}
	}
	return ""
}

func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

func intStr(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}

func boolStr(v bool) string {
	if v {
		return "true"
	}
	return ""
}
