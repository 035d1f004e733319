// Package provider selects and constructs the tool-calling chat model the
// librarian talks to. Supported backends: OpenAI (default), Azure OpenAI,
// Ollama, Google Gemini and Volcengine Ark, all through eino-ext.
package provider

import (
	"fmt"
	"strings"

	"github.com/54b3r/librarian-go/internal/config"
)

// Backend enumerates the supported chat model providers.
type Backend string

const (
	// BackendOpenAI selects the OpenAI API.
	BackendOpenAI Backend = "openai"
	// BackendAzure selects Azure OpenAI Service.
	BackendAzure Backend = "azure"
	// BackendOllama selects a locally running Ollama instance.
	BackendOllama Backend = "ollama"
	// BackendGemini selects Google Gemini via AI Studio.
	BackendGemini Backend = "gemini"
	// BackendArk selects Volcengine Ark.
	BackendArk Backend = "ark"
)

// DefaultOpenAIModel is the chat model used when none is configured.
const DefaultOpenAIModel = "gpt-4o-mini"

// Config holds provider configuration. Only the block matching Backend is
// consulted.
type Config struct {
	// Backend identifies which provider to use.
	Backend Backend

	OpenAI      ProviderOpenAI
	AzureOpenAI ProviderAzureOpenAI
	Ollama      ProviderOllama
	Gemini      ProviderGemini
	Ark         ProviderArk
}

// ProviderOpenAI holds OpenAI settings.
type ProviderOpenAI struct {
	// APIKey is read from OPENAI_API_KEY.
	APIKey string
	// Model is read from OPENAI_CHAT_MODEL (or OPENAI_MODEL).
	Model string
	// BaseURL overrides https://api.openai.com/v1 (OPENAI_BASE_URL).
	BaseURL string
}

// ProviderAzureOpenAI holds Azure OpenAI settings.
type ProviderAzureOpenAI struct {
	APIKey     string
	Endpoint   string
	Deployment string
	APIVersion string
}

// ProviderOllama holds Ollama settings.
type ProviderOllama struct {
	Host  string
	Model string
}

// ProviderGemini holds Google Gemini settings.
type ProviderGemini struct {
	APIKey string
	Model  string
}

// ProviderArk holds Volcengine Ark settings.
type ProviderArk struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Validate reports the first missing setting for the selected backend.
// Missing credentials wrap config.ErrMissingCredential.
func (c *Config) Validate() error {
	missingCred := func(env string) error {
		return fmt.Errorf("provider: %s backend: %w: %s is not set", c.Backend, config.ErrMissingCredential, env)
	}
	missing := func(env string) error {
		return fmt.Errorf("provider: %s backend: %s is required", c.Backend, env)
	}

	switch c.Backend {
	case BackendOpenAI:
		if c.OpenAI.APIKey == "" {
			return missingCred("OPENAI_API_KEY")
		}
		if c.OpenAI.Model == "" {
			return missing("OPENAI_CHAT_MODEL")
		}
	case BackendAzure:
		if c.AzureOpenAI.APIKey == "" {
			return missingCred("AZURE_OPENAI_API_KEY")
		}
		if c.AzureOpenAI.Endpoint == "" {
			return missing("AZURE_OPENAI_ENDPOINT")
		}
		if c.AzureOpenAI.Deployment == "" {
			return missing("AZURE_OPENAI_DEPLOYMENT")
		}
	case BackendOllama:
		if c.Ollama.Host == "" {
			return missing("OLLAMA_HOST")
		}
		if c.Ollama.Model == "" {
			return missing("OLLAMA_MODEL")
		}
	case BackendGemini:
		if c.Gemini.APIKey == "" {
			return missingCred("GOOGLE_API_KEY")
		}
		if c.Gemini.Model == "" {
			return missing("GEMINI_MODEL")
		}
	case BackendArk:
		if c.Ark.APIKey == "" {
			return missingCred("ARK_API_KEY")
		}
		if c.Ark.Model == "" {
			return missing("ARK_MODEL")
		}
	default:
		return fmt.Errorf("provider: unknown backend %q (valid: openai, azure, ollama, gemini, ark)", c.Backend)
	}
	return nil
}

// ModelName returns the model or deployment the selected backend will use.
func (c *Config) ModelName() string {
	switch c.Backend {
	case BackendOpenAI:
		return c.OpenAI.Model
	case BackendAzure:
		return c.AzureOpenAI.Deployment
	case BackendOllama:
		return c.Ollama.Model
	case BackendGemini:
		return c.Gemini.Model
	case BackendArk:
		return c.Ark.Model
	default:
		return ""
	}
}

// SupportsTemperature reports whether the selected model accepts a sampling
// temperature. OpenAI o-series and codex-class models reject it.
func (c *Config) SupportsTemperature() bool {
	switch c.Backend {
	case BackendOpenAI, BackendAzure:
		return !isReasoningModel(c.ModelName())
	default:
		return true
	}
}

// isReasoningModel matches o1/o3/o4 and codex model or deployment names by
// prefix, ignoring case.
func isReasoningModel(name string) bool {
	n := strings.ToLower(name)
	for _, p := range []string{"o1", "o3", "o4", "codex"} {
		if n == p || strings.HasPrefix(n, p+"-") {
			return true
		}
	}
	return false
}

// HasCredential reports whether the selected backend's API key is present.
// Ollama needs none and always reports true.
func (c *Config) HasCredential() bool {
	switch c.Backend {
	case BackendOpenAI:
		return c.OpenAI.APIKey != ""
	case BackendAzure:
		return c.AzureOpenAI.APIKey != ""
	case BackendOllama:
		return true
	case BackendGemini:
		return c.Gemini.APIKey != ""
	case BackendArk:
		return c.Ark.APIKey != ""
	default:
		return false
	}
}
