// Package audit logs a structured record of each CLI command invocation:
// the command name, where configuration came from, and the operational
// environment with secrets reduced to set/unset.
package audit

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// sections groups the audited env vars by the component that reads them.
// Each section becomes one slog group in the audit line.
var sections = []struct {
	group string
	keys  []string
}{
	{"model", []string{
		"MODEL_PROVIDER",
		"OPENAI_API_KEY", "OPENAI_CHAT_MODEL", "OPENAI_BASE_URL",
		"AZURE_OPENAI_API_KEY", "AZURE_OPENAI_ENDPOINT", "AZURE_OPENAI_DEPLOYMENT",
		"OLLAMA_HOST", "OLLAMA_MODEL",
		"GOOGLE_API_KEY", "GEMINI_MODEL",
		"ARK_API_KEY", "ARK_MODEL",
	}},
	{"embedding", []string{"EMBEDDING_PROVIDER", "EMBEDDING_MODEL", "OPENAI_EMBED_MODEL", "EMBEDDING_API_KEY"}},
	{"qdrant", []string{"QDRANT_HOST", "QDRANT_PORT", "QDRANT_COLLECTION", "QDRANT_API_KEY"}},
	{"runtime", []string{"LIBRARIAN_DATA_DIR", "LOG_LEVEL", "LOG_FORMAT"}},
	{"tracing", []string{"LANGFUSE_PUBLIC_KEY", "LANGFUSE_SECRET_KEY", "OTEL_EXPORTER_OTLP_ENDPOINT"}},
}

// secretSuffixes mark a variable as a credential.
var secretSuffixes = []string{"_API_KEY", "_SECRET_KEY", "_PUBLIC_KEY"}

// Source describes where the command's configuration was read from.
type Source struct {
	// ConfigPath is the YAML file that was applied, or "" if none.
	ConfigPath string
	DotEnv     bool
}

// LogCommandStart emits one info-level audit entry for command.
func LogCommandStart(ctx context.Context, log *slog.Logger, command string, src Source) {
	attrs := []slog.Attr{
		slog.String("command", command),
		slog.String("config_file", displayPath(src.ConfigPath)),
		slog.Bool("dotenv", src.DotEnv),
	}
	for _, s := range sections {
		group := make([]any, 0, len(s.keys))
		for _, k := range s.keys {
			group = append(group, slog.String(k, SanitiseKey(k, os.Getenv(k))))
		}
		attrs = append(attrs, slog.Group(s.group, group...))
	}
	log.LogAttrs(ctx, slog.LevelInfo, "audit: command start", attrs...)
}

// SanitiseKey renders value for the audit log. Credentials collapse to
// "set"; anything empty is "unset".
func SanitiseKey(key, value string) string {
	switch {
	case value == "":
		return "unset"
	case isSecret(key):
		return "set"
	default:
		return value
	}
}

func isSecret(key string) bool {
	for _, suf := range secretSuffixes {
		if strings.HasSuffix(key, suf) {
			return true
		}
	}
	return false
}

// displayPath shortens the home directory to "~"; "" becomes "none".
func displayPath(p string) string {
	if p == "" {
		return "none"
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" && strings.HasPrefix(p, home) {
		return "~" + strings.TrimPrefix(p, home)
	}
	return p
}
