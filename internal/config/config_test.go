package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

// clearEnv unsets keys for the duration of the test. t.Setenv registers the
// restore; the Unsetenv makes the key absent rather than empty.
func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad_NoFile(t *testing.T) {
	t.Parallel()

	log := slog.Default()
	path, err := Load("/nonexistent/path/config.yaml", log)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "" {
		t.Errorf("expected empty path, got %q", path)
	}
}

func TestLoad_ValidFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	content := []byte(`
model:
  provider: openai
  openai:
    chat_model: gpt-4o
    embed_model: text-embedding-3-large
embedding:
  dimensions: 3072
qdrant:
  host: qdrant.internal
  port: 6334
  collection: shelf
data:
  dir: /srv/books
logging:
  level: debug
  format: text
`)

	if err := os.WriteFile(cfgPath, content, 0o644); err != nil {
		t.Fatal(err)
	}

	clearEnv(t,
		"MODEL_PROVIDER", "OPENAI_CHAT_MODEL", "OPENAI_EMBED_MODEL",
		"EMBEDDING_DIMENSIONS", "QDRANT_HOST", "QDRANT_PORT", "QDRANT_COLLECTION",
		"LIBRARIAN_DATA_DIR", "LOG_LEVEL", "LOG_FORMAT", "QDRANT_TLS",
	)

	log := slog.Default()
	loaded, err := Load(cfgPath, log)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded != cfgPath {
		t.Errorf("loaded path: got %q, want %q", loaded, cfgPath)
	}

	checks := map[string]string{
		"MODEL_PROVIDER":       "openai",
		"OPENAI_CHAT_MODEL":    "gpt-4o",
		"OPENAI_EMBED_MODEL":   "text-embedding-3-large",
		"EMBEDDING_DIMENSIONS": "3072",
		"QDRANT_HOST":          "qdrant.internal",
		"QDRANT_PORT":          "6334",
		"QDRANT_COLLECTION":    "shelf",
		"LIBRARIAN_DATA_DIR":   "/srv/books",
		"LOG_LEVEL":            "debug",
		"LOG_FORMAT":           "text",
	}
	for k, want := range checks {
		if got := os.Getenv(k); got != want {
			t.Errorf("%s: got %q, want %q", k, got, want)
		}
	}
	if _, ok := os.LookupEnv("QDRANT_TLS"); ok {
		t.Error("QDRANT_TLS: false value should not be applied")
	}
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	content := []byte(`
model:
  provider: ollama
`)
	if err := os.WriteFile(cfgPath, content, 0o644); err != nil {
		t.Fatal(err)
	}

	// Set before loading; the YAML value must not overwrite it.
	t.Setenv("MODEL_PROVIDER", "openai")

	log := slog.Default()
	if _, err := Load(cfgPath, log); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if got := os.Getenv("MODEL_PROVIDER"); got != "openai" {
		t.Errorf("MODEL_PROVIDER: expected env override %q, got %q", "openai", got)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(cfgPath, []byte("{{invalid yaml"), 0o644); err != nil {
		t.Fatal(err)
	}

	log := slog.Default()
	if _, err := Load(cfgPath, log); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	content := []byte("OPENAI_CHAT_MODEL=gpt-4o-mini\nOPENAI_EMBED_MODEL=from-dotenv\n")
	if err := os.WriteFile(envPath, content, 0o644); err != nil {
		t.Fatal(err)
	}

	clearEnv(t, "OPENAI_CHAT_MODEL")
	t.Setenv("OPENAI_EMBED_MODEL", "from-shell")

	ok, err := LoadDotEnv(envPath, slog.Default())
	if err != nil {
		t.Fatalf("LoadDotEnv failed: %v", err)
	}
	if !ok {
		t.Fatal("expected file to be loaded")
	}
	if got := os.Getenv("OPENAI_CHAT_MODEL"); got != "gpt-4o-mini" {
		t.Errorf("OPENAI_CHAT_MODEL: got %q, want %q", got, "gpt-4o-mini")
	}
	if got := os.Getenv("OPENAI_EMBED_MODEL"); got != "from-shell" {
		t.Errorf("OPENAI_EMBED_MODEL: shell value must win, got %q", got)
	}
}

func TestLoadDotEnv_Missing(t *testing.T) {
	t.Parallel()

	ok, err := LoadDotEnv(filepath.Join(t.TempDir(), ".env"), slog.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected no file to be loaded")
	}
}

func TestRequireCredential(t *testing.T) {
	clearEnv(t, "LIBRARIAN_TEST_KEY")

	err := RequireCredential("LIBRARIAN_TEST_KEY")
	if !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}

	t.Setenv("LIBRARIAN_TEST_KEY", "   ")
	if err := RequireCredential("LIBRARIAN_TEST_KEY"); !errors.Is(err, ErrMissingCredential) {
		t.Errorf("blank value should be treated as missing, got %v", err)
	}

	t.Setenv("LIBRARIAN_TEST_KEY", "sk-test")
	if err := RequireCredential("LIBRARIAN_TEST_KEY"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestIntStr(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   int
		want string
	}{
		{0, ""},
		{6334, "6334"},
		{-1, "-1"},
	}
	for _, tt := range tests {
		if got := intStr(tt.in); got != tt.want {
			t.Errorf("intStr(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
