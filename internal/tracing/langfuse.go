// Package tracing wires the two optional trace sinks: Langfuse, which
// receives Eino model callbacks, and an OpenTelemetry OTLP exporter, which
// receives the librarian's own spans. Both are disabled unless configured.
package tracing

import (
	"os"

	"github.com/cloudwego/eino-ext/callbacks/langfuse"
	"github.com/cloudwego/eino/callbacks"
)

// SetupLangfuse registers a global Eino callback handler that ships model
// calls to Langfuse when LANGFUSE_PUBLIC_KEY and LANGFUSE_SECRET_KEY are set.
// The returned flush must run before process exit. When Langfuse is not
// configured flush is a no-op and enabled is false.
func SetupLangfuse(release string) (flush func(), enabled bool) {
	publicKey := os.Getenv("LANGFUSE_PUBLIC_KEY")
	secretKey := os.Getenv("LANGFUSE_SECRET_KEY")
	if publicKey == "" || secretKey == "" {
		return func() {}, false
	}

	host := os.Getenv("LANGFUSE_HOST")
	if host == "" {
		host = "http://localhost:3000"
	}

	handler, flusher := langfuse.NewLangfuseHandler(&langfuse.Config{
		Host:      host,
		PublicKey: publicKey,
		SecretKey: secretKey,
		Name:      "librarian",
		Release:   release,
	})
	callbacks.AppendGlobalHandlers(handler)

	return flusher, true
}
