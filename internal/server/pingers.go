package server

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	"github.com/54b3r/librarian-go/internal/provider"
)

// pingFunc adapts a probe function to Pinger.
type pingFunc struct {
	name  string
	probe func(context.Context) error
}

func (p pingFunc) Name() string { return p.name }

func (p pingFunc) Ping(ctx context.Context) error {
	if err := p.probe(ctx); err != nil {
		return fmt.Errorf("%s unreachable: %w", p.name, err)
	}
	return nil
}

// NewLLMPinger reports the chat backend through its token-free health
// check. name is the backend label, e.g. "openai".
func NewLLMPinger(check provider.HealthChecker, name string) Pinger {
	return pingFunc{name: name, probe: check.HealthCheck}
}

// NewQdrantPinger reports the vector store through Qdrant's HealthCheck RPC.
func NewQdrantPinger(client *qdrant.Client) Pinger {
	return pingFunc{name: "qdrant", probe: func(ctx context.Context) error {
		_, err := client.HealthCheck(ctx)
		return err
	}}
}
