package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// apiError extracts a provider's error message from a decoded non-2xx body.
type apiError interface {
	message() string
}

// postJSON sends in as a JSON POST to url and decodes the reply into out.
// A non-2xx status is reported with the provider's message when out carries
// one. Every error is wrapped in ErrEmbedding and tagged with backend.
func postJSON(ctx context.Context, client *http.Client, backend, url string, header http.Header, in any, out apiError) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%w: %s: encode: %w", ErrEmbedding, backend, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %s: build request: %w", ErrEmbedding, backend, err)
	}
	for k, vs := range header {
		req.Header[k] = vs
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrEmbedding, backend, err)
	}
	defer resp.Body.Close()

	decodeErr := json.NewDecoder(resp.Body).Decode(out)
	if resp.StatusCode/100 != 2 {
		if decodeErr == nil && out.message() != "" {
			return fmt.Errorf("%w: %s: HTTP %d: %s", ErrEmbedding, backend, resp.StatusCode, out.message())
		}
		return fmt.Errorf("%w: %s: HTTP %d", ErrEmbedding, backend, resp.StatusCode)
	}
	if decodeErr != nil {
		return fmt.Errorf("%w: %s: decode: %w", ErrEmbedding, backend, decodeErr)
	}
	return nil
}

// checkCount enforces one vector per input text.
func checkCount(backend string, want, got int) error {
	if want != got {
		return fmt.Errorf("%w: %s: expected %d embeddings, got %d", ErrEmbedding, backend, want, got)
	}
	return nil
}
