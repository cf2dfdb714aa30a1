// Package gateway holds the Swarm and IPFS storage-gateway clients
// (spec §6.2). They follow the request-building idiom of the teacher's
// internal/services/webhook and internal/services/bucket packages:
// http.NewRequestWithContext plus http.DefaultClient, checked against a
// 2xx status.
package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// Swarm fetches raw blobs from a Swarm gateway.
type Swarm struct {
	BaseURL string
}

func NewSwarm(baseURL string) *Swarm {
	return &Swarm{BaseURL: baseURL}
}

// FetchRaw fetches <gateway>/bzz-raw:/<hexHash>, used by the metadata
// fetcher (spec §4.4).
func (s *Swarm) FetchRaw(ctx context.Context, hexHash string) ([]byte, error) {
	return s.get(ctx, fmt.Sprintf("bzz-raw:/%s", hexHash))
}

// FetchURL fetches <gateway><url>, where url is a manifest-provided
// path already beginning with "bzz-raw" (spec §4.5).
func (s *Swarm) FetchURL(ctx context.Context, url string) ([]byte, error) {
	return s.get(ctx, url)
}

func (s *Swarm) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+path, nil)
	if err != nil {
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("swarm gateway: unexpected status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
