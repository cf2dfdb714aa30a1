package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrUnrecognizedURL is returned when a source descriptor URL doesn't
// match any known gateway scheme.
var ErrUnrecognizedURL = errors.New("gateway: unrecognized url scheme")

// Provider is the in-process IPFS collaborator (spec §6.4's
// ipfsProvider): when set, it is preferred over the HTTP cat endpoint.
type Provider interface {
	Cat(ctx context.Context, path string) ([]byte, error)
}

// IPFS fetches blobs either via an in-process Provider or, absent one,
// the configured HTTP cat endpoint (spec §6.2).
type IPFS struct {
	CatRequestPrefix string
	Provider         Provider
}

func NewIPFS(catRequestPrefix string, provider Provider) *IPFS {
	return &IPFS{CatRequestPrefix: catRequestPrefix, Provider: provider}
}

// Cat fetches the content identified by cid.
func (f *IPFS) Cat(ctx context.Context, cid string) ([]byte, error) {
	if f.Provider != nil {
		return f.Provider.Cat(ctx, cid)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.CatRequestPrefix+cid, nil)
	if err != nil {
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("ipfs cat: unexpected status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// CIDFromDwebURL extracts the CID from a manifest URL of the form
// "dweb:/ipfs/<cid>" (spec §4.5).
func CIDFromDwebURL(url string) (string, bool) {
	const prefix = "dweb:/ipfs/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}
