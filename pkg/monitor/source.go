package monitor

import (
	"bytes"
	"context"
	"encoding/hex"
	"strings"

	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/sourcewatch/monitor/internal/gateway"
	"github.com/sourcewatch/monitor/internal/metrics"
	"github.com/sourcewatch/monitor/internal/repository"
)

// sourceTick runs the source fetcher for one chain (spec §4.5): evict
// stale entries, then for every contract still missing source files
// race its declared URLs and persist whichever responds first and
// verifies against the descriptor's digest.
func (m *Monitor) sourceTick(ctx context.Context, c *chainContext) {
	if evicted := c.sourceQueue.evict(SourceQueueMaxAge); evicted > 0 {
		c.log.WithField("count", evicted).Info("[SOURCE] evicted stale entries")
	}

	entries := c.sourceQueue.snapshot()
	metrics.SourceQueueSize.WithLabelValues(c.name).Set(float64(len(entries)))

	sem := semaphore.NewWeighted(FetchConcurrencyCap)
	g, gctx := errgroup.WithContext(ctx)

	for addr, entry := range entries {
		addr, entry := addr, entry
		if err := sem.Acquire(gctx, 1); err != nil {
			continue
		}
		g.Go(func() error {
			defer sem.Release(1)
			m.fetchSources(gctx, c, addr, entry)
			return nil
		})
	}

	_ = g.Wait()
}

func (m *Monitor) fetchSources(ctx context.Context, c *chainContext, address string, entry SourceEntry) {
	current, ok := c.sourceQueue.get(address)
	if !ok {
		return
	}

	for key, descriptor := range current.PendingSources {
		key, descriptor := key, descriptor
		if m.fetchOneSource(ctx, c, address, key, descriptor) {
			delete(current.PendingSources, key)
		}
	}

	if len(current.PendingSources) == 0 {
		c.sourceQueue.remove(address)
		c.log.WithField("address", address).Info("[SOURCE] all sources collected")
		return
	}

	current.Timestamp = entry.Timestamp
	c.sourceQueue.set(address, current)
}

// fetchOneSource resolves a single source-file key. It checks the
// keccak256 cache first, then races the descriptor's URLs, verifies the
// winner against descriptor.Keccak256, and persists it under the
// contract's sanitized source path. It reports whether the key is now
// satisfied and can be dropped from the pending set.
func (m *Monitor) fetchOneSource(ctx context.Context, c *chainContext, address, key string, descriptor SourceDescriptor) bool {
	sanitized := repository.SanitizeKey(key)
	destPath := repository.SourcePath(c.name, address, sanitized)

	if cached, err := m.repo.Read(repository.KeccakPath(descriptor.Keccak256)); err == nil {
		if verifyKeccak256(cached, descriptor.Keccak256) {
			_ = m.repo.Write(destPath, cached)
			return true
		}
	}

	raw, ok := m.raceURLs(ctx, descriptor.URLs)
	if !ok {
		metrics.FetchTotal.WithLabelValues(c.name, "source", "failure").Inc()
		return false
	}

	if !verifyKeccak256(raw, descriptor.Keccak256) {
		c.log.WithField("address", address).WithField("key", key).Warn("[SOURCE] digest mismatch, discarding")
		metrics.FetchTotal.WithLabelValues(c.name, "source", "failure").Inc()
		return false
	}

	if err := m.repo.Write(repository.KeccakPath(descriptor.Keccak256), raw); err != nil {
		c.log.WithError(err).WithField("address", address).Warn("[SOURCE] failed to write keccak256 cache entry")
	}
	if err := m.repo.Write(destPath, raw); err != nil {
		c.log.WithError(err).WithField("address", address).WithField("key", key).Warn("[SOURCE] failed to write source file")
		return false
	}

	metrics.FetchTotal.WithLabelValues(c.name, "source", "success").Inc()
	return true
}

// raceURLs fetches every candidate URL concurrently and returns the
// first one to succeed (spec §4.5: multiple mirrors for the same
// source file, any one is acceptable).
func (m *Monitor) raceURLs(ctx context.Context, urls []string) ([]byte, bool) {
	if len(urls) == 0 {
		return nil, false
	}

	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		data []byte
		err  error
	}

	results := make(chan result, len(urls))
	for _, url := range urls {
		url := url
		go func() {
			data, err := m.fetchURL(raceCtx, url)
			results <- result{data: data, err: err}
		}()
	}

	var lastErr error
	for i := 0; i < len(urls); i++ {
		r := <-results
		if r.err == nil {
			return r.data, true
		}
		lastErr = r.err
	}
	_ = lastErr
	return nil, false
}

func (m *Monitor) fetchURL(ctx context.Context, url string) ([]byte, error) {
	switch {
	case strings.HasPrefix(url, "bzzr1://"):
		return m.swarm.FetchRaw(ctx, strings.TrimPrefix(url, "bzzr1://"))
	case strings.HasPrefix(url, "bzz-raw://"):
		return m.swarm.FetchRaw(ctx, strings.TrimPrefix(url, "bzz-raw://"))
	case strings.HasPrefix(url, "bzz-raw"):
		return m.swarm.FetchURL(ctx, url)
	case strings.HasPrefix(url, "dweb:/ipfs/"):
		if cid, ok := gateway.CIDFromDwebURL(url); ok {
			return m.ipfs.Cat(ctx, cid)
		}
		return nil, gateway.ErrUnrecognizedURL
	default:
		return nil, gateway.ErrUnrecognizedURL
	}
}

func verifyKeccak256(data []byte, wantHex string) bool {
	if wantHex == "" {
		return true
	}
	sum := gethcrypto.Keccak256(data)
	want, err := hex.DecodeString(strings.TrimPrefix(wantHex, "0x"))
	if err != nil {
		return false
	}
	return bytes.Equal(sum, want)
}
