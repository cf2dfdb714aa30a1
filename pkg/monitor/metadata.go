package monitor

import (
	"context"
	"encoding/json"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/sourcewatch/monitor/internal/metrics"
	"github.com/sourcewatch/monitor/internal/repository"
)

// metadataTick runs the metadata fetcher for one chain (spec §4.4):
// evict stale entries, then attempt to fetch each surviving entry's
// metadata document from its referenced storage provider.
func (m *Monitor) metadataTick(ctx context.Context, c *chainContext) {
	if evicted := c.metadataQueue.evict(MetadataQueueMaxAge); evicted > 0 {
		c.log.WithField("count", evicted).Info("[METADATA] evicted stale entries")
	}

	entries := c.metadataQueue.snapshot()
	metrics.MetadataQueueSize.WithLabelValues(c.name).Set(float64(len(entries)))

	sem := semaphore.NewWeighted(FetchConcurrencyCap)
	g, gctx := errgroup.WithContext(ctx)

	for addr, entry := range entries {
		addr, entry := addr, entry
		if err := sem.Acquire(gctx, 1); err != nil {
			continue
		}
		g.Go(func() error {
			defer sem.Release(1)
			m.fetchMetadata(gctx, c, addr, entry)
			return nil
		})
	}

	_ = g.Wait()
}

func (m *Monitor) fetchMetadata(ctx context.Context, c *chainContext, address string, entry MetadataEntry) {
	var raw []byte
	var storePath string
	var err error

	switch entry.Footer.Variant {
	case VariantSwarmBzzr1:
		raw, err = m.swarm.FetchRaw(ctx, entry.Footer.SwarmHash)
		storePath = repository.SwarmPath(entry.Footer.SwarmHash)
	case VariantIPFS:
		raw, err = m.ipfs.Cat(ctx, entry.Footer.IPFSCID)
		storePath = repository.IPFSPath(entry.Footer.IPFSCID)
	default:
		return
	}

	if err != nil {
		c.log.WithError(err).WithField("address", address).Debug("[METADATA] fetch failed, retry next tick")
		metrics.FetchTotal.WithLabelValues(c.name, "metadata", "failure").Inc()
		return
	}

	if err := m.repo.Write(storePath, raw); err != nil {
		c.log.WithError(err).WithField("address", address).Warn("[METADATA] failed to write gateway blob")
	}

	if err := m.repo.Write(repository.MetadataPath(c.name, address), raw); err != nil {
		c.log.WithError(err).WithField("address", address).Warn("[METADATA] failed to write metadata.json")
	}

	metrics.FetchTotal.WithLabelValues(c.name, "metadata", "success").Inc()

	var doc Metadata
	if err := json.Unmarshal(raw, &doc); err != nil {
		// Parse errors are treated as transient for this tick, but the
		// metadata-queue entry is removed regardless: the file is
		// already on disk and the next tick has nothing left to retry
		// against (spec §4.4, §7 category 3).
		c.log.WithError(err).WithField("address", address).Warn("[METADATA] malformed metadata document, dropping")
		c.metadataQueue.remove(address)
		return
	}

	c.metadataQueue.remove(address)

	if len(doc.Sources) == 0 {
		return
	}

	pending := make(map[string]SourceDescriptor, len(doc.Sources))
	for k, v := range doc.Sources {
		pending[k] = v
	}

	c.sourceQueue.add(address, SourceEntry{
		Address:        address,
		Chain:          c.name,
		RawMetadata:    raw,
		PendingSources: pending,
		Timestamp:      nowFunc(),
	})

	metrics.SourceQueueSize.WithLabelValues(c.name).Set(float64(c.sourceQueue.len()))
	c.log.WithField("address", address).WithField("sources", len(pending)).Info("[METADATA] promoted to source queue")
}
