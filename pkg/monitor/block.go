package monitor

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/sourcewatch/monitor/internal/cbor"
	"github.com/sourcewatch/monitor/internal/cidenc"
	"github.com/sourcewatch/monitor/internal/metrics"
)

// blockTick runs the block detector for one chain (spec §4.2): read the
// chain head, clamp to the catch-up cap, walk every new block and enqueue
// a metadata-queue entry for every contract-creation transaction whose
// bytecode carries a recognized footer.
func (m *Monitor) blockTick(ctx context.Context, c *chainContext) {
	head, err := c.client.LatestBlock()
	if err != nil {
		c.headFailures++
		c.log.WithError(err).Warn("[BLOCKS] failed to read chain head, aborting tick")

		if c.headFailures >= HeadFailureThreshold {
			if notifyErr := m.notifier.NotifyError(ctx, c.name, err); notifyErr != nil {
				c.log.WithError(notifyErr).Warn("[BLOCKS] failed to send notification")
			}
		} else if notifyErr := m.notifier.NotifyWarning(ctx, c.name, "chain head unreachable: "+err.Error()); notifyErr != nil {
			c.log.WithError(notifyErr).Warn("[BLOCKS] failed to send notification")
		}
		return
	}
	c.headFailures = 0

	cursor := c.getCursor()
	target := new(big.Int).Add(cursor, big.NewInt(CatchUpCap))
	if target.Cmp(head) > 0 {
		target = head
	}

	if target.Cmp(cursor) <= 0 {
		return
	}

	sem := semaphore.NewWeighted(FetchConcurrencyCap)
	g, gctx := errgroup.WithContext(ctx)

	for n := new(big.Int).Set(cursor); n.Cmp(target) < 0; n.Add(n, big.NewInt(1)) {
		blockNum := new(big.Int).Set(n)

		block, err := c.client.BlockByNumber(blockNum)
		if err != nil {
			c.log.WithError(err).WithField("block", blockNum).Warn("[BLOCKS] failed to fetch block, skipping")
			continue
		}

		metrics.BlocksProcessed.WithLabelValues(c.name).Inc()

		for _, tx := range block.Transactions() {
			if tx.To() != nil {
				continue
			}

			tx := tx
			if err := sem.Acquire(gctx, 1); err != nil {
				continue
			}
			g.Go(func() error {
				defer sem.Release(1)
				m.handleContractCreation(gctx, c, tx)
				return nil
			})

		}
	}

	_ = g.Wait()

	c.setCursor(target)
	metrics.CursorHeight.WithLabelValues(c.name).Set(cursorFloat(target))
}

// handleContractCreation derives the deployed address of a
// contract-creation transaction, fetches its bytecode, decodes the CBOR
// footer and, on success, enqueues a metadata-queue entry (spec §4.2,
// §4.3).
func (m *Monitor) handleContractCreation(ctx context.Context, c *chainContext, tx *types.Transaction) {
	sender, err := types.Sender(types.LatestSignerForChainID(c.chainID), tx)
	if err != nil {
		return
	}

	metrics.ContractsDetected.WithLabelValues(c.name).Inc()

	address := gethcrypto.CreateAddress(sender, tx.Nonce())

	code, err := c.client.GetCode(address)
	if err != nil || len(code) == 0 {
		return
	}

	decoded, err := cbor.DecodeFooter(code)
	if err != nil {
		return
	}

	footer, err := resolveFooter(decoded)
	if err != nil {
		return
	}

	entry := MetadataEntry{
		Address:   address.Hex(),
		Footer:    footer,
		Timestamp: nowFunc(),
	}

	if c.metadataQueue.add(entry.Address, entry) {
		c.log.WithField("address", entry.Address).WithField("variant", entry.Footer.Variant).
			Info("[BLOCKS] queued contract for metadata fetch")
		metrics.MetadataQueueSize.WithLabelValues(c.name).Set(float64(c.metadataQueue.len()))
	}
}

// resolveFooter decides which variant to keep when a footer carries
// both; bzzr1 wins, matching historical behavior (spec §4.3, open
// question resolved in SPEC_FULL.md §12).
func resolveFooter(d cbor.Decoded) (Footer, error) {
	if d.Bzzr1 != nil {
		return Footer{Variant: VariantSwarmBzzr1, SwarmHash: hexNo0x(d.Bzzr1)}, nil
	}
	if d.IPFS != nil {
		cid, err := cidenc.EncodeCID(d.IPFS)
		if err != nil {
			return Footer{}, err
		}
		return Footer{Variant: VariantIPFS, IPFSCID: cid}, nil
	}
	return Footer{}, cbor.ErrNoFooter
}

func cursorFloat(n *big.Int) float64 {
	f, _ := new(big.Float).SetInt(n).Float64()
	return f
}
