package monitor

import (
	"math/big"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sourcewatch/monitor/internal/chainclient"
)

// chainContext is the mutable state the monitor owns for one configured
// blockchain (spec §3): an immutable name/endpoint pair, a blockchain
// client bound to that endpoint, a metadata queue, a source queue, and a
// monotonically non-decreasing cursor.
type chainContext struct {
	name     string
	endpoint string

	client  chainclient.Client
	chainID *big.Int
	log     *logrus.Entry

	cursorMu sync.Mutex
	cursor   *big.Int

	headFailures int

	metadataQueue *queue[MetadataEntry]
	sourceQueue   *queue[SourceEntry]
}

func newChainContext(cfg ChainConfig, client chainclient.Client, chainID *big.Int, log *logrus.Entry) *chainContext {
	return &chainContext{
		name:          cfg.Name,
		endpoint:      cfg.Endpoint,
		client:        client,
		chainID:       chainID,
		log:           log.WithField("chain", cfg.Name),
		cursor:        big.NewInt(0),
		metadataQueue: newQueue(func(e MetadataEntry) time.Time { return e.Timestamp }),
		sourceQueue:   newQueue(func(e SourceEntry) time.Time { return e.Timestamp }),
	}
}

func (c *chainContext) setCursor(n *big.Int) {
	c.cursorMu.Lock()
	defer c.cursorMu.Unlock()
	c.cursor = new(big.Int).Set(n)
}

func (c *chainContext) getCursor() *big.Int {
	c.cursorMu.Lock()
	defer c.cursorMu.Unlock()
	return new(big.Int).Set(c.cursor)
}
