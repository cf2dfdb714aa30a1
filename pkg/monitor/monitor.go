package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sourcewatch/monitor/internal/chainclient"
	"github.com/sourcewatch/monitor/internal/gateway"
	"github.com/sourcewatch/monitor/internal/notify"
	"github.com/sourcewatch/monitor/internal/repository"
)

// Dialer opens a chainclient.Client against an endpoint. It is injected
// so tests can substitute a fake chain client without dialing real
// JSON-RPC (spec §6.1 is an external collaborator; the monitor only
// depends on the chainclient.Client interface).
type Dialer func(ctx context.Context, endpoint string) (chainclient.Client, error)

// Monitor owns the full chain set and the three shared tickers that
// drive block detection, metadata fetching and source fetching (spec
// §2, §4.1).
type Monitor struct {
	dial      Dialer
	blockTime time.Duration
	repo      *repository.Repository
	swarm     *gateway.Swarm
	ipfs      *gateway.IPFS
	notifier  notify.Notifier
	log       *logrus.Entry

	mu     sync.Mutex
	chains map[string]*chainContext

	cancel context.CancelFunc
	done   chan struct{}
}

type Options struct {
	BlockTime time.Duration
	Repo      *repository.Repository
	Swarm     *gateway.Swarm
	IPFS      *gateway.IPFS
	Notifier  notify.Notifier
	Logger    *logrus.Logger
	Dial      Dialer
}

func New(opts Options) *Monitor {
	if opts.BlockTime <= 0 {
		opts.BlockTime = DefaultBlockTime
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Noop{}
	}
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}
	if opts.Dial == nil {
		opts.Dial = func(ctx context.Context, endpoint string) (chainclient.Client, error) {
			return chainclient.Dial(ctx, endpoint)
		}
	}

	return &Monitor{
		dial:      opts.Dial,
		blockTime: opts.BlockTime,
		repo:      opts.Repo,
		swarm:     opts.Swarm,
		ipfs:      opts.IPFS,
		notifier:  opts.Notifier,
		log:       opts.Logger.WithField("component", "monitor"),
		chains:    make(map[string]*chainContext),
	}
}

// Start initializes the given chain set (or the caller-supplied custom
// set), reads each chain's current head as its starting cursor, and
// arms the three tickers (spec §4.1).
func (m *Monitor) Start(ctx context.Context, chains []ChainConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil {
		return fmt.Errorf("monitor: already started")
	}

	for _, cfg := range chains {
		client, err := m.dial(ctx, cfg.Endpoint)
		if err != nil {
			return fmt.Errorf("monitor: dialing %s: %w", cfg.Name, err)
		}

		chainID, err := client.ChainID()
		if err != nil {
			client.Close()
			return fmt.Errorf("monitor: reading chain id for %s: %w", cfg.Name, err)
		}

		head, err := client.LatestBlock()
		if err != nil {
			client.Close()
			return fmt.Errorf("monitor: reading head for %s: %w", cfg.Name, err)
		}

		cc := newChainContext(cfg, client, chainID, m.log)
		cc.setCursor(head)
		m.chains[cfg.Name] = cc
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})

	go m.run(runCtx)

	return nil
}

// Stop cancels future ticks. In-flight fetches run to completion or
// their own transport timeout; no queue state is flushed (spec §4.1,
// §5). A second Stop is a no-op.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	done := m.done
	m.cancel = nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done

	m.mu.Lock()
	for _, c := range m.chains {
		c.client.Close()
	}
	m.chains = make(map[string]*chainContext)
	m.mu.Unlock()
}

func (m *Monitor) run(ctx context.Context) {
	defer close(m.done)

	blockTicker := time.NewTicker(m.blockTime)
	metadataTicker := time.NewTicker(m.blockTime)
	sourceTicker := time.NewTicker(m.blockTime)
	defer blockTicker.Stop()
	defer metadataTicker.Stop()
	defer sourceTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-blockTicker.C:
			m.forEachChain(ctx, func(c *chainContext) { m.blockTick(ctx, c) })
		case <-metadataTicker.C:
			m.forEachChain(ctx, func(c *chainContext) { m.metadataTick(ctx, c) })
		case <-sourceTicker.C:
			m.forEachChain(ctx, func(c *chainContext) { m.sourceTick(ctx, c) })
		}
	}
}

// forEachChain fans work out across chains (spec §5: "within each tick,
// per-chain work is independent and may execute in parallel"). Each
// chain's own queues are only ever touched by that chain's own tick
// goroutine plus the upstream stage's promotion, so no cross-chain
// locking is needed here.
func (m *Monitor) forEachChain(ctx context.Context, fn func(*chainContext)) {
	m.mu.Lock()
	chains := make([]*chainContext, 0, len(m.chains))
	for _, c := range m.chains {
		chains = append(chains, c)
	}
	m.mu.Unlock()

	var wg sync.WaitGroup
	for _, c := range chains {
		c := c
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(c)
		}()
	}
	wg.Wait()
}
