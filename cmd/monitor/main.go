package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"

	"github.com/sourcewatch/monitor/internal/config"
	"github.com/sourcewatch/monitor/internal/gateway"
	"github.com/sourcewatch/monitor/internal/metrics"
	"github.com/sourcewatch/monitor/internal/notify"
	"github.com/sourcewatch/monitor/internal/repository"
	"github.com/sourcewatch/monitor/pkg/monitor"
)

func main() {
	log.Default().Println("launching monitor...")

	env := flag.String("env", ".env", "path to .env file")
	chainsPath := flag.String("chains", "", "path to a chains.json override file")
	chain := flag.String("chain", "", "run against a single custom chain, as name=endpoint")
	noMetrics := flag.Bool("no-metrics", false, "disable the prometheus metrics endpoint")

	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conf, err := config.New(ctx, *env)
	if err != nil {
		log.Fatal(err)
	}

	if conf.SentryURL != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              conf.SentryURL,
			TracesSampleRate: 1.0,
		}); err != nil {
			log.Fatalf("sentry.Init: %s", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	var chains []monitor.ChainConfig
	if *chain != "" {
		cfg, err := parseCustomChain(*chain)
		if err != nil {
			log.Fatal(err)
		}
		chains = []monitor.ChainConfig{cfg}
	} else {
		chains, err = conf.LoadChains(*chainsPath)
		if err != nil {
			log.Fatal(err)
		}
	}

	logger.WithField("count", len(chains)).Info("resolved chain set")

	repo := repository.New(conf.RepositoryPath)
	swarm := gateway.NewSwarm(conf.SwarmGateway)
	ipfs := gateway.NewIPFS(conf.IPFSCatRequest, nil)

	var notifier notify.Notifier = notify.Noop{}
	if conf.DiscordWebhookURL != "" {
		notifier = notify.NewWebhook(conf.DiscordWebhookURL)
	}

	if !*noMetrics {
		go func() {
			logger.WithField("addr", conf.MetricsAddr).Info("serving metrics")
			if err := metrics.Serve(conf.MetricsAddr); err != nil {
				logger.WithError(err).Warn("metrics server stopped")
			}
		}()
	}

	m := monitor.New(monitor.Options{
		BlockTime: conf.BlockTime(),
		Repo:      repo,
		Swarm:     swarm,
		IPFS:      ipfs,
		Notifier:  notifier,
		Logger:    logger,
	})

	if err := m.Start(ctx, chains); err != nil {
		log.Fatal(err)
	}

	logger.Info("monitor started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down...")
	m.Stop()
}

// parseCustomChain parses the -chain flag's "name=endpoint" form (spec
// §4.1's "optional custom chain" start parameter).
func parseCustomChain(spec string) (monitor.ChainConfig, error) {
	name, endpoint, ok := strings.Cut(spec, "=")
	if !ok || name == "" || endpoint == "" {
		return monitor.ChainConfig{}, fmt.Errorf("invalid -chain value %q, expected name=endpoint", spec)
	}
	return monitor.ChainConfig{Name: name, Endpoint: endpoint}, nil
}
