// Package config loads the monitor's configuration the way the
// teacher's internal/config package does: an optional .env file via
// godotenv, then struct binding via go-envconfig, with an optional
// community.json-style override file layered on top (here, chains.json,
// per SPEC_FULL.md §9.1/§11.1).
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
	"github.com/sourcewatch/monitor/pkg/monitor"
)

type Config struct {
	InfuraProjectID   string `env:"INFURA_PROJECT_ID"`
	RepositoryPath    string `env:"REPOSITORY_PATH,default=repository"`
	SwarmGateway      string `env:"SWARM_GATEWAY,default=https://swarm-gateways.net/"`
	IPFSCatRequest    string `env:"IPFS_CAT_REQUEST,default=https://ipfs.infura.io:5001/api/v0/cat?arg="`
	BlockTimeSeconds  int    `env:"BLOCK_TIME_SECONDS,default=15"`
	SentryURL         string `env:"SENTRY_URL"`
	DiscordWebhookURL string `env:"DISCORD_WEBHOOK_URL"`
	MetricsAddr       string `env:"METRICS_ADDR,default=:9091"`
}

// chainsFile mirrors the shape of the teacher's community.json: a small
// JSON document that, when present, overrides the default chain set.
type chainsFile struct {
	Chains []monitor.ChainConfig `json:"chains"`
}

func New(ctx context.Context, envpath string) (*Config, error) {
	if envpath != "" {
		log.Default().Println("loading env from file: ", envpath)
		if err := godotenv.Load(envpath); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := envconfig.Process(ctx, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) BlockTime() time.Duration {
	if c.BlockTimeSeconds <= 0 {
		return monitor.DefaultBlockTime
	}
	return time.Duration(c.BlockTimeSeconds) * time.Second
}

// LoadChains resolves the chain set to run against: chainsPath if it
// exists (SPEC_FULL.md §11.1), else the default five-chain set keyed to
// c.InfuraProjectID (spec §4.1).
func (c *Config) LoadChains(chainsPath string) ([]monitor.ChainConfig, error) {
	if chainsPath == "" {
		return monitor.DefaultChains(c.InfuraProjectID), nil
	}

	if _, err := os.Stat(chainsPath); err != nil {
		if os.IsNotExist(err) {
			return monitor.DefaultChains(c.InfuraProjectID), nil
		}
		return nil, err
	}

	b, err := os.ReadFile(chainsPath)
	if err != nil {
		return nil, err
	}

	var parsed chainsFile
	if err := json.Unmarshal(b, &parsed); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", chainsPath, err)
	}

	if len(parsed.Chains) == 0 {
		return nil, fmt.Errorf("config: %s declares no chains", chainsPath)
	}

	return parsed.Chains, nil
}
