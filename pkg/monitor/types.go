// Package monitor implements the three-stage contract-source discovery
// pipeline: block tailing, bytecode footer decoding, metadata fetching
// and per-source fetching, fanned out across an arbitrary set of chains.
package monitor

import "time"

// FooterVariant identifies which decentralized storage pointer a
// bytecode's CBOR footer carried.
type FooterVariant string

const (
	VariantSwarmBzzr1 FooterVariant = "bzzr1"
	VariantIPFS       FooterVariant = "ipfs"
)

// Footer is the result of decoding a deployed contract's CBOR metadata
// footer. Exactly one of the two hash fields is populated, matching
// Variant.
type Footer struct {
	Variant    FooterVariant
	SwarmHash  string // 32-byte hex, bzzr1 only
	IPFSCID    string // base58 multihash, ipfs only
}

// MetadataEntry is a metadata-queue entry keyed by contract address.
type MetadataEntry struct {
	Address   string
	Footer    Footer
	Timestamp time.Time
}

// SourceDescriptor is one entry of a metadata manifest's "sources" map.
type SourceDescriptor struct {
	Keccak256 string   `json:"keccak256"`
	URLs      []string `json:"urls"`
}

// Metadata is the subset of the Solidity compiler's metadata document
// this pipeline depends on. The rest of the document is opaque and is
// persisted verbatim without being modeled.
type Metadata struct {
	Sources map[string]SourceDescriptor `json:"sources"`
}

// SourceEntry is a source-queue entry keyed by contract address.
type SourceEntry struct {
	Address        string
	Chain          string
	RawMetadata    []byte
	PendingSources map[string]SourceDescriptor
	Timestamp      time.Time
}

// ChainConfig describes one configured blockchain endpoint.
type ChainConfig struct {
	Name     string
	Endpoint string
}

const (
	// MetadataQueueMaxAge is the retention window for metadata-queue
	// entries (spec §3).
	MetadataQueueMaxAge = 3600 * time.Second

	// SourceQueueMaxAge is the retention window for source-queue
	// entries (spec §3).
	SourceQueueMaxAge = 432000 * time.Second

	// CatchUpCap bounds how many blocks are ingested per chain per
	// block tick (spec §4.2).
	CatchUpCap = 4

	// DefaultBlockTime is the shared tick interval across all three
	// tickers, absent explicit configuration (spec §4.1/§6.4).
	DefaultBlockTime = 15 * time.Second

	// FetchConcurrencyCap bounds simultaneous in-flight fetches per
	// chain per stage (spec §5).
	FetchConcurrencyCap = 16

	// HeadFailureThreshold is the number of consecutive chain-head read
	// failures that escalates notification from a warning to an error
	// (ambient error handling, SPEC_FULL.md §9.3).
	HeadFailureThreshold = 3
)

// DefaultChains is the chain set started when no custom chain is
// supplied (spec §4.1).
func DefaultChains(infuraProjectID string) []ChainConfig {
	names := []string{"mainnet", "ropsten", "rinkeby", "kovan", "goerli"}
	chains := make([]ChainConfig, 0, len(names))
	for _, name := range names {
		chains = append(chains, ChainConfig{
			Name:     name,
			Endpoint: "https://" + name + ".infura.io/v3/" + infuraProjectID,
		})
	}
	return chains
}
