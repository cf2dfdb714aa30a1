// Package cidenc is the "external collaborator" Base58 multihash
// encoder from spec §1 and §6.5: given the raw multihash bytes pulled
// out of a bytecode's CBOR footer, produce the Base58 CID string used
// both as an IPFS gateway path segment and as a repository directory
// name (spec §6.3).
package cidenc

import (
	"github.com/mr-tron/base58"
	"github.com/multiformats/go-multihash"
)

// EncodeCID validates raw as a well-formed multihash and Base58-encodes
// it. An error here is a decode error in the sense of spec §7 category
// 2: the contract is dropped, never enqueued.
func EncodeCID(raw []byte) (string, error) {
	if _, err := multihash.Cast(raw); err != nil {
		return "", err
	}
	return base58.Encode(raw), nil
}

// DecodeCID reverses EncodeCID, used by tests exercising the round-trip
// property (spec §8) and by callers that need the raw bytes back.
func DecodeCID(cid string) ([]byte, error) {
	raw, err := base58.Decode(cid)
	if err != nil {
		return nil, err
	}
	if _, err := multihash.Cast(raw); err != nil {
		return nil, err
	}
	return raw, nil
}
