// Package cbor decodes the CBOR-encoded metadata footer the Solidity
// compiler appends to deployed bytecode (spec §4.3, §6.5). This is the
// "external collaborator" CBOR primitive from spec §1 — the binary
// decode itself is delegated to github.com/fxamacker/cbor/v2; this
// package owns only the footer-specific framing (locating the footer,
// selecting a recognized key) that the spec calls out as bespoke.
package cbor

import (
	"encoding/binary"
	"errors"

	"github.com/fxamacker/cbor/v2"
)

var ErrNoFooter = errors.New("cbor: no recognized metadata footer")

// footerLengthSize is the width, in bytes, of the trailing big-endian
// length prefix the Solidity compiler appends after the CBOR map
// itself, so the EVM can skip over it at runtime.
const footerLengthSize = 2

// Decoded is the recognized subset of footer keys (spec §6.5). Unknown
// keys are ignored by decode; both keys are optional, but the caller
// should treat "neither present" as ErrNoFooter.
type Decoded struct {
	Bzzr1 []byte // 32-byte Swarm content hash, if present
	IPFS  []byte // raw IPFS multihash bytes, if present
}

// DecodeFooter scans deployed bytecode for a trailing CBOR footer and
// decodes it. It returns ErrNoFooter whenever the bytecode is too short
// to carry one, the length prefix doesn't fit inside the bytecode, or
// the bytes at that offset aren't a valid CBOR map — matching spec
// §4.3's "on any parse error, yield nothing" contract.
func DecodeFooter(bytecode []byte) (Decoded, error) {
	n := len(bytecode)
	if n < footerLengthSize {
		return Decoded{}, ErrNoFooter
	}

	cborLen := int(binary.BigEndian.Uint16(bytecode[n-footerLengthSize:]))
	footerEnd := n - footerLengthSize
	footerStart := footerEnd - cborLen
	if cborLen == 0 || footerStart < 0 || footerStart >= footerEnd {
		return Decoded{}, ErrNoFooter
	}

	raw := bytecode[footerStart:footerEnd]

	var m map[string]cbor.RawMessage
	if err := cbor.Unmarshal(raw, &m); err != nil {
		return Decoded{}, ErrNoFooter
	}

	var out Decoded
	if v, ok := m["bzzr1"]; ok {
		var hash []byte
		if err := cbor.Unmarshal(v, &hash); err == nil {
			out.Bzzr1 = hash
		}
	}
	if v, ok := m["ipfs"]; ok {
		var hash []byte
		if err := cbor.Unmarshal(v, &hash); err == nil {
			out.IPFS = hash
		}
	}

	if out.Bzzr1 == nil && out.IPFS == nil {
		return Decoded{}, ErrNoFooter
	}

	return out, nil
}

// Encode produces the CBOR map portion of a footer carrying exactly the
// populated fields of d, with no trailing length prefix. It exists to
// make the decode∘encode round-trip property (spec §8) exercisable and
// mirrors, in miniature, what solc itself emits before appending the
// length suffix.
func Encode(d Decoded) ([]byte, error) {
	m := map[string][]byte{}
	if d.Bzzr1 != nil {
		m["bzzr1"] = d.Bzzr1
	}
	if d.IPFS != nil {
		m["ipfs"] = d.IPFS
	}
	return cbor.Marshal(m)
}

// AppendFooter wraps a CBOR map with the length-prefix framing
// DecodeFooter expects, for use by tests that build fake bytecode.
func AppendFooter(bytecode []byte, cborMap []byte) []byte {
	out := append([]byte{}, bytecode...)
	out = append(out, cborMap...)
	var lenBuf [footerLengthSize]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(cborMap)))
	return append(out, lenBuf[:]...)
}
