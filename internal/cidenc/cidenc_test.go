package cidenc

import (
	"bytes"
	"testing"

	"github.com/multiformats/go-multihash"
)

func validMultihash(t *testing.T) []byte {
	t.Helper()
	digest := bytes.Repeat([]byte{0xab}, 32)
	raw, err := multihash.Encode(digest, multihash.SHA2_256)
	if err != nil {
		t.Fatalf("building test multihash: %v", err)
	}
	return raw
}

func TestEncodeDecodeCIDRoundTrip(t *testing.T) {
	raw := validMultihash(t)

	cid, err := EncodeCID(raw)
	if err != nil {
		t.Fatalf("EncodeCID: %v", err)
	}
	if cid == "" {
		t.Fatalf("EncodeCID: expected non-empty cid")
	}

	decoded, err := DecodeCID(cid)
	if err != nil {
		t.Fatalf("DecodeCID: %v", err)
	}
	if !bytes.Equal(decoded, raw) {
		t.Errorf("round trip: expected %x, got %x", raw, decoded)
	}
}

func TestEncodeCIDRejectsMalformedMultihash(t *testing.T) {
	if _, err := EncodeCID([]byte{0xff, 0xff, 0xff}); err == nil {
		t.Errorf("expected error for malformed multihash")
	}
}

func TestDecodeCIDRejectsGarbage(t *testing.T) {
	if _, err := DecodeCID("not-base58-!!!"); err == nil {
		t.Errorf("expected error for invalid base58 input")
	}
}
