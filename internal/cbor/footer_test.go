package cbor

import (
	"bytes"
	"testing"

	"github.com/fxamacker/cbor/v2"
)

func encodeMap(t *testing.T, m map[string]interface{}) []byte {
	t.Helper()
	b, err := cbor.Marshal(m)
	if err != nil {
		t.Fatalf("marshal footer map: %v", err)
	}
	return b
}

func TestDecodeFooter(t *testing.T) {
	swarmHash := bytes.Repeat([]byte{0x11}, 32)
	ipfsHash := bytes.Repeat([]byte{0x22}, 34)

	tests := []struct {
		name      string
		footerMap map[string]interface{}
		wantErr   bool
		wantBzzr1 []byte
		wantIPFS  []byte
	}{
		{
			name:      "bzzr1 only",
			footerMap: map[string]interface{}{"bzzr1": swarmHash},
			wantBzzr1: swarmHash,
		},
		{
			name:      "ipfs only",
			footerMap: map[string]interface{}{"ipfs": ipfsHash},
			wantIPFS:  ipfsHash,
		},
		{
			name:      "both present",
			footerMap: map[string]interface{}{"bzzr1": swarmHash, "ipfs": ipfsHash},
			wantBzzr1: swarmHash,
			wantIPFS:  ipfsHash,
		},
		{
			name:      "unknown key only",
			footerMap: map[string]interface{}{"solc": []byte{0x00, 0x08, 0x00, 0x1a}},
			wantErr:   true,
		},
		{
			name:      "empty map",
			footerMap: map[string]interface{}{},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cborMap := encodeMap(t, tt.footerMap)
			bytecode := AppendFooter([]byte{0x60, 0x80, 0x60, 0x40}, cborMap)

			decoded, err := DecodeFooter(bytecode)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !bytes.Equal(decoded.Bzzr1, tt.wantBzzr1) {
				t.Errorf("Bzzr1: expected %x, got %x", tt.wantBzzr1, decoded.Bzzr1)
			}
			if !bytes.Equal(decoded.IPFS, tt.wantIPFS) {
				t.Errorf("IPFS: expected %x, got %x", tt.wantIPFS, decoded.IPFS)
			}
		})
	}
}

func TestDecodeFooterTruncated(t *testing.T) {
	if _, err := DecodeFooter([]byte{0x01}); err == nil {
		t.Errorf("expected error for bytecode shorter than the length prefix")
	}
	if _, err := DecodeFooter(nil); err == nil {
		t.Errorf("expected error for empty bytecode")
	}
}

func TestDecodeFooterGarbageLength(t *testing.T) {
	bytecode := append([]byte{0x60, 0x80}, 0xff, 0xff)
	if _, err := DecodeFooter(bytecode); err == nil {
		t.Errorf("expected error when the length prefix points outside the bytecode")
	}
}

func TestEncodeDecodeFooterRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   Decoded
	}{
		{name: "bzzr1 only", in: Decoded{Bzzr1: bytes.Repeat([]byte{0x33}, 32)}},
		{name: "ipfs only", in: Decoded{IPFS: bytes.Repeat([]byte{0x44}, 34)}},
		{name: "both present", in: Decoded{Bzzr1: bytes.Repeat([]byte{0x33}, 32), IPFS: bytes.Repeat([]byte{0x44}, 34)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cborMap, err := Encode(tt.in)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}

			bytecode := AppendFooter([]byte{0x60, 0x80, 0x60, 0x40}, cborMap)

			decoded, err := DecodeFooter(bytecode)
			if err != nil {
				t.Fatalf("DecodeFooter: %v", err)
			}
			if !bytes.Equal(decoded.Bzzr1, tt.in.Bzzr1) {
				t.Errorf("Bzzr1: expected %x, got %x", tt.in.Bzzr1, decoded.Bzzr1)
			}
			if !bytes.Equal(decoded.IPFS, tt.in.IPFS) {
				t.Errorf("IPFS: expected %x, got %x", tt.in.IPFS, decoded.IPFS)
			}
		})
	}
}
