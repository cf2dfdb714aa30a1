package monitor

import (
	"encoding/hex"
	"time"
)

// nowFunc is swapped out in tests that exercise staleness eviction
// (spec §8's "Staleness eviction" scenario) without sleeping real time.
var nowFunc = time.Now

// hexNo0x renders b as lowercase hex without a leading "0x", matching
// spec §8 scenario 1's GET /bzz-raw:/1111…11 (no prefix).
func hexNo0x(b []byte) string {
	return hex.EncodeToString(b)
}
