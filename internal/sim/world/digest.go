package world

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Digest returns a hex sha256 over the canonical JSON encoding of the state.
// encoding/json writes map keys in sorted order, so equal states always
// produce equal digests. Replay verification compares these.
func (s *State) Digest() string {
	b, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
