package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Fingerprint derives a stable cache key from any input. Strings are
// used as-is; everything else is serialized to canonical JSON (map keys
// sorted) and hashed. Values that cannot be serialized fall back to
// their formatted representation, so key generation never fails.
func Fingerprint(input any) string {
	if s, ok := input.(string); ok {
		return s
	}
	data, err := json.Marshal(input)
	if err != nil {
		data = []byte(fmt.Sprintf("%+v", input))
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:16])
}
