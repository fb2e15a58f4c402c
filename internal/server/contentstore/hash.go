package contentstore

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// HashSize is the digest length in bytes; hashes are hex encoded.
const HashSize = 16

// Hash returns the content address of b: the first 128 bits of its BLAKE3
// digest, hex encoded.
func Hash(b []byte) string {
	sum := blake3.Sum256(b)
	return hex.EncodeToString(sum[:HashSize])
}
