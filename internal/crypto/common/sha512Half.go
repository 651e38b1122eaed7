package crypto

import "crypto/sha512"

// Sha512Half returns the first 256 bits of the SHA-512 digest of the
// concatenated inputs.
func Sha512Half(data ...[]byte) [32]byte {
	h := sha512.New()
	for _, d := range data {
		h.Write(d)
	}
	var result [32]byte
	copy(result[:], h.Sum(nil)[:32])
	return result
}
