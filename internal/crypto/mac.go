package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"hash"
)

// MACSize is the output size of HMAC-SHA256.
const MACSize = sha256.Size // 32

// NewMAC returns an HMAC-SHA256 instance keyed with the given 32-byte key.
// Use it either as a one-shot (Sum) or incrementally over a streamed body.
func NewMAC(key []byte) hash.Hash {
	return hmac.New(sha256.New, key)
}

// MAC computes HMAC-SHA256(key, data) in one call.
func MAC(key, data []byte) []byte {
	m := NewMAC(key)
	m.Write(data)
	return m.Sum(nil)
}

// Equal compares two MAC values in constant time. Always use this instead
// of bytes.Equal or == when checking a MAC against a stored value - a
// timing-variable comparison here would leak information to an attacker
// probing passwords offline against the verify block.
func Equal(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
