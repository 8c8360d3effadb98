package crypto

import (
	"golang.org/x/crypto/chacha20"
)

// NonceSize and CEKSize are the ChaCha20 (IETF) nonce and key sizes used
// throughout the envelope: once for wrapping a CEK under a per-entry KEK,
// once for the CEK itself keying the verify block and the body.
const (
	NonceSize = chacha20.NonceSize // 12 bytes
	CEKSize   = 32
)

// XOR applies the ChaCha20 (IETF, 20 rounds, 32-bit counter starting at 0)
// keystream for (key, nonce) to data, returning a new slice. Encryption
// and decryption are the same operation.
func XOR(key, nonce, data []byte) ([]byte, error) {
	c, err := chacha20.NewUnauthenticatedCipher(key, nonce)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(data))
	c.XORKeyStream(out, data)
	return out, nil
}

// NewStream returns a ChaCha20 cipher instance for (key, nonce). Callers
// that stream a body must reuse one instance across every chunk so that
// the keystream's 32-bit block counter carries across chunk boundaries -
// re-initializing per chunk would repeat keystream from counter 0.
func NewStream(key, nonce []byte) (*chacha20.Cipher, error) {
	return chacha20.NewUnauthenticatedCipher(key, nonce)
}
