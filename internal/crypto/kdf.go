// Package crypto provides the cryptographic primitives of the wcry
// envelope format. This is AUDIT-CRITICAL code - changes here directly
// affect whether existing envelopes can still be decrypted.
package crypto

import (
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// RandomBytes generates n cryptographically secure random bytes.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("fatal crypto/rand error: %w", err)
	}

	// Sanity check: bytes should not be all zeros
	allZero := true
	for _, v := range b {
		if v != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		return nil, errors.New("fatal crypto/rand error: produced zero bytes")
	}

	return b, nil
}

// Argon2id parameters. These are part of the wire format: every entry's
// KEK is derived with these exact values, so changing them makes
// existing envelopes undecryptable. Do not make these configurable
// without a format revision.
const (
	Argon2Time    = 2
	Argon2Memory  = 32 * 1024 // 32 MiB, in KiB as required by argon2.IDKey
	Argon2Threads = 4
	KEKSize       = 32
)

// DeriveKEK derives a 32-byte key-encryption key from a password and a
// 16-byte salt using Argon2id (version 0x13, the only version the
// golang.org/x/crypto/argon2 package implements).
func DeriveKEK(password, salt []byte) ([]byte, error) {
	key := argon2.IDKey(password, salt, Argon2Time, Argon2Memory, Argon2Threads, KEKSize)

	if bytes.Equal(key, make([]byte, KEKSize)) {
		return nil, errors.New("fatal crypto/argon2 error: produced zero key")
	}

	return key, nil
}
