// Package vault implements the wcry envelope operations: encrypt,
// decrypt, rekey, and update-metadata. It composes the crypto and
// envelope packages and owns the streaming body pipeline.
//
// This is AUDIT-CRITICAL code - changes here directly affect whether
// existing envelopes remain decryptable and whether the format's
// invariants (verify-block probe, whole-file MAC, legacy metadata
// fallback) continue to hold.
//
// The package is single-threaded and synchronous per operation: it
// performs no internal concurrency and owns no state beyond the
// duration of a single call. It is safe to call concurrently across
// distinct paths; concurrent calls against the same path are the
// caller's responsibility to serialize.
package vault

import (
	"wcry/internal/crypto"
	"wcry/internal/envelope"
	"wcry/internal/errors"
)

// ProgressReporter receives status and progress updates during a
// streaming operation. Implementations must be safe to call from the
// goroutine performing the operation; wcry never calls these from more
// than one goroutine at a time. A nil reporter disables reporting.
type ProgressReporter interface {
	SetStatus(text string)
	SetProgress(fraction float32, info string)
}

// EncryptRequest carries the parameters for Encrypt.
type EncryptRequest struct {
	InputPath  string
	OutputPath string
	Passwords  []string
	Metadata   []byte // nil means no metadata; still written as metadata_len=0
	Reporter   ProgressReporter
}

// DecryptRequest carries the parameters for Decrypt.
type DecryptRequest struct {
	InputPath  string
	OutputPath string
	Password   string
	Reporter   ProgressReporter
}

// DecryptResult is returned by Decrypt. BodyMACMatched is a result, not
// an error: plaintext is written to OutputPath regardless of its value.
type DecryptResult struct {
	BodyMACMatched bool
	Metadata       []byte
}

// RekeyRequest carries the parameters for Rekey.
type RekeyRequest struct {
	Path         string
	OldPassword  string
	NewPasswords []string
	Reporter     ProgressReporter
}

// UpdateMetadataRequest carries the parameters for UpdateMetadata.
type UpdateMetadataRequest struct {
	Path        string
	NewMetadata []byte
}

func setStatus(r ProgressReporter, text string) {
	if r != nil {
		r.SetStatus(text)
	}
}

func setProgress(r ProgressReporter, fraction float32, info string) {
	if r != nil {
		r.SetProgress(fraction, info)
	}
}

// buildEntries wraps the shared (cek, cekNonce) under each password,
// sampling a fresh salt and KEK nonce per entry. This is the procedure
// shared between encrypt step 4 and rekey step 2.
//
// The same (KEK, kek_nonce) pair encrypts both the CEK and the CEK
// nonce, each from keystream offset 0. This is how the envelope format
// wraps them; entries built any other way would not be readable by
// probeEntries.
func buildEntries(passwords []string, cek, cekNonce []byte) ([]envelope.Entry, error) {
	entries := make([]envelope.Entry, len(passwords))
	for i, pw := range passwords {
		salt, err := crypto.RandomBytes(envelope.SaltSize)
		if err != nil {
			return nil, errors.NewCryptoError("rand", err)
		}
		kekNonce, err := crypto.RandomBytes(envelope.KEKNonceSize)
		if err != nil {
			return nil, errors.NewCryptoError("rand", err)
		}
		kek, err := crypto.DeriveKEK([]byte(pw), salt)
		if err != nil {
			return nil, errors.NewCryptoError("argon2", err)
		}

		encCEK, err := crypto.XOR(kek, kekNonce, cek)
		if err != nil {
			crypto.Zero(kek)
			return nil, errors.NewCryptoError("chacha20", err)
		}
		encCEKNonce, err := crypto.XOR(kek, kekNonce, cekNonce)
		if err != nil {
			crypto.Zero(kek)
			return nil, errors.NewCryptoError("chacha20", err)
		}
		crypto.Zero(kek)

		entries[i] = envelope.Entry{
			Salt:              salt,
			KEKNonce:          kekNonce,
			EncryptedCEK:      encCEK,
			EncryptedCEKNonce: encCEKNonce,
		}
	}
	return entries, nil
}

// probeEntries performs the verify-block probe: it tries password
// against every entry in order and returns the recovered (cek,
// cekNonce) for the first entry whose verify-block MAC matches. Like
// buildEntries, it unwraps the CEK and the CEK nonce with the same
// (KEK, kek_nonce) pair.
func probeEntries(h *envelope.Header, password string) (cek, cekNonce []byte, err error) {
	pw := []byte(password)
	for _, e := range h.Entries {
		kek, derr := crypto.DeriveKEK(pw, e.Salt)
		if derr != nil {
			return nil, nil, errors.NewCryptoError("argon2", derr)
		}

		cekCandidate, xerr := crypto.XOR(kek, e.KEKNonce, e.EncryptedCEK)
		if xerr != nil {
			crypto.Zero(kek)
			continue
		}
		cekNonceCandidate, xerr := crypto.XOR(kek, e.KEKNonce, e.EncryptedCEKNonce)
		crypto.Zero(kek)
		if xerr != nil {
			continue
		}

		vb, xerr := crypto.XOR(cekCandidate, cekNonceCandidate, h.EncryptedVerifyBlock)
		if xerr != nil {
			continue
		}
		sum := crypto.MAC(cekCandidate, vb)
		crypto.Zero(vb)

		if crypto.Equal(sum, h.VerifyBlockMAC) {
			return cekCandidate, cekNonceCandidate, nil
		}
		crypto.Zero(cekCandidate)
		crypto.Zero(cekNonceCandidate)
	}
	return nil, nil, errors.ErrWrongPassword
}
