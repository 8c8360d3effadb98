package vault

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"wcry/internal/errors"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("WriteFile(%s) failed: %v", path, err)
	}
}

// TestRoundTripEveryPasswordDecrypts covers property 1 of the testable
// properties list: every password in the set used to encrypt can
// recover the original plaintext and metadata.
func TestRoundTripEveryPasswordDecrypts(t *testing.T) {
	tmpDir := t.TempDir()
	plaintext := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog, repeated a bit to cross one buffer chunk boundary or two"), 200)
	metadata := []byte(`{"thumbnail":"YWJjZA=="}`)

	inputPath := filepath.Join(tmpDir, "plain.bin")
	writeFile(t, inputPath, plaintext)

	envPath := filepath.Join(tmpDir, "plain.wcry")
	passwords := []string{"alpha-pw", "bravo-pw", "charlie-pw"}

	if err := Encrypt(&EncryptRequest{
		InputPath:  inputPath,
		OutputPath: envPath,
		Passwords:  passwords,
		Metadata:   metadata,
	}); err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	for _, pw := range passwords {
		outPath := filepath.Join(tmpDir, "out-"+pw+".bin")
		res, err := Decrypt(&DecryptRequest{
			InputPath:  envPath,
			OutputPath: outPath,
			Password:   pw,
		})
		if err != nil {
			t.Fatalf("Decrypt(%s) failed: %v", pw, err)
		}
		if !res.BodyMACMatched {
			t.Errorf("Decrypt(%s): body_mac_matched = false, want true", pw)
		}
		if !bytes.Equal(res.Metadata, metadata) {
			t.Errorf("Decrypt(%s): metadata = %q, want %q", pw, res.Metadata, metadata)
		}
		got, err := os.ReadFile(outPath)
		if err != nil {
			t.Fatalf("ReadFile(%s) failed: %v", outPath, err)
		}
		if !bytes.Equal(got, plaintext) {
			t.Errorf("Decrypt(%s): plaintext mismatch", pw)
		}
	}
}

// TestDecryptWrongPasswordFails covers property 2.
func TestDecryptWrongPasswordFails(t *testing.T) {
	tmpDir := t.TempDir()
	inputPath := filepath.Join(tmpDir, "plain.bin")
	writeFile(t, inputPath, []byte("secret"))

	envPath := filepath.Join(tmpDir, "plain.wcry")
	if err := Encrypt(&EncryptRequest{
		InputPath:  inputPath,
		OutputPath: envPath,
		Passwords:  []string{"correct-password"},
	}); err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	_, err := Decrypt(&DecryptRequest{
		InputPath:  envPath,
		OutputPath: filepath.Join(tmpDir, "out.bin"),
		Password:   "wrong-password",
	})
	if !errors.Is(err, errors.ErrWrongPassword) {
		t.Errorf("err = %v; want ErrWrongPassword", err)
	}
}

// TestUpdateMetadataPreservesBodyAndPassword covers property 3.
func TestUpdateMetadataPreservesBodyAndPassword(t *testing.T) {
	tmpDir := t.TempDir()
	plaintext := []byte("metadata update should not disturb this body")
	inputPath := filepath.Join(tmpDir, "plain.bin")
	writeFile(t, inputPath, plaintext)

	envPath := filepath.Join(tmpDir, "plain.wcry")
	if err := Encrypt(&EncryptRequest{
		InputPath:  inputPath,
		OutputPath: envPath,
		Passwords:  []string{"pw"},
		Metadata:   []byte("old"),
	}); err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	newMetadata := []byte(`{"thumbnail":"bmV3"}`)
	if err := UpdateMetadata(&UpdateMetadataRequest{Path: envPath, NewMetadata: newMetadata}); err != nil {
		t.Fatalf("UpdateMetadata failed: %v", err)
	}

	outPath := filepath.Join(tmpDir, "out.bin")
	res, err := Decrypt(&DecryptRequest{InputPath: envPath, OutputPath: outPath, Password: "pw"})
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if !res.BodyMACMatched {
		t.Error("body_mac_matched should remain true after update_metadata")
	}
	if !bytes.Equal(res.Metadata, newMetadata) {
		t.Errorf("metadata = %q; want %q", res.Metadata, newMetadata)
	}
	got, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Error("plaintext should be unchanged after update_metadata")
	}
}

// TestUpdateMetadataIdempotent covers property 8: rewriting the same
// metadata is a no-op on every cryptographic field and the body.
func TestUpdateMetadataIdempotent(t *testing.T) {
	tmpDir := t.TempDir()
	inputPath := filepath.Join(tmpDir, "plain.bin")
	writeFile(t, inputPath, []byte("idempotence check"))

	envPath := filepath.Join(tmpDir, "plain.wcry")
	metadata := []byte("stable")
	if err := Encrypt(&EncryptRequest{
		InputPath:  inputPath,
		OutputPath: envPath,
		Passwords:  []string{"pw"},
		Metadata:   metadata,
	}); err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	before, err := os.ReadFile(envPath)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	if err := UpdateMetadata(&UpdateMetadataRequest{Path: envPath, NewMetadata: metadata}); err != nil {
		t.Fatalf("UpdateMetadata failed: %v", err)
	}

	after, err := os.ReadFile(envPath)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !bytes.Equal(before, after) {
		t.Error("update_metadata with unchanged metadata should leave the file bit-identical")
	}
}

// TestRekeyRotatesPasswordsPreservesPlaintext covers property 4.
func TestRekeyRotatesPasswordsPreservesPlaintext(t *testing.T) {
	tmpDir := t.TempDir()
	plaintext := []byte("rekey must not disturb this content")
	inputPath := filepath.Join(tmpDir, "plain.bin")
	writeFile(t, inputPath, plaintext)

	envPath := filepath.Join(tmpDir, "plain.wcry")
	metadata := []byte("keep-me")
	if err := Encrypt(&EncryptRequest{
		InputPath:  inputPath,
		OutputPath: envPath,
		Passwords:  []string{"old-pw"},
		Metadata:   metadata,
	}); err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	newPasswords := []string{"new-pw-1", "new-pw-2"}
	if err := Rekey(&RekeyRequest{
		Path:         envPath,
		OldPassword:  "old-pw",
		NewPasswords: newPasswords,
	}); err != nil {
		t.Fatalf("Rekey failed: %v", err)
	}

	for _, pw := range newPasswords {
		res, err := Decrypt(&DecryptRequest{
			InputPath:  envPath,
			OutputPath: filepath.Join(tmpDir, "out-"+pw+".bin"),
			Password:   pw,
		})
		if err != nil {
			t.Fatalf("Decrypt(%s) after rekey failed: %v", pw, err)
		}
		if !res.BodyMACMatched {
			t.Errorf("Decrypt(%s): body_mac_matched = false after rekey", pw)
		}
		if !bytes.Equal(res.Metadata, metadata) {
			t.Errorf("Decrypt(%s): metadata = %q, want %q", pw, res.Metadata, metadata)
		}
	}

	_, err := Decrypt(&DecryptRequest{
		InputPath:  envPath,
		OutputPath: filepath.Join(tmpDir, "out-old.bin"),
		Password:   "old-pw",
	})
	if !errors.Is(err, errors.ErrWrongPassword) {
		t.Errorf("old password should fail after rekey, err = %v", err)
	}
}

// TestEncryptIsRandomizedPerCall covers property 7: two encryptions of
// the same (plaintext, passwords, metadata) are byte-different.
func TestEncryptIsRandomizedPerCall(t *testing.T) {
	tmpDir := t.TempDir()
	inputPath := filepath.Join(tmpDir, "plain.bin")
	writeFile(t, inputPath, []byte("same input both times"))

	env1 := filepath.Join(tmpDir, "one.wcry")
	env2 := filepath.Join(tmpDir, "two.wcry")

	req := func(out string) *EncryptRequest {
		return &EncryptRequest{InputPath: inputPath, OutputPath: out, Passwords: []string{"pw"}, Metadata: []byte("m")}
	}
	if err := Encrypt(req(env1)); err != nil {
		t.Fatalf("Encrypt 1 failed: %v", err)
	}
	if err := Encrypt(req(env2)); err != nil {
		t.Fatalf("Encrypt 2 failed: %v", err)
	}

	b1, _ := os.ReadFile(env1)
	b2, _ := os.ReadFile(env2)
	if bytes.Equal(b1, b2) {
		t.Error("two encryptions of identical input should not produce identical envelopes")
	}
}

// TestDecryptFlippedBodyBitMismatchesMAC covers property 5.
func TestDecryptFlippedBodyBitMismatchesMAC(t *testing.T) {
	tmpDir := t.TempDir()
	inputPath := filepath.Join(tmpDir, "plain.bin")
	writeFile(t, inputPath, []byte("a reasonably sized plaintext body for bit flipping"))

	envPath := filepath.Join(tmpDir, "plain.wcry")
	if err := Encrypt(&EncryptRequest{InputPath: inputPath, OutputPath: envPath, Passwords: []string{"pw"}}); err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	raw, err := os.ReadFile(envPath)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	raw[len(raw)-1] ^= 0xFF
	if err := os.WriteFile(envPath, raw, 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	res, err := Decrypt(&DecryptRequest{InputPath: envPath, OutputPath: filepath.Join(tmpDir, "out.bin"), Password: "pw"})
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if res.BodyMACMatched {
		t.Error("flipping a body bit should cause body_mac_matched = false")
	}
}

// TestDecryptFlippedVerifyBlockFailsForEveryPassword covers property 6.
func TestDecryptFlippedVerifyBlockFailsForEveryPassword(t *testing.T) {
	tmpDir := t.TempDir()
	inputPath := filepath.Join(tmpDir, "plain.bin")
	writeFile(t, inputPath, []byte("payload"))

	envPath := filepath.Join(tmpDir, "plain.wcry")
	passwords := []string{"pw1", "pw2"}
	if err := Encrypt(&EncryptRequest{InputPath: inputPath, OutputPath: envPath, Passwords: passwords}); err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	h, err := Inspect(envPath)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	offset := int64(4+2) + int64(len(h.Entries))*72 // magic + count + entries
	raw, err := os.ReadFile(envPath)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	raw[offset] ^= 0xFF // flip a bit inside the encrypted verify block, MAC untouched
	if err := os.WriteFile(envPath, raw, 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	for _, pw := range passwords {
		_, err := Decrypt(&DecryptRequest{InputPath: envPath, OutputPath: filepath.Join(tmpDir, "out-"+pw+".bin"), Password: pw})
		if !errors.Is(err, errors.ErrWrongPassword) {
			t.Errorf("Decrypt(%s) after verify-block corruption: err = %v, want ErrWrongPassword", pw, err)
		}
	}
}

// TestBoundaryPasswordCounts covers the n=1 boundary case and a larger
// set that exercises entry iteration without paying Argon2id's cost
// 65535 times over.
func TestBoundaryPasswordCounts(t *testing.T) {
	for _, n := range []int{1, 40} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			tmpDir := t.TempDir()
			inputPath := filepath.Join(tmpDir, "plain.bin")
			writeFile(t, inputPath, []byte("boundary test payload"))

			passwords := make([]string, n)
			for i := range passwords {
				passwords[i] = fmt.Sprintf("password-%d", i)
			}

			envPath := filepath.Join(tmpDir, "plain.wcry")
			if err := Encrypt(&EncryptRequest{InputPath: inputPath, OutputPath: envPath, Passwords: passwords}); err != nil {
				t.Fatalf("Encrypt(n=%d) failed: %v", n, err)
			}

			// Only the last password needs the full probe loop to have run.
			last := passwords[n-1]
			res, err := Decrypt(&DecryptRequest{InputPath: envPath, OutputPath: filepath.Join(tmpDir, "out.bin"), Password: last})
			if err != nil {
				t.Fatalf("Decrypt(n=%d) failed: %v", n, err)
			}
			if !res.BodyMACMatched {
				t.Errorf("n=%d: body_mac_matched = false", n)
			}
		})
	}
}

// TestZeroLengthPlaintext covers the zero-length-body boundary case.
func TestZeroLengthPlaintext(t *testing.T) {
	tmpDir := t.TempDir()
	inputPath := filepath.Join(tmpDir, "empty.bin")
	writeFile(t, inputPath, []byte{})

	envPath := filepath.Join(tmpDir, "empty.wcry")
	if err := Encrypt(&EncryptRequest{InputPath: inputPath, OutputPath: envPath, Passwords: []string{"pw"}}); err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	outPath := filepath.Join(tmpDir, "out.bin")
	res, err := Decrypt(&DecryptRequest{InputPath: envPath, OutputPath: outPath, Password: "pw"})
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if !res.BodyMACMatched {
		t.Error("empty plaintext: body_mac_matched should be true")
	}
	got, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("decrypted empty plaintext has length %d, want 0", len(got))
	}
}

// TestDecryptLegacyEnvelopeWithoutMetadataTail exercises the backward
// compatibility fallback: a file that ends right after the file MAC,
// with no metadata-length field at all.
func TestDecryptLegacyEnvelopeWithoutMetadataTail(t *testing.T) {
	tmpDir := t.TempDir()
	inputPath := filepath.Join(tmpDir, "plain.bin")
	plaintext := []byte("legacy format body")
	writeFile(t, inputPath, plaintext)

	envPath := filepath.Join(tmpDir, "plain.wcry")
	if err := Encrypt(&EncryptRequest{InputPath: inputPath, OutputPath: envPath, Passwords: []string{"pw"}}); err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	h, err := Inspect(envPath)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	fixedHeaderLen := int64(4+2) + int64(len(h.Entries))*72 + 128 + 32 + 32

	raw, err := os.ReadFile(envPath)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	// Splice out the metadata-length field and any metadata, simulating a
	// file produced before metadata existed.
	legacy := append(append([]byte{}, raw[:fixedHeaderLen]...), raw[h.Size():]...)
	legacyPath := filepath.Join(tmpDir, "legacy.wcry")
	writeFile(t, legacyPath, legacy)

	res, err := Decrypt(&DecryptRequest{InputPath: legacyPath, OutputPath: filepath.Join(tmpDir, "out.bin"), Password: "pw"})
	if err != nil {
		t.Fatalf("Decrypt(legacy) failed: %v", err)
	}
	if !res.BodyMACMatched {
		t.Error("legacy envelope: body_mac_matched should be true")
	}
	if len(res.Metadata) != 0 {
		t.Errorf("legacy envelope: metadata = %q, want empty", res.Metadata)
	}
}

// TestEncryptRejectsEmptyPasswordList and TestEncryptRejectsTooManyPasswords
// cover the BadArgument error kind.
func TestEncryptRejectsEmptyPasswordList(t *testing.T) {
	tmpDir := t.TempDir()
	inputPath := filepath.Join(tmpDir, "plain.bin")
	writeFile(t, inputPath, []byte("x"))

	err := Encrypt(&EncryptRequest{InputPath: inputPath, OutputPath: filepath.Join(tmpDir, "out.wcry"), Passwords: nil})
	if !errors.Is(err, errors.ErrBadArgument) {
		t.Errorf("err = %v; want ErrBadArgument", err)
	}
}

func TestEncryptRejectsTooManyPasswords(t *testing.T) {
	tmpDir := t.TempDir()
	inputPath := filepath.Join(tmpDir, "plain.bin")
	writeFile(t, inputPath, []byte("x"))

	passwords := make([]string, 65536)
	err := Encrypt(&EncryptRequest{InputPath: inputPath, OutputPath: filepath.Join(tmpDir, "out.wcry"), Passwords: passwords})
	if !errors.Is(err, errors.ErrBadArgument) {
		t.Errorf("err = %v; want ErrBadArgument", err)
	}
}
