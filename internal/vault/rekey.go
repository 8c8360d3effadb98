package vault

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"wcry/internal/crypto"
	"wcry/internal/envelope"
	"wcry/internal/errors"
	"wcry/internal/log"
	"wcry/internal/util"
)

// Rekey replaces the password set on the envelope at req.Path. It
// recovers the existing (cek, cekNonce) using req.OldPassword, wraps
// them under req.NewPasswords, and rewrites the file via a sibling
// temp file and atomic rename - the body, verify block, and both MACs
// are carried over unchanged.
func Rekey(req *RekeyRequest) error {
	if len(req.NewPasswords) == 0 {
		return &errors.ValidationError{Field: "new_passwords", Message: "at least one new password is required"}
	}
	if len(req.NewPasswords) > envelope.MaxEntries {
		return &errors.ValidationError{Field: "new_passwords", Message: "no more than 65535 passwords are supported"}
	}

	f, err := os.Open(req.Path)
	if err != nil {
		return errors.NewFileError("open", req.Path, err)
	}
	defer func() { _ = f.Close() }()

	setStatus(req.Reporter, "reading header")
	h, err := parseEnvelopeFile(f)
	if err != nil {
		return err
	}

	setStatus(req.Reporter, "verifying old password")
	cek, cekNonce, err := probeEntries(h, req.OldPassword)
	if err != nil {
		return err
	}
	defer crypto.Zero(cek)
	defer crypto.Zero(cekNonce)

	setStatus(req.Reporter, "deriving new keys")
	newEntries, err := buildEntries(req.NewPasswords, cek, cekNonce)
	if err != nil {
		return err
	}

	newHeader := &envelope.Header{
		Entries:              newEntries,
		EncryptedVerifyBlock: h.EncryptedVerifyBlock,
		VerifyBlockMAC:       h.VerifyBlockMAC,
		FileMAC:              h.FileMAC,
		HasMetadata:          h.HasMetadata,
		Metadata:             h.Metadata,
	}

	tmpPath := filepath.Join(filepath.Dir(req.Path), fmt.Sprintf(".%s.%s.tmp", filepath.Base(req.Path), uuid.NewString()))
	tmp, err := os.Create(tmpPath)
	if err != nil {
		return errors.NewFileError("create", tmpPath, err)
	}
	cleanTmp := true
	defer func() {
		if cleanTmp {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := envelope.WriteHeader(tmp, newHeader); err != nil {
		_ = tmp.Close()
		return errors.NewFileError("write", tmpPath, err)
	}

	setStatus(req.Reporter, "copying body")
	buf := util.GetStreamBuffer()
	defer util.PutStreamBuffer(buf)
	if _, err := io.CopyBuffer(tmp, f, buf); err != nil {
		_ = tmp.Close()
		return errors.NewFileError("copy", req.Path, err)
	}

	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.NewFileError("sync", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return errors.NewFileError("close", tmpPath, err)
	}

	if err := os.Rename(tmpPath, req.Path); err != nil {
		return errors.NewFileError("rename", req.Path, err)
	}
	cleanTmp = false

	log.Debug("rekeyed envelope", log.String("path", req.Path), log.Int("new_entries", len(newEntries)))
	return nil
}
