package vault

import (
	"fmt"
	"io"
	"os"
	"time"

	"wcry/internal/crypto"
	"wcry/internal/envelope"
	"wcry/internal/errors"
	"wcry/internal/log"
	"wcry/internal/util"
)

// Encrypt produces a new envelope at req.OutputPath from the plaintext
// at req.InputPath, wrapped under every password in req.Passwords.
func Encrypt(req *EncryptRequest) error {
	if len(req.Passwords) == 0 {
		return &errors.ValidationError{Field: "passwords", Message: "at least one password is required"}
	}
	if len(req.Passwords) > envelope.MaxEntries {
		return &errors.ValidationError{Field: "passwords", Message: "no more than 65535 passwords are supported"}
	}
	if req.InputPath == "" || req.OutputPath == "" {
		return &errors.ValidationError{Field: "path", Message: "input and output paths are required"}
	}

	fin, err := os.Open(req.InputPath)
	if err != nil {
		return errors.NewFileError("open", req.InputPath, err)
	}
	defer func() { _ = fin.Close() }()

	stat, err := fin.Stat()
	if err != nil {
		return errors.NewFileError("stat", req.InputPath, err)
	}
	total := stat.Size()

	cek, err := crypto.RandomBytes(envelope.CEKSize)
	if err != nil {
		return errors.NewCryptoError("rand", err)
	}
	defer crypto.Zero(cek)
	cekNonce, err := crypto.RandomBytes(envelope.CEKNonceSize)
	if err != nil {
		return errors.NewCryptoError("rand", err)
	}
	defer crypto.Zero(cekNonce)

	vb, err := crypto.RandomBytes(envelope.VerifyBlockSize)
	if err != nil {
		return errors.NewCryptoError("rand", err)
	}
	defer crypto.Zero(vb)

	encryptedVB, err := crypto.XOR(cek, cekNonce, vb)
	if err != nil {
		return errors.NewCryptoError("chacha20", err)
	}
	vbMAC := crypto.MAC(cek, vb)

	setStatus(req.Reporter, "hashing body")
	fileMAC, err := hashBody(fin, cek)
	if err != nil {
		return err
	}
	if _, err := fin.Seek(0, io.SeekStart); err != nil {
		return errors.NewFileError("seek", req.InputPath, err)
	}

	setStatus(req.Reporter, "deriving keys")
	entries, err := buildEntries(req.Passwords, cek, cekNonce)
	if err != nil {
		return err
	}

	h := &envelope.Header{
		Entries:              entries,
		EncryptedVerifyBlock: encryptedVB,
		VerifyBlockMAC:       vbMAC,
		FileMAC:              fileMAC,
		HasMetadata:          true, // metadata_len is always written; zero-length when Metadata is nil
		Metadata:             req.Metadata,
	}

	fout, err := os.Create(req.OutputPath)
	if err != nil {
		return errors.NewFileError("create", req.OutputPath, err)
	}
	defer func() { _ = fout.Close() }()

	if _, err := envelope.WriteHeader(fout, h); err != nil {
		return errors.NewFileError("write", req.OutputPath, err)
	}

	setStatus(req.Reporter, "encrypting")
	if err := streamXOR(fin, fout, cek, cekNonce, total, req.Reporter); err != nil {
		return err
	}

	log.Debug("encrypted envelope", log.String("path", req.OutputPath), log.Int("entries", len(entries)))
	return nil
}

// hashBody computes HMAC-SHA256(key, contents of r) by streaming r to
// EOF in fixed-size chunks, without loading the whole body into memory.
func hashBody(r io.Reader, key []byte) ([]byte, error) {
	m := crypto.NewMAC(key)
	buf := util.GetStreamBuffer()
	defer util.PutStreamBuffer(buf)

	for {
		n, err := r.Read(buf)
		if n > 0 {
			m.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.NewFileError("read", "", err)
		}
	}
	return m.Sum(nil), nil
}

// streamXOR copies r to w, applying the ChaCha20(key, nonce) keystream
// to every byte. A single cipher instance spans the whole body so its
// counter carries across chunk boundaries.
func streamXOR(r io.Reader, w io.Writer, key, nonce []byte, total int64, reporter ProgressReporter) error {
	stream, err := crypto.NewStream(key, nonce)
	if err != nil {
		return errors.NewCryptoError("chacha20", err)
	}

	src := util.GetStreamBuffer()
	defer util.PutStreamBuffer(src)
	dst := make([]byte, len(src))

	start := time.Now()
	var done int64

	for {
		n, readErr := r.Read(src)
		if n > 0 {
			stream.XORKeyStream(dst[:n], src[:n])
			if _, err := w.Write(dst[:n]); err != nil {
				return errors.NewFileError("write", "", err)
			}
			done += int64(n)
			if reporter != nil && total > 0 {
				progress, speed, eta := util.Statify(done, total, start)
				setProgress(reporter, progress, fmt.Sprintf("%.2f%%", progress*100))
				setStatus(reporter, fmt.Sprintf("%.2f MiB/s (ETA %s)", speed, eta))
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return errors.NewFileError("read", "", readErr)
		}
	}
	return nil
}
