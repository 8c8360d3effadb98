package vault

import (
	"io"
	"os"

	"wcry/internal/crypto"
	"wcry/internal/errors"
	"wcry/internal/log"
	"wcry/internal/util"
)

// Decrypt recovers plaintext from the envelope at req.InputPath using
// req.Password, writing it to req.OutputPath. It returns whether the
// whole-file MAC matched; a false result does not suppress the
// plaintext write, it only tells the caller the body may be corrupt.
func Decrypt(req *DecryptRequest) (*DecryptResult, error) {
	if req.InputPath == "" || req.OutputPath == "" {
		return nil, &errors.ValidationError{Field: "path", Message: "input and output paths are required"}
	}

	fin, err := os.Open(req.InputPath)
	if err != nil {
		return nil, errors.NewFileError("open", req.InputPath, err)
	}
	defer func() { _ = fin.Close() }()

	stat, err := fin.Stat()
	if err != nil {
		return nil, errors.NewFileError("stat", req.InputPath, err)
	}

	setStatus(req.Reporter, "reading header")
	h, err := parseEnvelopeFile(fin)
	if err != nil {
		return nil, err
	}

	setStatus(req.Reporter, "finding matching password")
	cek, cekNonce, err := probeEntries(h, req.Password)
	if err != nil {
		return nil, err
	}
	defer crypto.Zero(cek)
	defer crypto.Zero(cekNonce)

	bodyOffset, err := fin.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, errors.NewFileError("seek", req.InputPath, err)
	}
	bodySize := stat.Size() - bodyOffset

	fout, err := os.Create(req.OutputPath)
	if err != nil {
		return nil, errors.NewFileError("create", req.OutputPath, err)
	}
	defer func() { _ = fout.Close() }()

	setStatus(req.Reporter, "decrypting")
	matched, err := streamDecryptAndMAC(fin, fout, cek, cekNonce, h.FileMAC, bodySize, req.Reporter)
	if err != nil {
		return nil, err
	}

	log.Debug("decrypted envelope", log.String("path", req.InputPath), log.Bool("body_mac_matched", matched))

	return &DecryptResult{BodyMACMatched: matched, Metadata: h.Metadata}, nil
}

// streamDecryptAndMAC copies r to w applying the ChaCha20(key, nonce)
// keystream to each chunk, while feeding the produced plaintext into a
// running HMAC-SHA256(key, .) that is compared against wantMAC once r
// is exhausted.
func streamDecryptAndMAC(r io.Reader, w io.Writer, key, nonce, wantMAC []byte, total int64, reporter ProgressReporter) (bool, error) {
	stream, err := crypto.NewStream(key, nonce)
	if err != nil {
		return false, errors.NewCryptoError("chacha20", err)
	}
	mac := crypto.NewMAC(key)

	src := util.GetStreamBuffer()
	defer util.PutStreamBuffer(src)
	dst := make([]byte, len(src))

	var done int64
	for {
		n, readErr := r.Read(src)
		if n > 0 {
			stream.XORKeyStream(dst[:n], src[:n])
			mac.Write(dst[:n])
			if _, err := w.Write(dst[:n]); err != nil {
				return false, errors.NewFileError("write", "", err)
			}
			done += int64(n)
			if reporter != nil && total > 0 {
				progress := float32(done) / float32(total)
				setProgress(reporter, progress, "")
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return false, errors.NewFileError("read", "", readErr)
		}
	}

	return crypto.Equal(mac.Sum(nil), wantMAC), nil
}
