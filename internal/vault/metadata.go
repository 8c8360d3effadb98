package vault

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"wcry/internal/envelope"
	"wcry/internal/errors"
	"wcry/internal/log"
	"wcry/internal/util"
)

// UpdateMetadata rewrites only the metadata region of the envelope at
// req.Path, leaving every cryptographic field - the entries, verify
// block, and both MACs - and the body bytes untouched. It does not
// decrypt or re-encrypt anything.
func UpdateMetadata(req *UpdateMetadataRequest) error {
	f, err := os.Open(req.Path)
	if err != nil {
		return errors.NewFileError("open", req.Path, err)
	}

	h, err := parseEnvelopeFile(f)
	if err != nil {
		_ = f.Close()
		return err
	}

	h.HasMetadata = true
	h.Metadata = req.NewMetadata

	tmpPath := filepath.Join(filepath.Dir(req.Path), fmt.Sprintf(".%s.%s.tmp", filepath.Base(req.Path), uuid.NewString()))
	tmp, err := os.Create(tmpPath)
	if err != nil {
		_ = f.Close()
		return errors.NewFileError("create", tmpPath, err)
	}
	cleanTmp := true
	defer func() {
		if cleanTmp {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := envelope.WriteHeader(tmp, h); err != nil {
		_ = tmp.Close()
		_ = f.Close()
		return errors.NewFileError("write", tmpPath, err)
	}

	buf := util.GetStreamBuffer()
	defer util.PutStreamBuffer(buf)
	if _, err := io.CopyBuffer(tmp, f, buf); err != nil {
		_ = tmp.Close()
		_ = f.Close()
		return errors.NewFileError("copy", req.Path, err)
	}
	_ = f.Close()

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

	log.Debug("updated metadata", log.String("path", req.Path), log.Int("metadata_len", len(req.NewMetadata)))
	return nil
}
