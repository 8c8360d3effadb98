package envelope

import (
	"errors"
	"io"
)

// ErrTooManyEntries indicates more than MaxEntries password entries were
// supplied; the on-disk entry count is a single big-endian u16.
var ErrTooManyEntries = errors.New("envelope: too many entries")

// WriteHeader writes h to w in wire order: magic, entry count, entries,
// verify block, verify-block MAC, file MAC, and - only when
// h.HasMetadata is true - a metadata length and the metadata bytes. A
// header with HasMetadata false writes a legacy envelope with no
// metadata tail at all.
func WriteHeader(w io.Writer, h *Header) (int, error) {
	if len(h.Entries) == 0 {
		return 0, errors.New("envelope: at least one entry is required")
	}
	if len(h.Entries) > MaxEntries {
		return 0, ErrTooManyEntries
	}
	if len(h.EncryptedVerifyBlock) != VerifyBlockSize {
		return 0, errors.New("envelope: verify block must be 128 bytes")
	}
	if len(h.VerifyBlockMAC) != MACSize || len(h.FileMAC) != MACSize {
		return 0, errors.New("envelope: MAC fields must be 32 bytes")
	}

	written := 0

	n, err := w.Write(Magic[:])
	written += n
	if err != nil {
		return written, err
	}

	n, err = w.Write(putU16(len(h.Entries)))
	written += n
	if err != nil {
		return written, err
	}

	for i := range h.Entries {
		e := h.Entries[i]
		if len(e.Salt) != SaltSize || len(e.KEKNonce) != KEKNonceSize ||
			len(e.EncryptedCEK) != CEKSize || len(e.EncryptedCEKNonce) != CEKNonceSize {
			return written, errors.New("envelope: malformed entry")
		}
		n, err = w.Write(e.Bytes())
		written += n
		if err != nil {
			return written, err
		}
	}

	n, err = w.Write(h.EncryptedVerifyBlock)
	written += n
	if err != nil {
		return written, err
	}

	n, err = w.Write(h.VerifyBlockMAC)
	written += n
	if err != nil {
		return written, err
	}

	n, err = w.Write(h.FileMAC)
	written += n
	if err != nil {
		return written, err
	}

	if !h.HasMetadata {
		return written, nil
	}

	n, err = w.Write(putU32(len(h.Metadata)))
	written += n
	if err != nil {
		return written, err
	}

	if len(h.Metadata) > 0 {
		n, err = w.Write(h.Metadata)
		written += n
		if err != nil {
			return written, err
		}
	}

	return written, nil
}
