package envelope

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrBadMagic indicates the first four bytes were not "WCRY".
var ErrBadMagic = errors.New("envelope: bad magic")

// ErrTruncated indicates a required field was cut short by EOF.
var ErrTruncated = errors.New("envelope: truncated header")

// ErrMetadataOverrun indicates the declared metadata length exceeds what
// remains of the file.
var ErrMetadataOverrun = errors.New("envelope: metadata length overruns file")

// ParseHeader reads and decodes a complete envelope header from r,
// following the layout in order: magic, entry count, entries, verify
// block, verify-block MAC, file MAC, and an optional metadata length +
// metadata tail.
//
// Per spec, if EOF is hit exactly while trying to read the 4-byte
// metadata length, the envelope is legacy: HasMetadata is false and
// Metadata is empty. A file that ends inside the declared metadata is
// ErrMetadataOverrun; any other truncation is ErrTruncated.
func ParseHeader(r io.Reader) (*Header, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: %v", ErrTruncated, err)
		}
		return nil, err
	}
	if magic != Magic {
		return nil, ErrBadMagic
	}

	var countBuf [2]byte
	if _, err := io.ReadFull(r, countBuf[:]); err != nil {
		return nil, fmt.Errorf("%w: reading entry count: %v", ErrTruncated, err)
	}
	n := int(binary.BigEndian.Uint16(countBuf[:]))
	if n == 0 {
		return nil, errors.New("envelope: entry count must be at least 1")
	}

	entries := make([]Entry, n)
	for i := 0; i < n; i++ {
		buf := make([]byte, EntrySize)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("%w: reading entry %d: %v", ErrTruncated, i, err)
		}
		entries[i] = entryFromBytes(buf)
	}

	evb := make([]byte, VerifyBlockSize)
	if _, err := io.ReadFull(r, evb); err != nil {
		return nil, fmt.Errorf("%w: reading verify block: %v", ErrTruncated, err)
	}

	vbMAC := make([]byte, MACSize)
	if _, err := io.ReadFull(r, vbMAC); err != nil {
		return nil, fmt.Errorf("%w: reading verify-block MAC: %v", ErrTruncated, err)
	}

	fileMAC := make([]byte, MACSize)
	if _, err := io.ReadFull(r, fileMAC); err != nil {
		return nil, fmt.Errorf("%w: reading file MAC: %v", ErrTruncated, err)
	}

	h := &Header{
		Entries:              entries,
		EncryptedVerifyBlock: evb,
		VerifyBlockMAC:       vbMAC,
		FileMAC:              fileMAC,
	}

	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		if errors.Is(err, io.EOF) {
			// Legacy envelope: no metadata tail at all.
			h.HasMetadata = false
			h.Metadata = nil
			return h, nil
		}
		// A short read partway through the length field is still a
		// truncation, not a legacy file - legacy files end exactly here.
		return nil, fmt.Errorf("%w: reading metadata length: %v", ErrTruncated, err)
	}

	metaLen := int(binary.BigEndian.Uint32(lenBuf[:]))
	h.HasMetadata = true
	if metaLen == 0 {
		h.Metadata = []byte{}
		return h, nil
	}

	metadata := make([]byte, metaLen)
	if _, err := io.ReadFull(r, metadata); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: %v", ErrMetadataOverrun, err)
		}
		return nil, err
	}
	h.Metadata = metadata

	return h, nil
}
