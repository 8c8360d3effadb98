// Package envelope handles wcry envelope header reading and writing.
// This is AUDIT-CRITICAL code - changes here directly affect on-disk
// format compatibility. The codec itself authenticates nothing; that is
// the vault package's responsibility.
package envelope

import "encoding/binary"

// Magic is the four-byte marker at the start of every envelope.
var Magic = [4]byte{'W', 'C', 'R', 'Y'}

// Fixed field sizes, byte-exact per the wire format.
const (
	SaltSize     = 16
	KEKNonceSize = 12
	CEKSize      = 32
	CEKNonceSize = 12

	// EntrySize = salt || kek_nonce || encrypted_cek || encrypted_cek_nonce
	EntrySize = SaltSize + KEKNonceSize + CEKSize + CEKNonceSize // 72

	VerifyBlockSize = 128
	MACSize         = 32

	MaxEntries = 65535
)

// Entry is one password's wrapping of the shared CEK/CEK_NONCE.
type Entry struct {
	Salt             []byte // 16 bytes
	KEKNonce         []byte // 12 bytes
	EncryptedCEK     []byte // 32 bytes
	EncryptedCEKNonce []byte // 12 bytes
}

// Bytes concatenates the entry's fields in wire order.
func (e *Entry) Bytes() []byte {
	out := make([]byte, 0, EntrySize)
	out = append(out, e.Salt...)
	out = append(out, e.KEKNonce...)
	out = append(out, e.EncryptedCEK...)
	out = append(out, e.EncryptedCEKNonce...)
	return out
}

// entryFromBytes parses a 72-byte slice into an Entry. It does not copy;
// callers that retain the result across buffer reuse must copy first.
func entryFromBytes(b []byte) Entry {
	return Entry{
		Salt:              b[0:SaltSize],
		KEKNonce:          b[SaltSize : SaltSize+KEKNonceSize],
		EncryptedCEK:      b[SaltSize+KEKNonceSize : SaltSize+KEKNonceSize+CEKSize],
		EncryptedCEKNonce: b[SaltSize+KEKNonceSize+CEKSize : EntrySize],
	}
}

// Header carries the raw bytes of every header field exactly as they
// appear on disk - the codec performs no cryptographic interpretation of
// them. HasMetadata distinguishes a legacy envelope (metadata_len absent,
// the body starts immediately after FileMAC) from one with an explicit,
// possibly-zero, metadata length.
type Header struct {
	Entries             []Entry
	EncryptedVerifyBlock []byte // 128 bytes
	VerifyBlockMAC      []byte // 32 bytes
	FileMAC             []byte // 32 bytes
	HasMetadata         bool
	Metadata            []byte // opaque, len is the on-disk metadata_len
}

// Size returns the total header length in bytes, including the
// metadata-length field and metadata payload when present.
func (h *Header) Size() int64 {
	size := int64(4+2) + int64(len(h.Entries))*EntrySize + VerifyBlockSize + MACSize + MACSize
	if h.HasMetadata {
		size += 4 + int64(len(h.Metadata))
	}
	return size
}

func putU16(n int) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, uint16(n))
	return b
}

func putU32(n int) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(n))
	return b
}
