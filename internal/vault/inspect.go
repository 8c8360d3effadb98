package vault

import (
	"os"

	"wcry/internal/envelope"
	"wcry/internal/errors"
)

// parseEnvelopeFile reads the header from f, translating envelope-level
// errors into the vault package's InvalidFormat error kind. f's cursor
// is left immediately after the header on success.
func parseEnvelopeFile(f *os.File) (*envelope.Header, error) {
	h, err := envelope.ParseHeader(f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidFormat, err.Error())
	}
	return h, nil
}

// Inspect parses and returns the header of the envelope at path without
// decrypting anything. It is informational introspection: the returned
// fields are exactly what is on disk, not derivatives of it.
func Inspect(path string) (*envelope.Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewFileError("open", path, err)
	}
	defer func() { _ = f.Close() }()

	return parseEnvelopeFile(f)
}
