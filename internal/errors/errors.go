// Package errors provides typed errors for wcry operations. This enables
// callers to use errors.Is() and errors.As() for specific error handling
// instead of matching on message text.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors, one per error kind. Use errors.Is(err, errors.ErrWrongPassword)
// to check for a specific kind rather than inspecting error text.
var (
	// ErrBadArgument covers caller-supplied arguments that are invalid on
	// their face: an empty password list, more than 65535 passwords, an
	// empty path.
	ErrBadArgument = errors.New("bad argument")

	// ErrIO covers open/read/write/rename failures against the
	// filesystem. Partial artifacts may remain on disk after this error.
	ErrIO = errors.New("io failure")

	// ErrInvalidFormat covers magic mismatch, a short read of a required
	// header field, or a metadata length that exceeds what remains of
	// the file.
	ErrInvalidFormat = errors.New("invalid envelope format")

	// ErrWrongPassword indicates no entry's verify-block MAC matched
	// under the derived KEK for the password supplied.
	ErrWrongPassword = errors.New("wrong password")
)

// CryptoError wraps an error from a cryptographic primitive with the
// operation that produced it.
type CryptoError struct {
	Op  string // "rand", "argon2", "chacha20", "hmac"
	Err error
}

func (e *CryptoError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("crypto %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("crypto %s failed", e.Op)
}

func (e *CryptoError) Unwrap() error {
	return e.Err
}

// NewCryptoError creates a new CryptoError.
func NewCryptoError(op string, err error) *CryptoError {
	return &CryptoError{Op: op, Err: err}
}

// FileError wraps an error from a filesystem operation with the
// operation and path involved. Its Unwrap chain always reaches ErrIO.
type FileError struct {
	Op   string // "open", "read", "write", "stat", "create", "seek", "copy", "sync", "close", "rename"
	Path string
	Err  error
}

func (e *FileError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s %s failed", e.Op, e.Path)
}

func (e *FileError) Unwrap() error {
	return errors.Join(ErrIO, e.Err)
}

// NewFileError creates a new FileError.
func NewFileError(op, path string, err error) *FileError {
	return &FileError{Op: op, Path: path, Err: err}
}

// ValidationError wraps ErrBadArgument with the field that failed and a
// human-readable reason.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrBadArgument
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// Is checks if target matches any of our sentinel errors.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
