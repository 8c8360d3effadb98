// Package orchestrator walks a directory tree and applies a vault
// operation to every file it finds, over a bounded pool of goroutines.
// It holds no cryptographic logic of its own; it is purely a caller of
// package vault, one call per file, issued only for distinct paths so
// concurrent calls never race on the same file.
package orchestrator

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"wcry/internal/vault"
)

// DefaultWorkers bounds how many files are processed concurrently when
// a caller doesn't specify its own limit.
const DefaultWorkers = 16

// Suffix is appended to every file this package encrypts, and stripped
// back off on decrypt.
const Suffix = ".wcry"

// FileResult reports the outcome of one file's operation.
type FileResult struct {
	Path string
	Err  error
}

// EncryptFolderOptions configures EncryptFolder.
type EncryptFolderOptions struct {
	Root      string
	Passwords []string
	// Workers bounds concurrency; zero uses DefaultWorkers.
	Workers int
	// Thumbnail, if set, is called for each file to produce the
	// metadata attached to its envelope. Its return value is wrapped
	// as {"thumbnail": "<value>"} and passed through unmodified by
	// vault.Encrypt - the core never interprets metadata contents.
	Thumbnail func(path string) (string, error)
	// RemoveOriginal deletes the plaintext file once its envelope has
	// been written successfully.
	RemoveOriginal bool
}

type fileMetadata struct {
	Thumbnail string `json:"thumbnail"`
}

// EncryptFolder recursively encrypts every regular file under
// opts.Root that doesn't already carry the envelope suffix, writing
// each as "<path>.wcry" alongside the original.
func EncryptFolder(opts EncryptFolderOptions) ([]FileResult, error) {
	paths, err := collectFiles(opts.Root, func(path string) bool {
		return filepath.Ext(path) != Suffix
	})
	if err != nil {
		return nil, err
	}

	return runPool(paths, opts.Workers, func(path string) error {
		var metadata []byte
		if opts.Thumbnail != nil {
			thumb, err := opts.Thumbnail(path)
			if err != nil {
				return err
			}
			metadata, err = json.Marshal(fileMetadata{Thumbnail: thumb})
			if err != nil {
				return err
			}
		}

		out := path + Suffix
		if err := vault.Encrypt(&vault.EncryptRequest{
			InputPath:  path,
			OutputPath: out,
			Passwords:  opts.Passwords,
			Metadata:   metadata,
		}); err != nil {
			return err
		}

		if opts.RemoveOriginal {
			return os.Remove(path)
		}
		return nil
	}), nil
}

// DecryptFolderOptions configures DecryptFolder.
type DecryptFolderOptions struct {
	Root     string
	Password string
	Workers  int
	// RemoveEnvelope deletes the envelope once it decrypts
	// successfully.
	RemoveEnvelope bool
}

// DecryptFolder recursively decrypts every file under opts.Root
// carrying the envelope suffix, writing each back to its original
// name with the suffix stripped.
func DecryptFolder(opts DecryptFolderOptions) ([]FileResult, error) {
	paths, err := collectFiles(opts.Root, func(path string) bool {
		return filepath.Ext(path) == Suffix
	})
	if err != nil {
		return nil, err
	}

	return runPool(paths, opts.Workers, func(path string) error {
		out := path[:len(path)-len(Suffix)]
		result, err := vault.Decrypt(&vault.DecryptRequest{
			InputPath:  path,
			OutputPath: out,
			Password:   opts.Password,
		})
		if err != nil {
			return err
		}
		if !result.BodyMACMatched {
			return nil
		}
		if opts.RemoveEnvelope {
			return os.Remove(path)
		}
		return nil
	}), nil
}

// collectFiles walks root and returns every regular file path for
// which keep returns true.
func collectFiles(root string, keep func(path string) bool) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if keep(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// runPool applies fn to every path in paths, running at most workers
// (DefaultWorkers if zero) at a time, and collects one FileResult per
// path. It mirrors the fixed-size worker pool the original folder
// implementation built around a 16-thread rayon pool, translated to a
// buffered channel used as a counting semaphore.
func runPool(paths []string, workers int, fn func(path string) error) []FileResult {
	if workers <= 0 {
		workers = DefaultWorkers
	}

	results := make([]FileResult, len(paths))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, path := range paths {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, path string) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = FileResult{Path: path, Err: fn(path)}
		}(i, path)
	}

	wg.Wait()
	return results
}
