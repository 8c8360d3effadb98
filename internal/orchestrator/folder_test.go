package orchestrator

import (
	"os"
	"path/filepath"
	"testing"

	"wcry/internal/vault"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func TestEncryptFolderThenDecryptFolderRoundTrips(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "nested")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	writeFile(t, filepath.Join(root, "a.txt"), []byte("hello a"))
	writeFile(t, filepath.Join(sub, "b.txt"), []byte("hello b"))

	passwords := []string{"pw1", "pw2"}

	encResults, err := EncryptFolder(EncryptFolderOptions{
		Root:           root,
		Passwords:      passwords,
		RemoveOriginal: true,
	})
	if err != nil {
		t.Fatalf("EncryptFolder: %v", err)
	}
	if len(encResults) != 2 {
		t.Fatalf("expected 2 files encrypted, got %d", len(encResults))
	}
	for _, r := range encResults {
		if r.Err != nil {
			t.Errorf("encrypting %s: %v", r.Path, r.Err)
		}
	}

	if _, err := os.Stat(filepath.Join(root, "a.txt")); !os.IsNotExist(err) {
		t.Error("original a.txt should have been removed")
	}
	if _, err := os.Stat(filepath.Join(root, "a.txt.wcry")); err != nil {
		t.Error("expected a.txt.wcry to exist")
	}

	decResults, err := DecryptFolder(DecryptFolderOptions{
		Root:           root,
		Password:       "pw2",
		RemoveEnvelope: true,
	})
	if err != nil {
		t.Fatalf("DecryptFolder: %v", err)
	}
	if len(decResults) != 2 {
		t.Fatalf("expected 2 files decrypted, got %d", len(decResults))
	}
	for _, r := range decResults {
		if r.Err != nil {
			t.Errorf("decrypting %s: %v", r.Path, r.Err)
		}
	}

	got, err := os.ReadFile(filepath.Join(root, "a.txt"))
	if err != nil {
		t.Fatalf("reading decrypted a.txt: %v", err)
	}
	if string(got) != "hello a" {
		t.Errorf("a.txt: expected %q, got %q", "hello a", got)
	}

	got, err = os.ReadFile(filepath.Join(sub, "b.txt"))
	if err != nil {
		t.Fatalf("reading decrypted b.txt: %v", err)
	}
	if string(got) != "hello b" {
		t.Errorf("b.txt: expected %q, got %q", "hello b", got)
	}
}

func TestEncryptFolderAttachesThumbnailMetadata(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "pic.bin"), []byte("fake image bytes"))

	_, err := EncryptFolder(EncryptFolderOptions{
		Root:      root,
		Passwords: []string{"pw"},
		Thumbnail: func(path string) (string, error) {
			return "ZmFrZXRodW1i", nil
		},
	})
	if err != nil {
		t.Fatalf("EncryptFolder: %v", err)
	}

	h, err := vault.Inspect(filepath.Join(root, "pic.bin.wcry"))
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if !h.HasMetadata {
		t.Fatal("expected metadata to be present")
	}
	want := `{"thumbnail":"ZmFrZXRodW1i"}`
	if string(h.Metadata) != want {
		t.Errorf("metadata: expected %q, got %q", want, h.Metadata)
	}
}

func TestDecryptFolderLeavesEnvelopeOnWrongPassword(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), []byte("secret"))

	if _, err := EncryptFolder(EncryptFolderOptions{
		Root:           root,
		Passwords:      []string{"correct"},
		RemoveOriginal: true,
	}); err != nil {
		t.Fatalf("EncryptFolder: %v", err)
	}

	results, err := DecryptFolder(DecryptFolderOptions{
		Root:     root,
		Password: "wrong",
	})
	if err != nil {
		t.Fatalf("DecryptFolder: %v", err)
	}
	if len(results) != 1 || results[0].Err == nil {
		t.Fatalf("expected a wrong-password error, got %+v", results)
	}

	if _, err := os.Stat(filepath.Join(root, "a.txt.wcry")); err != nil {
		t.Error("envelope should still exist after a failed decrypt")
	}
}

func TestCollectFilesSkipsDirectories(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "sub.wcry"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(root, "f.wcry"), []byte("x"))

	paths, err := collectFiles(root, func(path string) bool {
		return filepath.Ext(path) == Suffix
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 1 || filepath.Base(paths[0]) != "f.wcry" {
		t.Errorf("expected only f.wcry, got %v", paths)
	}
}
