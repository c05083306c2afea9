package uploads

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestStore(t *testing.T, maxSizeKB int) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir(), maxSizeKB)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return store
}

func TestSaveBareBase64(t *testing.T) {
	store := newTestStore(t, 1024)

	name, err := store.Save("photo.png", base64.StdEncoding.EncodeToString([]byte("content")))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !strings.HasSuffix(name, ".png") {
		t.Errorf("stored name should keep the extension, got %q", name)
	}

	blob, err := os.ReadFile(filepath.Join(store.Dir(), name))
	if err != nil {
		t.Fatalf("stored file unreadable: %v", err)
	}
	if string(blob) != "content" {
		t.Errorf("stored content mismatch: %q", blob)
	}
}

func TestSaveDataURL(t *testing.T) {
	store := newTestStore(t, 1024)

	data := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("pixels"))
	name, err := store.Save("photo.png", data)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	blob, err := os.ReadFile(filepath.Join(store.Dir(), name))
	if err != nil {
		t.Fatalf("stored file unreadable: %v", err)
	}
	if string(blob) != "pixels" {
		t.Errorf("data URL prefix should be stripped, got %q", blob)
	}
}

func TestSaveRejectsBadBase64(t *testing.T) {
	store := newTestStore(t, 1024)

	if _, err := store.Save("photo.png", "!!not base64!!"); err == nil {
		t.Error("invalid base64 should fail")
	}
}

func TestSaveRejectsOversized(t *testing.T) {
	store := newTestStore(t, 1) // 1 KB cap

	big := base64.StdEncoding.EncodeToString(make([]byte, 2048))
	if _, err := store.Save("big.bin", big); err == nil {
		t.Error("oversized attachment should fail")
	}
}

func TestStoredNamesAreUnique(t *testing.T) {
	store := newTestStore(t, 1024)

	data := base64.StdEncoding.EncodeToString([]byte("x"))
	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		name, err := store.Save("a.txt", data)
		if err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		if seen[name] {
			t.Fatalf("duplicate stored name %q", name)
		}
		seen[name] = true
	}
}

func TestSanitizeExt(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{".PNG", ".png"},
		{".txt", ".txt"},
		{"", ""},
		{".", ""},
		{"./../etc", ""},
	}
	for _, tt := range tests {
		if got := sanitizeExt(tt.in); got != tt.want {
			t.Errorf("sanitizeExt(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSaveWithoutExtension(t *testing.T) {
	store := newTestStore(t, 1024)

	name, err := store.Save("noext", base64.StdEncoding.EncodeToString([]byte("x")))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if strings.Contains(name, ".") {
		t.Errorf("name without extension expected, got %q", name)
	}
}
