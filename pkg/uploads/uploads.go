package uploads

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Store writes inbound attachments to a local directory. Blobs are
// write-once: the stored name is derived from arrival time plus the
// original extension and is never reused.
type Store struct {
	dir      string
	maxBytes int
}

// NewStore creates the uploads directory if needed.
func NewStore(dir string, maxSizeKB int) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &Store{
		dir:      dir,
		maxBytes: maxSizeKB * 1024,
	}, nil
}

// Dir returns the directory blobs are written to.
func (s *Store) Dir() string {
	return s.dir
}

// Save decodes the attachment content and writes it, returning the stored
// name. Data may be a data URL or bare base64.
func (s *Store) Save(originalName, data string) (string, error) {
	blob, err := decode(data)
	if err != nil {
		return "", fmt.Errorf("decode attachment: %w", err)
	}
	if s.maxBytes > 0 && len(blob) > s.maxBytes {
		return "", fmt.Errorf("attachment too large: %d bytes", len(blob))
	}

	name := s.storedName(originalName)
	if err := os.WriteFile(filepath.Join(s.dir, name), blob, 0o644); err != nil {
		return "", fmt.Errorf("write attachment: %w", err)
	}
	return name, nil
}

// storedName derives a unique name from arrival time and the source
// extension, bumping the timestamp on the rare same-millisecond collision.
func (s *Store) storedName(originalName string) string {
	ext := sanitizeExt(filepath.Ext(originalName))
	ts := time.Now().UnixMilli()
	for {
		name := fmt.Sprintf("%d%s", ts, ext)
		if _, err := os.Stat(filepath.Join(s.dir, name)); os.IsNotExist(err) {
			return name
		}
		ts++
	}
}

// sanitizeExt keeps only a plain dot-extension; anything with path
// separators or oddities is dropped rather than trusted.
func sanitizeExt(ext string) string {
	if ext == "" || ext == "." {
		return ""
	}
	if strings.ContainsAny(ext, "/\\") || len(ext) > 16 {
		return ""
	}
	return strings.ToLower(ext)
}

// decode handles both bare base64 payloads and data URLs of the form
// "data:<mime>;base64,<payload>".
func decode(data string) ([]byte, error) {
	if strings.HasPrefix(data, "data:") {
		if idx := strings.IndexByte(data, ','); idx >= 0 {
			data = data[idx+1:]
		}
	}
	return base64.StdEncoding.DecodeString(data)
}
