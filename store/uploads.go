package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"studydigest/loader"
	"studydigest/types"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// UploadStore writes uploaded files under a single directory. Files are
// never removed.
type UploadStore struct {
	dir string
}

func NewUploadStore(dir string) *UploadStore {
	return &UploadStore{dir: dir}
}

func (s *UploadStore) Dir() string {
	return s.dir
}

// Save copies r to <dir>/<uuid hex>_<sanitized filename>.
func (s *UploadStore) Save(filename string, r io.Reader) (types.Document, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return types.Document{}, fmt.Errorf("create upload dir: %w", err)
	}

	id := uuid.New()
	ext := loader.Ext(filename)
	safe := SecureFilename(filename)
	if safe == "" {
		safe = "document"
	}
	if loader.Ext(safe) != ext {
		safe += ext
	}
	name := strings.ReplaceAll(id.String(), "-", "") + "_" + safe
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return types.Document{}, fmt.Errorf("create upload %s: %w", name, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return types.Document{}, fmt.Errorf("write upload %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return types.Document{}, fmt.Errorf("close upload %s: %w", name, err)
	}

	return types.Document{
		ID:           id,
		OriginalName: filename,
		StorageName:  name,
		StoragePath:  path,
		Extension:    ext,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// SecureFilename reduces a client supplied name to a safe ASCII base name:
// accents are stripped, whitespace becomes "_" and anything outside
// [A-Za-z0-9_.-] is dropped.
func SecureFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)

	var b strings.Builder
	for _, r := range norm.NFKD.String(name) {
		switch {
		case unicode.IsSpace(r):
			b.WriteByte('_')
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '.' || r == '-'):
			b.WriteRune(r)
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" || out == "." || out == ".." {
		return ""
	}
	return out
}

// EnsureDirs creates every directory the application writes to.
func EnsureDirs(dirs ...string) error {
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}
