package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PivotStore keeps the extracted text of each upload as a .txt file.
type PivotStore struct {
	dir string
}

func NewPivotStore(dir string) *PivotStore {
	return &PivotStore{dir: dir}
}

func (s *PivotStore) Dir() string {
	return s.dir
}

// Write stores text under <dir>/<stem of sourcePath>.txt, replacing any
// previous content, and returns the file path.
func (s *PivotStore) Write(sourcePath, text string) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create text dir: %w", err)
	}
	base := filepath.Base(sourcePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	path := filepath.Join(s.dir, stem+".txt")

	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("write pivot %s: %w", path, err)
	}
	return path, nil
}

// Exists reports whether path names a readable pivot file.
func (s *PivotStore) Exists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Read returns the content of a pivot file, or "" when there is nothing to read.
func (s *PivotStore) Read(path string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(data)
}
