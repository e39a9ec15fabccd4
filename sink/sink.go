// Package sink provides output destinations for generated headers.
package sink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// OutputSink receives generated file content.
// Implementations must be safe for concurrent calls.
type OutputSink interface {
	// WriteFile writes content to the relative path.
	WriteFile(ctx context.Context, path string, content []byte) error
}

// FilesystemSink writes below a root directory on the local filesystem.
type FilesystemSink struct {
	Root string

	// Mode is the file permission mode (default: 0644).
	Mode os.FileMode

	// Overwrite controls behavior for existing files.
	// If false, writing over an existing file is an error.
	Overwrite bool
}

// NewFilesystemSink returns a sink writing under root, overwriting existing
// files.
func NewFilesystemSink(root string) *FilesystemSink {
	return &FilesystemSink{Root: root, Mode: 0644, Overwrite: true}
}

// resolve validates path and returns its location under root.
func resolve(root, path string) (string, error) {
	if err := ValidatePath(path); err != nil {
		return "", fmt.Errorf("invalid path %q: %w", path, err)
	}
	full := filepath.Join(root, filepath.FromSlash(path))
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve root directory: %w", err)
	}
	absPath, err := filepath.Abs(full)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	if !strings.HasPrefix(absPath, absRoot+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes root directory: %q", path)
	}
	return full, nil
}

// WriteFile writes content atomically via a temp file in the target directory.
func (s *FilesystemSink) WriteFile(ctx context.Context, path string, content []byte) error {
	full, err := resolve(s.Root, path)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}
	mode := s.Mode
	if mode == 0 {
		mode = 0644
	}

	tmp, err := os.CreateTemp(dir, ".fntraits-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	// Removing a renamed temp file fails harmlessly.
	defer os.Remove(tmpPath)

	_, writeErr := tmp.Write(content)
	if closeErr := tmp.Close(); writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		return fmt.Errorf("failed to write temp file: %w", writeErr)
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if s.Overwrite {
		if err := os.Rename(tmpPath, full); err != nil {
			return fmt.Errorf("failed to rename temp file: %w", err)
		}
		return nil
	}
	// os.Link fails with EEXIST instead of replacing the file.
	if err := os.Link(tmpPath, full); err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("file already exists: %q", path)
		}
		return fmt.Errorf("failed to create file: %w", err)
	}
	return nil
}

// MemorySink stores generated files in memory.
type MemorySink struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMemorySink creates an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{files: make(map[string][]byte)}
}

// WriteFile stores a copy of content under path.
func (s *MemorySink) WriteFile(ctx context.Context, path string, content []byte) error {
	if err := ValidatePath(path); err != nil {
		return fmt.Errorf("invalid path %q: %w", path, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[path] = bytes.Clone(content)
	return nil
}

// Files returns a copy of all written files.
func (s *MemorySink) Files() map[string][]byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]byte, len(s.files))
	for p, c := range s.files {
		out[p] = bytes.Clone(c)
	}
	return out
}

// Get returns the content of one file, or nil if it was not written.
func (s *MemorySink) Get(path string) []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return bytes.Clone(s.files[path])
}

// CheckSink compares generated content with files already under Root
// instead of writing. Mismatches are collected and reported by Stale.
type CheckSink struct {
	Root string

	mu    sync.Mutex
	stale []string
}

// NewCheckSink returns a sink that checks files under root.
func NewCheckSink(root string) *CheckSink {
	return &CheckSink{Root: root}
}

// WriteFile records path as stale if the file under root is missing or has
// different content. It fails only on invalid paths and unreadable files.
func (s *CheckSink) WriteFile(ctx context.Context, path string, content []byte) error {
	full, err := resolve(s.Root, path)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	existing, err := os.ReadFile(full)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return fmt.Errorf("failed to read %q: %w", path, err)
	case bytes.Equal(existing, content):
		return nil
	}
	s.mu.Lock()
	s.stale = append(s.stale, path)
	s.mu.Unlock()
	return nil
}

// Stale returns the sorted paths whose content differs from what was
// generated.
func (s *CheckSink) Stale() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]string(nil), s.stale...)
	sort.Strings(out)
	return out
}

// ValidatePath checks that path is relative, slash-separated, clean and does
// not traverse upwards.
func ValidatePath(path string) error {
	if path == "" {
		return errors.New("path is empty")
	}
	if filepath.IsAbs(path) || strings.HasPrefix(path, "/") {
		return errors.New("absolute paths not allowed")
	}
	// Drive letters count as absolute on every host.
	if len(path) >= 2 && path[1] == ':' && ('A' <= path[0] && path[0] <= 'Z' || 'a' <= path[0] && path[0] <= 'z') {
		return errors.New("absolute paths not allowed")
	}
	if strings.Contains(path, "..") {
		return errors.New("path traversal not allowed")
	}
	if strings.Contains(path, `\`) {
		return errors.New("path must use / as separator")
	}
	if cleaned := filepath.ToSlash(filepath.Clean(path)); cleaned != path {
		return fmt.Errorf("path is not clean (expected %q, got %q)", cleaned, path)
	}
	return nil
}
