// Package kv provides the synchronous key-value stores backing the
// project/category state: an in-memory map for tests and a filesystem store
// for real use. Both satisfy domain.KVStore.
package kv

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"tripcore/pkg/domain"
)

var (
	_ domain.KVStore = (*Memory)(nil)
	_ domain.KVStore = (*Filesystem)(nil)
)

// Memory is a process-local KVStore.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

// Get returns the stored value and whether the key exists.
func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

// Set stores the value under the key.
func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// Remove deletes the key.
func (m *Memory) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Filesystem stores each key as one file under a root directory. Writes go
// through a temp file and rename so a crashed write never leaves a truncated
// value behind.
type Filesystem struct {
	root string
}

// NewFilesystem returns a filesystem store rooted at path, creating it if
// needed.
func NewFilesystem(root string) (*Filesystem, error) {
	if root == "" {
		root = "./tripcore-data"
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create kv root: %w", err)
	}
	return &Filesystem{root: root}, nil
}

// Root returns the configured root directory.
func (f *Filesystem) Root() string { return f.root }

// sanitizeKey forbids path traversal, absolute paths, and separators; keys are
// flat names like "projectsData_v1".
func sanitizeKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("empty key")
	}
	if strings.ContainsAny(key, "/\\") || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return key, nil
}

func (f *Filesystem) pathFor(key string) (string, error) {
	k, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(f.root, k+".json"), nil
}

// Get returns the stored value and whether the key exists.
func (f *Filesystem) Get(key string) (string, bool, error) {
	path, err := f.pathFor(key)
	if err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", key, err)
	}
	return string(data), true, nil
}

// Set stores the value under the key, replacing any previous value.
func (f *Filesystem) Set(key, value string) error {
	path, err := f.pathFor(key)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(f.root, "."+key+"-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", key, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", key, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", key, err)
	}
	return nil
}

// Remove deletes the key; removing an absent key is not an error.
func (f *Filesystem) Remove(key string) error {
	path, err := f.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}
