package blob

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"
)

// Memory implements Store in process memory, for tests.
type Memory struct {
	mu    sync.RWMutex
	blobs map[string]memoryBlob
}

type memoryBlob struct {
	data        []byte
	contentType string
	metadata    map[string]string
	etag        string
	modified    time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{blobs: make(map[string]memoryBlob)}
}

// Driver reports DriverMemory.
func (s *Memory) Driver() Driver { return DriverMemory }

func (s *Memory) info(key string, b memoryBlob) Info {
	return Info{
		Key:          key,
		Size:         int64(len(b.data)),
		ContentType:  b.contentType,
		ETag:         b.etag,
		Metadata:     cloneMetadata(b.metadata),
		LastModified: b.modified,
		URL:          (&url.URL{Scheme: "mem", Host: "blob", Path: "/" + key}).String(),
	}
}

// Put stores the blob.
func (s *Memory) Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error) {
	if _, err := sanitizeKey(key); err != nil {
		return Info{}, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return Info{}, err
	}
	sum := sha256.Sum256(data)
	b := memoryBlob{
		data:        data,
		contentType: opts.ContentType,
		metadata:    cloneMetadata(opts.Metadata),
		etag:        hex.EncodeToString(sum[:]),
		modified:    time.Now().UTC(),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.blobs[key]; exists && !opts.Overwrite {
		return Info{}, fmt.Errorf("blob %s already exists", key)
	}
	s.blobs[key] = b
	return s.info(key, b), nil
}

// Get returns the blob content as a reader over a copy.
func (s *Memory) Get(ctx context.Context, key string) (Info, io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[key]
	if !ok {
		return Info{}, nil, fmt.Errorf("blob %s not found", key)
	}
	return s.info(key, b), io.NopCloser(bytes.NewReader(append([]byte(nil), b.data...))), nil
}

// Head returns blob metadata.
func (s *Memory) Head(ctx context.Context, key string) (Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[key]
	if !ok {
		return Info{}, fmt.Errorf("blob %s not found", key)
	}
	return s.info(key, b), nil
}

// Delete removes the blob; reports whether it existed.
func (s *Memory) Delete(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[key]; !ok {
		return false, nil
	}
	delete(s.blobs, key)
	return true, nil
}

// List returns blobs under the prefix in key order.
func (s *Memory) List(ctx context.Context, prefix string) ([]Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var infos []Info
	for key, b := range s.blobs {
		if prefix == "" || strings.HasPrefix(key, prefix) {
			infos = append(infos, s.info(key, b))
		}
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

// PresignURL returns a pseudo URL; only GET is supported.
func (s *Memory) PresignURL(ctx context.Context, key string, opts SignedURLOptions) (string, error) {
	if opts.Method != "" && strings.ToUpper(opts.Method) != "GET" {
		return "", ErrUnsupported
	}
	return (&url.URL{Scheme: "mem", Host: "blob", Path: "/" + key}).String(), nil
}
