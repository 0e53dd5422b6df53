package storage

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

// MemoryStore is an in-process ObjectStore used by tests and dry runs. Keys
// are canonical URIs.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte

	// Fail, when set, makes every operation return this error. Used to
	// exercise hard-backend-failure paths.
	Fail error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: map[string][]byte{}}
}

// PutObject seeds an object directly.
func (s *MemoryStore) PutObject(uri string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[CanonicalURI(uri)] = data
}

func (s *MemoryStore) Stat(_ context.Context, uri string) (bool, error) {
	if s.Fail != nil {
		return false, s.Fail
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[CanonicalURI(uri)]
	return ok, nil
}

func (s *MemoryStore) List(_ context.Context, prefix string) ([]string, error) {
	if s.Fail != nil {
		return nil, s.Fail
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// A trailing separator is a folder boundary: canonicalization strips
	// it, so it is restored to keep "data/" from matching "data-old/".
	p := CanonicalURI(prefix)
	if strings.HasSuffix(strings.TrimSpace(prefix), "/") {
		p += "/"
	}
	var out []string
	for uri := range s.objects {
		if strings.HasPrefix(uri, p) {
			out = append(out, uri)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *MemoryStore) Read(_ context.Context, uri string, maxBytes int64) ([]byte, error) {
	if s.Fail != nil {
		return nil, s.Fail
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.objects[CanonicalURI(uri)]
	if !ok {
		return nil, fmt.Errorf("object not found: %s", uri)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("read %s: object exceeds %d bytes", uri, maxBytes)
	}
	return data, nil
}

func (s *MemoryStore) Write(_ context.Context, localFile, destURI string) error {
	if s.Fail != nil {
		return s.Fail
	}
	data, err := os.ReadFile(localFile)
	if err != nil {
		return fmt.Errorf("upload %s: %w", localFile, err)
	}
	s.PutObject(destURI, data)
	return nil
}
