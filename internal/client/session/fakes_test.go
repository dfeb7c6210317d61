package session

import (
	"context"
	"sort"
	"sync"
)

type memStore struct {
	mu      sync.Mutex
	values  map[string]string
	saveErr error
	loadErr error
	saves   int
	clears  int
}

func newMemStore() *memStore {
	return &memStore{values: make(map[string]string)}
}

func (s *memStore) Save(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	values, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	for k, v := range values {
		s.values[k] = v
	}
	s.saves++
	return nil
}

func (s *memStore) Load(_ context.Context) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return decodeRecord(s.values)
}

func (s *memStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range sessionKeys {
		delete(s.values, k)
	}
	s.clears++
	return nil
}

func (s *memStore) SaveRedirect(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[KeyRedirect] = path
	return nil
}

func (s *memStore) TakeRedirect(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	path := s.values[KeyRedirect]
	delete(s.values, KeyRedirect)
	return path, nil
}

func (s *memStore) keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type fakeBrowser struct {
	mu       sync.Mutex
	location string
	replaced []string
}

func (b *fakeBrowser) Location() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.location
}

func (b *fakeBrowser) Replace(target string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.location = target
	b.replaced = append(b.replaced, target)
}

func (b *fakeBrowser) history() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.replaced...)
}

type fakeAlerter struct {
	mu       sync.Mutex
	messages []string
}

func (a *fakeAlerter) Alert(message string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messages = append(a.messages, message)
}

func (a *fakeAlerter) alerts() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.messages...)
}
