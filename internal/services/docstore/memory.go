package docstore

import (
	"context"
	"slices"
	"strconv"
	"sync"
	"time"
)

// Memory keeps documents in a map. Used by tests and BLINQ_STORE=memory.
type Memory struct {
	mu   sync.Mutex
	docs map[string]Document
	seq  int64
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{docs: make(map[string]Document)}
}

func (m *Memory) Get(_ context.Context, key string) (*Document, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.docs[key]
	if !ok {
		return nil, ErrNotFound
	}
	doc.Data = slices.Clone(doc.Data)
	return &doc, nil
}

func (m *Memory) Put(_ context.Context, key string, data []byte, ifMatch string) (string, error) {
	if err := checkKey(key); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := checkRevision(key, m.docs[key].Revision, ifMatch); err != nil {
		return "", err
	}

	m.seq++
	rev := strconv.FormatInt(m.seq, 10)
	m.docs[key] = Document{
		Key:       key,
		Data:      slices.Clone(data),
		Revision:  rev,
		UpdatedAt: time.Now().UTC(),
	}
	return rev, nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, key)
	return nil
}

func (m *Memory) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := []string{}
	for k := range m.docs {
		if hasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys, nil
}

func (m *Memory) Close() error { return nil }
