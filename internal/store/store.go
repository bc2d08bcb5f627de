package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"vitalis/internal/model"
)

// SelectionsKey is the key under which the selections fallback is kept,
// the same key the browser app uses in localStorage.
const SelectionsKey = "vitalisSelectedSeminars"

// StateKey holds the last encoded state token (the URL "s" parameter) for
// hosts without a URL bar, such as the CLI.
const StateKey = "s"

// ErrNotFound is returned by Get when the key is absent.
var ErrNotFound = errors.New("store: key not found")

// KV is a small string key-value store, the host's stand-in for the
// browser's localStorage.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Scoped prefixes every key, giving each web client its own namespace in a
// shared store.
func Scoped(kv KV, scope string) KV {
	return &scoped{kv: kv, prefix: scope + "/"}
}

type scoped struct {
	kv     KV
	prefix string
}

func (s *scoped) Get(ctx context.Context, key string) (string, error) {
	return s.kv.Get(ctx, s.prefix+key)
}

func (s *scoped) Set(ctx context.Context, key, value string) error {
	return s.kv.Set(ctx, s.prefix+key, value)
}

func (s *scoped) Delete(ctx context.Context, key string) error {
	return s.kv.Delete(ctx, s.prefix+key)
}

// Close is a no-op; the parent store owns the connection.
func (s *scoped) Close() error { return nil }

// LoadSelections reads the selections fallback. A missing key yields empty
// selections; a corrupt value is an error.
func LoadSelections(ctx context.Context, kv KV) (model.Selections, error) {
	raw, err := kv.Get(ctx, SelectionsKey)
	if errors.Is(err, ErrNotFound) {
		return model.Selections{}, nil
	}
	if err != nil {
		return nil, err
	}
	var sel model.Selections
	if err := json.Unmarshal([]byte(raw), &sel); err != nil {
		return nil, fmt.Errorf("store: decode selections: %w", err)
	}
	return sel.Clone(), nil
}

// SaveSelections writes the selections fallback as JSON.
func SaveSelections(ctx context.Context, kv KV, sel model.Selections) error {
	data, err := json.Marshal(sel.Clone())
	if err != nil {
		return fmt.Errorf("store: encode selections: %w", err)
	}
	return kv.Set(ctx, SelectionsKey, string(data))
}

// Memory is an in-process KV, used in tests and when no store path is
// configured.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *Memory) Close() error { return nil }
