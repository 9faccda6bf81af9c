package client

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	KeyUser         = "user"
	KeyGuestSession = "guest_session"
	KeyPreferences  = "preferences"
)

// Persistence keeps small client values across restarts. Load reports false
// when the key was never saved.
type Persistence interface {
	Save(key string, value interface{}) error
	Load(key string, out interface{}) (bool, error)
	Delete(key string) error
}

// MemoryPersistence keeps values encoded in memory. Values are round-tripped
// through YAML so callers never share references with the store.
type MemoryPersistence struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func NewMemoryPersistence() *MemoryPersistence {
	return &MemoryPersistence{values: make(map[string][]byte)}
}

func (m *MemoryPersistence) Save(key string, value interface{}) error {
	raw, err := yaml.Marshal(value)
	if err != nil {
		return fmt.Errorf("cannot encode %s: %w", key, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = raw
	return nil
}

func (m *MemoryPersistence) Load(key string, out interface{}) (bool, error) {
	m.mu.RLock()
	raw, ok := m.values[key]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("cannot decode %s: %w", key, err)
	}
	return true, nil
}

func (m *MemoryPersistence) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// FilePersistence stores every key as a node of one YAML document. Writes go
// to a temporary file that is renamed over the previous one.
type FilePersistence struct {
	mu   sync.Mutex
	path string
}

func NewFilePersistence(path string) *FilePersistence {
	return &FilePersistence{path: path}
}

func (f *FilePersistence) Save(key string, value interface{}) error {
	var node yaml.Node
	if err := node.Encode(value); err != nil {
		return fmt.Errorf("cannot encode %s: %w", key, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return err
	}
	doc[key] = node
	return f.write(doc)
}

func (f *FilePersistence) Load(key string, out interface{}) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return false, err
	}
	node, ok := doc[key]
	if !ok {
		return false, nil
	}
	if err := node.Decode(out); err != nil {
		return false, fmt.Errorf("cannot decode %s: %w", key, err)
	}
	return true, nil
}

func (f *FilePersistence) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return err
	}
	if _, ok := doc[key]; !ok {
		return nil
	}
	delete(doc, key)
	return f.write(doc)
}

func (f *FilePersistence) read() (map[string]yaml.Node, error) {
	doc := make(map[string]yaml.Node)

	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read state file: %w", err)
	}

	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("cannot parse state file: %w", err)
	}
	return doc, nil
}

func (f *FilePersistence) write(doc map[string]yaml.Node) error {
	raw, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("cannot encode state file: %w", err)
	}

	if dir := filepath.Dir(f.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cannot create state directory: %w", err)
		}
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("cannot write state file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("cannot replace state file: %w", err)
	}
	return nil
}
