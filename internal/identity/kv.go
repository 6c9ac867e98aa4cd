package identity

import (
	"encoding/json"
	"errors"
	"os"
	"sync"
)

// MemoryKV is an in-process KV for tests and simulations
type MemoryKV struct {
	mu   sync.Mutex
	data map[string]string
}

var _ KV = (*MemoryKV)(nil)

// NewMemoryKV creates an empty MemoryKV
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string]string)}
}

func (kv *MemoryKV) Get(key string) (string, bool, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	v, ok := kv.data[key]
	return v, ok, nil
}

func (kv *MemoryKV) Set(key, value string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	kv.data[key] = value
	return nil
}

// FileKV persists keys as a JSON object on disk. The whole file is
// rewritten on every Set; identity writes are rare enough that this is
// not worth optimizing.
type FileKV struct {
	mu   sync.Mutex
	path string
}

var _ KV = (*FileKV)(nil)

// NewFileKV creates a FileKV stored at path
func NewFileKV(path string) *FileKV {
	return &FileKV{path: path}
}

func (kv *FileKV) Get(key string) (string, bool, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	data, err := kv.load()
	if err != nil {
		return "", false, err
	}
	v, ok := data[key]
	return v, ok, nil
}

func (kv *FileKV) Set(key, value string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	data, err := kv.load()
	if err != nil {
		return err
	}
	data[key] = value
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(kv.path, raw, 0o600)
}

func (kv *FileKV) load() (map[string]string, error) {
	raw, err := os.ReadFile(kv.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	data := map[string]string{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return data, nil
}
