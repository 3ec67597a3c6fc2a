package storage

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore keeps objects in process. It backs local runs and tests.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string]memoryObject
}

type memoryObject struct {
	data        []byte
	contentType string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]memoryObject)}
}

func objectKey(bucket, key string) string { return bucket + "/" + key }

func (m *MemoryStore) Get(_ context.Context, bucket, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[objectKey(bucket, key)]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", bucket, key, ErrNotFound)
	}
	out := make([]byte, len(obj.data))
	copy(out, obj.data)
	return out, nil
}

func (m *MemoryStore) Put(_ context.Context, bucket, key string, data []byte, contentType string, upsert bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := objectKey(bucket, key)
	if _, exists := m.objects[k]; exists && !upsert {
		return fmt.Errorf("%s/%s: %w", bucket, key, ErrAlreadyExists)
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	m.objects[k] = memoryObject{data: buf, contentType: contentType}
	return nil
}

// ContentType returns the content type recorded for an object.
func (m *MemoryStore) ContentType(bucket, key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[objectKey(bucket, key)]
	return obj.contentType, ok
}

// Keys lists the keys stored in bucket.
func (m *MemoryStore) Keys(bucket string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := bucket + "/"
	var keys []string
	for k := range m.objects {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			keys = append(keys, k[len(prefix):])
		}
	}
	return keys
}
