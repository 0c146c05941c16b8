package imagestore

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"vision-inspector/internal/domain/port"
)

// Object хранит сохранённый снимок.
type Object struct {
	ContentType string
	Data        []byte
}

// MemoryStore хранит снимки в памяти процесса; URL строится от BaseURL.
type MemoryStore struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string]Object
}

// NewMemoryStore создаёт in-memory хранилище снимков
func NewMemoryStore(baseURL string) *MemoryStore {
	if baseURL == "" {
		baseURL = "memory://images"
	}
	return &MemoryStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string]Object),
	}
}

// Put сохраняет копию данных и возвращает URL объекта
func (s *MemoryStore) Put(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key := objectKey(filename)
	buf := make([]byte, len(data))
	copy(buf, data)

	s.mu.Lock()
	s.objects[key] = Object{ContentType: contentType, Data: buf}
	s.mu.Unlock()

	return s.baseURL + "/" + key, nil
}

// Get возвращает объект по URL, выданному Put
func (s *MemoryStore) Get(url string) (Object, error) {
	key := strings.TrimPrefix(url, s.baseURL+"/")

	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[key]
	if !ok {
		return Object{}, fmt.Errorf("image %s not found", url)
	}
	return obj, nil
}

var _ port.ImageStore = (*MemoryStore)(nil)
