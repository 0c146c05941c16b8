package port

import "context"

// ImageStore интерфейс хранилища эталонных снимков
type ImageStore interface {
	// Put сохраняет снимок и возвращает его публичный URL
	Put(ctx context.Context, filename, contentType string, data []byte) (string, error)
}
