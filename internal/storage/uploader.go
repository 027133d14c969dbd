package storage

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Asset is the remote handle grafted into a record after an upload.
type Asset struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
}

// Uploader stores binary payloads remotely. Record mutation never waits on
// Delete: failed deletions are logged by callers and may orphan assets.
type Uploader interface {
	Upload(ctx context.Context, name string, reader io.Reader, size int64, contentType string) (Asset, error)
	Delete(ctx context.Context, publicID string) error
}

// MemoryUploader is the in-process fake used by tests.
type MemoryUploader struct {
	mu      sync.Mutex
	Objects map[string][]byte
	Deleted []string
}

func NewMemoryUploader() *MemoryUploader {
	return &MemoryUploader{Objects: make(map[string][]byte)}
}

func (u *MemoryUploader) Upload(ctx context.Context, name string, reader io.Reader, size int64, contentType string) (Asset, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return Asset{}, err
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	u.Objects[name] = data

	return Asset{
		URL:      fmt.Sprintf("memory://%s", name),
		PublicID: name,
	}, nil
}

func (u *MemoryUploader) Delete(ctx context.Context, publicID string) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	delete(u.Objects, publicID)
	u.Deleted = append(u.Deleted, publicID)
	return nil
}
