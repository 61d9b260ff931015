package blobclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
)

// MockBlobClient is an in-memory implementation of BlobClient. The service
// uses it when no storage account is configured.
type MockBlobClient struct {
	mu    sync.RWMutex
	blobs map[string]storedBlob // container/blobName -> blob

	// FailUploads makes the next n uploads fail.
	FailUploads int
	uploads     int
}

type storedBlob struct {
	data []byte
	opts UploadOptions
}

// NewMockBlobClient creates a new mock blob client.
func NewMockBlobClient() *MockBlobClient {
	return &MockBlobClient{blobs: make(map[string]storedBlob)}
}

// Upload stores data in memory.
func (m *MockBlobClient) Upload(ctx context.Context, container, blobName string, data io.Reader, opts UploadOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	blobData, err := io.ReadAll(data)
	if err != nil {
		return "", fmt.Errorf("failed to read data: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads++
	if m.FailUploads > 0 {
		m.FailUploads--
		return "", fmt.Errorf("mock upload of %s/%s failed", container, blobName)
	}
	m.blobs[container+"/"+blobName] = storedBlob{data: blobData, opts: opts}
	return fmt.Sprintf("mock://%s/%s", container, blobName), nil
}

// Get retrieves a blob from memory.
func (m *MockBlobClient) Get(ctx context.Context, container, blobName string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.blobs[container+"/"+blobName]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", container, blobName, ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(b.data)), nil
}

// Options returns the upload options a blob was stored with.
func (m *MockBlobClient) Options(container, blobName string) (UploadOptions, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.blobs[container+"/"+blobName]
	return b.opts, ok
}

// Uploads counts Upload calls, failed ones included.
func (m *MockBlobClient) Uploads() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.uploads
}
