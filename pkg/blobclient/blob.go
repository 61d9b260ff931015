package blobclient

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Get when the blob does not exist.
var ErrNotFound = errors.New("blob not found")

// BlobClient stores generated documents.
type BlobClient interface {
	// Upload stores data under container/blobName and returns its URL.
	Upload(ctx context.Context, container, blobName string, data io.Reader, opts UploadOptions) (url string, err error)

	// Get opens a stored blob. The caller closes the reader.
	Get(ctx context.Context, container, blobName string) (io.ReadCloser, error)
}

// UploadOptions contains optional parameters for upload operations.
type UploadOptions struct {
	ContentType string
	// ContentDisposition lets browsers save the blob under a readable name.
	ContentDisposition string
	AccessTier         string // Hot, Cool, Archive
	Metadata           map[string]string
}
