package blobclient

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockBlobClient_UploadAndGet(t *testing.T) {
	client := NewMockBlobClient()
	ctx := context.Background()

	url, err := client.Upload(ctx, "quotes", "2026/q-1.pdf", strings.NewReader("%PDF-1.3"), UploadOptions{
		ContentType: "application/pdf",
		Metadata:    map[string]string{"customer_id": "0501234567"},
	})
	require.NoError(t, err)
	assert.Equal(t, "mock://quotes/2026/q-1.pdf", url)

	reader, err := client.Get(ctx, "quotes", "2026/q-1.pdf")
	require.NoError(t, err)
	defer reader.Close()
	content, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.3", string(content))

	opts, ok := client.Options("quotes", "2026/q-1.pdf")
	require.True(t, ok)
	assert.Equal(t, "application/pdf", opts.ContentType)
}

func TestMockBlobClient_NotFound(t *testing.T) {
	_, err := NewMockBlobClient().Get(context.Background(), "quotes", "missing.pdf")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMockBlobClient_FailUploads(t *testing.T) {
	client := NewMockBlobClient()
	client.FailUploads = 1

	_, err := client.Upload(context.Background(), "quotes", "a.pdf", strings.NewReader("x"), UploadOptions{})
	assert.Error(t, err)
	_, err = client.Upload(context.Background(), "quotes", "a.pdf", strings.NewReader("x"), UploadOptions{})
	assert.NoError(t, err)
	assert.Equal(t, 2, client.Uploads())
}
