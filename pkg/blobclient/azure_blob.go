package blobclient

import (
	"context"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	"github.com/panelkitchens/quotekit/pkg/logging"
)

// AzureBlobClient implements BlobClient using Azure Blob Storage.
type AzureBlobClient struct {
	client      *azblob.Client
	logger      logging.Logger
	accountName string
}

// NewAzureBlobClient creates a new Azure Blob Storage client.
// Without an account key, or with useManagedIdentity set, the default Azure
// credential chain is used.
func NewAzureBlobClient(accountName, accountKey string, useManagedIdentity bool, logger logging.Logger) (*AzureBlobClient, error) {
	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", accountName)

	var client *azblob.Client
	if useManagedIdentity || accountKey == "" {
		cred, err := azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure credential: %w", err)
		}
		client, err = azblob.NewClient(serviceURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure blob client: %w", err)
		}
	} else {
		cred, err := azblob.NewSharedKeyCredential(accountName, accountKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create shared key credential: %w", err)
		}
		client, err = azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure blob client: %w", err)
		}
	}

	return &AzureBlobClient{
		client:      client,
		logger:      logger,
		accountName: accountName,
	}, nil
}

// Upload uploads data to Azure Blob Storage, creating the container on
// first use.
func (a *AzureBlobClient) Upload(ctx context.Context, container, blobName string, data io.Reader, opts UploadOptions) (string, error) {
	logger := a.logger.With(
		logging.NewField("operation", "blob.upload"),
		logging.NewField("container", container),
		logging.NewField("blob", blobName),
	)

	if _, err := a.client.CreateContainer(ctx, container, nil); err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		logger.Error("Failed to create container", logging.NewField("error", err))
		return "", fmt.Errorf("failed to create container %s: %w", container, err)
	}

	uploadOptions := &azblob.UploadStreamOptions{
		HTTPHeaders: &blob.HTTPHeaders{},
	}
	if opts.ContentType != "" {
		uploadOptions.HTTPHeaders.BlobContentType = &opts.ContentType
	}
	if opts.ContentDisposition != "" {
		uploadOptions.HTTPHeaders.BlobContentDisposition = &opts.ContentDisposition
	}
	if opts.AccessTier != "" {
		tier := blob.AccessTier(opts.AccessTier)
		uploadOptions.AccessTier = &tier
	}
	if len(opts.Metadata) > 0 {
		uploadOptions.Metadata = make(map[string]*string, len(opts.Metadata))
		for k, v := range opts.Metadata {
			v := v
			uploadOptions.Metadata[k] = &v
		}
	}

	if _, err := a.client.UploadStream(ctx, container, blobName, data, uploadOptions); err != nil {
		logger.Error("Failed to upload blob", logging.NewField("error", err))
		return "", fmt.Errorf("failed to upload blob: %w", err)
	}

	url := fmt.Sprintf("https://%s.blob.core.windows.net/%s/%s", a.accountName, container, blobName)
	logger.Info("Blob upload successful", logging.NewField("url", url))
	return url, nil
}

// Get retrieves a blob from Azure Blob Storage.
func (a *AzureBlobClient) Get(ctx context.Context, container, blobName string) (io.ReadCloser, error) {
	resp, err := a.client.DownloadStream(ctx, container, blobName, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return nil, fmt.Errorf("%s/%s: %w", container, blobName, ErrNotFound)
		}
		a.logger.Error("Failed to download blob",
			logging.NewField("container", container),
			logging.NewField("blob", blobName),
			logging.NewField("error", err),
		)
		return nil, fmt.Errorf("failed to download blob: %w", err)
	}
	return resp.Body, nil
}
