package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

type azureStorage struct {
	client *azblob.Client
}

// NewAzureStorage creates a fetcher for blobs in the given storage account.
// Locations take the form "container/blob/name".
func NewAzureStorage(accountName string, accountKey string) (ArtifactFetcher, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("invalid azure credentials: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create azure client: %w", err)
	}

	return &azureStorage{client: client}, nil
}

// BlobLocation joins a container and blob name into a location for Fetch
func BlobLocation(container, blob string) string {
	return container + "/" + strings.TrimPrefix(blob, "/")
}

// SplitBlobLocation is the inverse of BlobLocation
func SplitBlobLocation(location string) (container, blob string, err error) {
	container, blob, ok := strings.Cut(strings.TrimPrefix(location, "/"), "/")
	if !ok || container == "" || blob == "" {
		return "", "", fmt.Errorf("invalid blob location %q: expected container/blob", location)
	}
	return container, blob, nil
}

func (s *azureStorage) Fetch(ctx context.Context, location string) ([]byte, error) {
	containerName, blobName, err := SplitBlobLocation(location)
	if err != nil {
		return nil, err
	}

	downloadResponse, err := s.client.DownloadStream(ctx, containerName, blobName, nil)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}

	retryReader := downloadResponse.Body
	defer retryReader.Close()

	data, err := io.ReadAll(io.LimitReader(retryReader, MaxArtifactBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read blob: %w", err)
	}
	if len(data) > MaxArtifactBytes {
		return nil, fmt.Errorf("blob exceeds %d bytes", MaxArtifactBytes)
	}
	return data, nil
}
