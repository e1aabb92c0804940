package storage

import (
	"context"
	"fmt"
	"os"
)

type localStorage struct{}

// NewLocalStorage creates a fetcher that reads artifacts from the file system
func NewLocalStorage() ArtifactFetcher {
	return localStorage{}
}

func (localStorage) Fetch(ctx context.Context, location string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info, err := os.Stat(location)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", location)
	}
	if info.Size() > MaxArtifactBytes {
		return nil, fmt.Errorf("artifact exceeds %d bytes", MaxArtifactBytes)
	}
	return os.ReadFile(location)
}
