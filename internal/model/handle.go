package model

import (
	"context"
	"sync"

	"go-body-analyzer/internal/storage"

	"github.com/mdobak/go-xerrors"
)

// Loader fetches and parses a model artifact from one location.
type Loader struct {
	Fetcher  storage.ArtifactFetcher
	Location string
}

// Load fetches and parses the artifact. Errors carry a stack trace.
func (l Loader) Load(ctx context.Context) (*LinearModel, error) {
	data, err := l.Fetcher.Fetch(ctx, l.Location)
	if err != nil {
		return nil, xerrors.New("fetch model artifact", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, xerrors.New("parse model artifact", err)
	}
	return m, nil
}

// Handle holds a model that is loaded at most once. After loading it is
// read-only and safe to share between goroutines.
type Handle struct {
	loader *Loader
	once   sync.Once
	model  *LinearModel
	err    error
}

// NewHandle creates a handle. A nil loader means no model is configured.
func NewHandle(loader *Loader) *Handle {
	return &Handle{loader: loader}
}

// Load runs the loader on the first call and returns its error, if any.
// Later calls return the first outcome without fetching again.
func (h *Handle) Load(ctx context.Context) error {
	h.once.Do(func() {
		if h.loader == nil {
			return
		}
		h.model, h.err = h.loader.Load(ctx)
	})
	return h.err
}

// Model returns the loaded model. ok is false when no model is configured or
// loading failed.
func (h *Handle) Model() (*LinearModel, bool) {
	return h.model, h.model != nil
}

// Err returns the load error, if any.
func (h *Handle) Err() error {
	return h.err
}
