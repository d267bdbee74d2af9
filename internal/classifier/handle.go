package classifier

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/JonMunkholm/moderation/internal/core"
)

// ErrUnavailable wraps a failed load. Every Classify call after a failed load
// returns it; the handle never retries.
var ErrUnavailable = errors.New("classifier unavailable")

// Loader builds a classifier backend.
type Loader func(ctx context.Context) (core.Classifier, error)

// Handle is a process-wide classifier that is loaded on first use and then
// shared. It is safe for concurrent use.
type Handle struct {
	name string
	load Loader

	once sync.Once
	c    core.Classifier
	err  error
}

// NewHandle returns a handle that calls load on the first Classify.
func NewHandle(name string, load Loader) *Handle {
	return &Handle{name: name, load: load}
}

// Static returns an already-loaded handle around c.
func Static(name string, c core.Classifier) *Handle {
	h := &Handle{name: name, c: c}
	h.once.Do(func() {})
	return h
}

// Name returns the backend name the handle was created with.
func (h *Handle) Name() string {
	return h.name
}

// Load forces the backend to load and returns the load error, if any.
// Request cancellation does not abort a load in progress.
func (h *Handle) Load(ctx context.Context) error {
	h.once.Do(func() {
		c, err := h.load(context.WithoutCancel(ctx))
		if err == nil && c == nil {
			err = errors.New("loader returned no classifier")
		}
		if err != nil {
			h.err = fmt.Errorf("%w: %s: %w", ErrUnavailable, h.name, err)
			return
		}
		h.c = c
	})
	return h.err
}

// Classify implements core.Classifier.
func (h *Handle) Classify(ctx context.Context, text string) (string, error) {
	if err := h.Load(ctx); err != nil {
		return "", err
	}
	return h.c.Classify(ctx, text)
}
