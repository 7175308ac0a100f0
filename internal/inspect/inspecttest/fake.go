// Package inspecttest provides an in-memory inspect.Inspector for tests.
package inspecttest

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/modhub/repoindex/internal/inspect"
)

// Fake answers inspections from fixed data. It is safe for concurrent use.
type Fake struct {
	mu      sync.Mutex
	images  map[string]*inspect.Image
	errs    map[string]error
	blocked map[string]bool
	calls   []string
}

// NewFake returns an empty Fake; every reference is unknown until added.
func NewFake() *Fake {
	return &Fake{
		images:  make(map[string]*inspect.Image),
		errs:    make(map[string]error),
		blocked: make(map[string]bool),
	}
}

// AddRepo registers source with the given tags.
func (f *Fake) AddRepo(source string, tags ...string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.images[source] = &inspect.Image{Name: source, RepoTags: slices.Clone(tags)}
	return f
}

// SetLabels registers the labels returned for reference.
func (f *Fake) SetLabels(reference string, labels map[string]string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.images[reference] = &inspect.Image{Name: reference, Labels: maps.Clone(labels)}
	return f
}

// Fail makes inspections of reference return err.
func (f *Fake) Fail(reference string, err error) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[reference] = err
	return f
}

// Block makes inspections of reference wait until their context ends.
func (f *Fake) Block(reference string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blocked[reference] = true
	return f
}

// Calls returns the references inspected so far, in call order.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// Inspect implements inspect.Inspector.
func (f *Fake) Inspect(ctx context.Context, reference string) (*inspect.Image, error) {
	f.mu.Lock()
	f.calls = append(f.calls, reference)
	blocked := f.blocked[reference]
	err := f.errs[reference]
	img := f.images[reference]
	f.mu.Unlock()

	if blocked {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	if img == nil {
		return nil, fmt.Errorf("%w: %s", inspect.ErrNotFound, reference)
	}
	return &inspect.Image{
		Name:     img.Name,
		RepoTags: slices.Clone(img.RepoTags),
		Labels:   maps.Clone(img.Labels),
	}, nil
}
