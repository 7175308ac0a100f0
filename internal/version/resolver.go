package version

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Masterminds/semver/v3"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/modhub/repoindex/internal/inspect"
)

// ErrNoSource is returned for a module without an image reference.
var ErrNoSource = errors.New("module has no source image")

// Resolver lists the releases of an image.
type Resolver struct {
	inspector      inspect.Inspector
	logger         *log.Logger
	tagConcurrency int
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for label fetch diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithTagConcurrency bounds the number of label fetches in flight.
func WithTagConcurrency(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.tagConcurrency = n
		}
	}
}

// New returns a Resolver backed by inspector.
func New(inspector inspect.Inspector, opts ...Option) *Resolver {
	r := &Resolver{
		inspector:      inspector,
		logger:         log.New(io.Discard),
		tagConcurrency: 1,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type candidate struct {
	tag string
	v   *semver.Version
}

// Resolve returns the releases of source, newest first.
//
// An error means the tag list itself could not be obtained. Tags that are not
// SemVer are dropped, and a tag whose labels cannot be read is kept with
// empty labels.
func (r *Resolver) Resolve(ctx context.Context, source string) ([]Record, error) {
	if source == "" {
		return nil, ErrNoSource
	}

	img, err := r.inspector.Inspect(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("listing tags of %s: %w", source, err)
	}

	var candidates []candidate
	seen := make(map[string]bool, len(img.RepoTags))
	for _, tag := range img.RepoTags {
		if seen[tag] {
			continue
		}
		seen[tag] = true
		v, err := ParseTag(tag)
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{tag: tag, v: v})
	}

	records := make([]Record, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.tagConcurrency)
	for i, c := range candidates {
		g.Go(func() error {
			records[i] = NewRecord(c.tag, c.v, r.labels(gctx, source, c.tag))
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return Sort(records), nil
}

func (r *Resolver) labels(ctx context.Context, source, tag string) map[string]string {
	ref := inspect.Tagged(source, tag)
	img, err := r.inspector.Inspect(ctx, ref)
	if err != nil {
		r.logger.Debug("label fetch failed", "ref", ref, "err", err)
		return nil
	}
	return img.Labels
}
