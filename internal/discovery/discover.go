package discovery

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/modhub/repoindex/internal/assets"
	"github.com/modhub/repoindex/internal/branding"
	"github.com/modhub/repoindex/internal/metadata"
	"github.com/spf13/afero"
)

var (
	// ErrRootNotDir is returned when the discovery root is not a directory.
	ErrRootNotDir = errors.New("module root is not a directory")
	// ErrMetadataMissing marks a module directory without metadata.json.
	ErrMetadataMissing = errors.New("metadata file not found")
	// ErrSchemaViolation marks metadata rejected by schema validation in
	// strict mode.
	ErrSchemaViolation = errors.New("metadata violates schema")
)

// SkipFunc receives the id of a module that was left out of the catalog and
// the reason.
type SkipFunc func(id string, err error)

// Discoverer lists module directories and loads their descriptors.
type Discoverer struct {
	fs       afero.Fs
	template *metadata.Template
	assets   *assets.Resolver
	logger   *log.Logger
	strict   bool
	onSkip   SkipFunc
}

// Option configures a Discoverer.
type Option func(*Discoverer)

// WithTemplate sets the default record modules start from.
func WithTemplate(t *metadata.Template) Option {
	return func(d *Discoverer) { d.template = t }
}

// WithAssets enables logo and screenshot resolution.
func WithAssets(r *assets.Resolver) Option {
	return func(d *Discoverer) { d.assets = r }
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *log.Logger) Option {
	return func(d *Discoverer) { d.logger = l }
}

// WithStrict makes schema violations skip the module instead of only
// logging a warning.
func WithStrict(strict bool) Option {
	return func(d *Discoverer) { d.strict = strict }
}

// WithSkipFunc sets the collaborator told about skipped modules. The default
// logs a warning.
func WithSkipFunc(fn SkipFunc) Option {
	return func(d *Discoverer) { d.onSkip = fn }
}

// New returns a Discoverer reading from fsys.
func New(fsys afero.Fs, opts ...Option) *Discoverer {
	d := &Discoverer{fs: fsys}
	for _, opt := range opts {
		opt(d)
	}
	if d.template == nil {
		d.template = metadata.DefaultTemplate()
	}
	if d.logger == nil {
		d.logger = log.New(io.Discard)
	}
	if d.onSkip == nil {
		d.onSkip = func(id string, err error) {
			d.logger.Warn("module ignored", "module", id, "err", err)
		}
	}
	return d
}

// OnSkip returns a copy of d that reports skipped modules to fn.
func (d *Discoverer) OnSkip(fn SkipFunc) *Discoverer {
	c := *d
	if fn != nil {
		c.onSkip = fn
	}
	return &c
}

// Discover validates root and returns a lazy sequence of descriptors in
// directory listing order. Only a missing or unreadable root is an error;
// per-module problems go to the SkipFunc.
func (d *Discoverer) Discover(root string) (iter.Seq[*metadata.Descriptor], error) {
	info, err := d.fs.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("reading module root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrRootNotDir, root)
	}
	entries, err := afero.ReadDir(d.fs, root)
	if err != nil {
		return nil, fmt.Errorf("listing module root %s: %w", root, err)
	}

	return func(yield func(*metadata.Descriptor) bool) {
		for _, entry := range entries {
			name := entry.Name()
			if strings.HasPrefix(name, ".") {
				continue
			}
			dir := filepath.Join(root, name)
			if !d.isDir(dir, entry) {
				continue
			}

			desc, err := d.load(name, dir)
			if err != nil {
				d.onSkip(name, err)
				continue
			}
			if !yield(desc) {
				return
			}
		}
	}, nil
}

// DiscoverAll collects the whole sequence.
func (d *Discoverer) DiscoverAll(root string) ([]*metadata.Descriptor, error) {
	seq, err := d.Discover(root)
	if err != nil {
		return nil, err
	}
	var result []*metadata.Descriptor
	for desc := range seq {
		result = append(result, desc)
	}
	return result, nil
}

// isDir follows symlinks so a linked module directory is still a module.
func (d *Discoverer) isDir(path string, entry os.FileInfo) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Mode()&os.ModeSymlink == 0 {
		return false
	}
	info, err := d.fs.Stat(path)
	return err == nil && info.IsDir()
}

func (d *Discoverer) load(id, dir string) (*metadata.Descriptor, error) {
	path := filepath.Join(dir, branding.MetadataFile())
	data, err := afero.ReadFile(d.fs, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMetadataMissing, path)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	result, err := metadata.Validate(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if !result.Valid {
		if d.strict {
			return nil, fmt.Errorf("%w: %s: %s", ErrSchemaViolation, path, result.Summary())
		}
		d.logger.Warn("metadata does not match schema", "module", id, "issues", result.Summary())
	}

	desc, keyErrs, err := d.template.Load(id, data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(keyErrs) > 0 && d.strict {
		errs := make([]error, len(keyErrs))
		for i, ke := range keyErrs {
			errs[i] = ke
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrSchemaViolation, path, errors.Join(errs...))
	}
	for _, ke := range keyErrs {
		d.logger.Warn("metadata key ignored", "module", id, "key", ke.Key, "err", ke.Err)
	}
	if d.assets != nil {
		d.assets.Resolve(dir, desc)
	}
	return desc, nil
}
