// Package assets resolves logo and screenshot references for a module by
// convention: <module>/logo.png and <module>/screenshots/*.png. References
// point at a configured base URL (for example a raw-content host serving
// the modules repository) or, without one, are paths relative to the root.
package assets

import (
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/modhub/repoindex/internal/metadata"
	"github.com/spf13/afero"
)

const (
	logoFile      = "logo.png"
	screenshotDir = "screenshots"
)

// Resolver fills asset references on descriptors.
type Resolver struct {
	fs      afero.Fs
	baseURL string
}

// NewResolver returns a Resolver reading from fs. baseURL may be empty.
func NewResolver(fs afero.Fs, baseURL string) *Resolver {
	return &Resolver{fs: fs, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// Resolve sets d.Logo when <moduleDir>/logo.png exists and appends every
// PNG screenshot, in name order, to d.Screenshots. A missing logo file
// leaves the metadata value in place.
func (r *Resolver) Resolve(moduleDir string, d *metadata.Descriptor) {
	if info, err := r.fs.Stat(filepath.Join(moduleDir, logoFile)); err == nil && info.Mode().IsRegular() {
		ref := r.ref(d.ID, logoFile)
		d.Logo = &ref
	}

	for _, name := range r.screenshots(filepath.Join(moduleDir, screenshotDir)) {
		d.Screenshots = append(d.Screenshots, r.ref(d.ID, screenshotDir, name))
	}
}

func (r *Resolver) screenshots(dir string) []string {
	entries, err := afero.ReadDir(r.fs, dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if !e.Mode().IsRegular() && e.Mode()&os.ModeSymlink == 0 {
			continue
		}
		if strings.HasSuffix(strings.ToLower(e.Name()), ".png") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

func (r *Resolver) ref(parts ...string) string {
	if r.baseURL == "" {
		return path.Join(parts...)
	}
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.PathEscape(p)
	}
	return r.baseURL + "/" + strings.Join(escaped, "/")
}
