package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/afero"
)

// filePerm is the mode of a written index.
const filePerm = 0o644

// Encode writes idx to w, compact unless indent is set.
func Encode(w io.Writer, idx *Index, indent bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(idx); err != nil {
		return fmt.Errorf("encoding index: %w", err)
	}
	return nil
}

// WriteFile writes idx to path. The document is encoded to a temporary file
// in the same directory and renamed into place, so path either keeps its
// previous content or holds the complete new index.
func WriteFile(fs afero.Fs, path string, idx *Index, indent bool) error {
	var buf bytes.Buffer
	if err := Encode(&buf, idx, indent); err != nil {
		return err
	}

	tmp, err := afero.TempFile(fs, filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temporary index file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		_ = fs.Remove(tmpName)
		return fmt.Errorf("writing index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = fs.Remove(tmpName)
		return fmt.Errorf("writing index: %w", err)
	}
	if err := fs.Chmod(tmpName, filePerm); err != nil {
		_ = fs.Remove(tmpName)
		return fmt.Errorf("setting index permissions: %w", err)
	}
	if err := fs.Rename(tmpName, path); err != nil {
		_ = fs.Remove(tmpName)
		return fmt.Errorf("finalizing index %s: %w", path, err)
	}
	return nil
}

// Read decodes the index stored at path.
func Read(fs afero.Fs, path string) (*Index, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading index: %w", err)
	}
	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("parsing index %s: %w", path, err)
	}
	return &idx, nil
}
