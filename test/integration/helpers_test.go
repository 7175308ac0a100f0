//go:build integration

package integration_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// testEnv holds the paths of one sandboxed repository.
type testEnv struct {
	RepoDir string // module directories
	BinDir  string // fake skopeo
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake skopeo is a shell script")
	}
	env := &testEnv{RepoDir: t.TempDir(), BinDir: t.TempDir()}
	writeFile(t, filepath.Join(env.BinDir, "skopeo"), fakeSkopeo, 0o755)
	return env
}

// fakeSkopeo answers inspections for the example.org/mail and
// example.org/dns images.
const fakeSkopeo = `#!/bin/sh
ref=""
for arg in "$@"; do ref="$arg"; done
case "$ref" in
  docker://example.org/mail)
    echo '{"Name":"example.org/mail","RepoTags":["1.0.0","1.1.0","2.0.0-rc.1","latest","v0.9"]}' ;;
  docker://example.org/mail:1.0.0)
    echo '{"Labels":{"org.nethserver.rootfull":"0"}}' ;;
  docker://example.org/mail:1.1.0)
    echo '{"Labels":{"org.nethserver.rootfull":"1"}}' ;;
  docker://example.org/mail:2.0.0-rc.1)
    echo 'broken' ;;
  *)
    echo "manifest unknown: $ref" >&2
    exit 1 ;;
esac
`

func writeFile(t *testing.T, path, content string, perm os.FileMode) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("creating %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func writeModule(t *testing.T, repo, id, metadata string) {
	t.Helper()
	writeFile(t, filepath.Join(repo, id, "metadata.json"), metadata, 0o644)
}

func assertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file to exist: %s", path)
	}
}

func assertFileNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("expected file not to exist: %s", path)
	}
}
