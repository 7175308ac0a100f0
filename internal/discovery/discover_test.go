package discovery

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/modhub/repoindex/internal/assets"
	"github.com/modhub/repoindex/internal/metadata"
	"github.com/spf13/afero"
)

type skipped struct {
	ids  []string
	errs map[string]error
}

func (s *skipped) record(id string, err error) {
	if s.errs == nil {
		s.errs = make(map[string]error)
	}
	s.ids = append(s.ids, id)
	s.errs[id] = err
}

func write(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	if err := afero.WriteFile(fs, path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func ids(descs []*metadata.Descriptor) []string {
	var out []string
	for _, d := range descs {
		out = append(out, d.ID)
	}
	return out
}

func TestDiscoverAll_SkipsModulesWithoutMetadata(t *testing.T) {
	fs := afero.NewMemMapFs()
	write(t, fs, "/repo/mod-a/metadata.json", `{"source": "example/mod-a"}`)
	if err := fs.MkdirAll("/repo/mod-b", 0o755); err != nil {
		t.Fatal(err)
	}

	var s skipped
	descs, err := New(fs, WithSkipFunc(s.record)).DiscoverAll("/repo")
	if err != nil {
		t.Fatalf("DiscoverAll: %v", err)
	}

	if diff := cmp.Diff([]string{"mod-a"}, ids(descs)); diff != "" {
		t.Errorf("modules mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"mod-b"}, s.ids); diff != "" {
		t.Errorf("skipped mismatch (-want +got):\n%s", diff)
	}
	if !errors.Is(s.errs["mod-b"], ErrMetadataMissing) {
		t.Errorf("mod-b skip reason = %v, want ErrMetadataMissing", s.errs["mod-b"])
	}
	if descs[0].Source != "example/mod-a" {
		t.Errorf("Source = %q", descs[0].Source)
	}
	if descs[0].Name != "Mod-a" {
		t.Errorf("Name = %q, want default derived from id", descs[0].Name)
	}
}

func TestDiscoverAll_SkipsFilesAndHiddenEntries(t *testing.T) {
	fs := afero.NewMemMapFs()
	write(t, fs, "/repo/README.md", "# modules")
	write(t, fs, "/repo/repodata.json", "{}")
	write(t, fs, "/repo/.git/metadata.json", `{}`)
	write(t, fs, "/repo/web/metadata.json", `{}`)

	var s skipped
	descs, err := New(fs, WithSkipFunc(s.record)).DiscoverAll("/repo")
	if err != nil {
		t.Fatalf("DiscoverAll: %v", err)
	}
	if diff := cmp.Diff([]string{"web"}, ids(descs)); diff != "" {
		t.Errorf("modules mismatch (-want +got):\n%s", diff)
	}
	if len(s.ids) != 0 {
		t.Errorf("non-directories must be skipped silently, got %v", s.ids)
	}
}

func TestDiscoverAll_UnparsableMetadataSkipped(t *testing.T) {
	fs := afero.NewMemMapFs()
	write(t, fs, "/repo/broken/metadata.json", `{"name": `)
	write(t, fs, "/repo/ok/metadata.json", `{"name": "OK"}`)

	var s skipped
	descs, err := New(fs, WithSkipFunc(s.record)).DiscoverAll("/repo")
	if err != nil {
		t.Fatalf("DiscoverAll: %v", err)
	}
	if diff := cmp.Diff([]string{"ok"}, ids(descs)); diff != "" {
		t.Errorf("modules mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"broken"}, s.ids); diff != "" {
		t.Errorf("skipped mismatch (-want +got):\n%s", diff)
	}
}

func TestDiscoverAll_WrongTypesKeptUnlessStrict(t *testing.T) {
	fs := afero.NewMemMapFs()
	write(t, fs, "/repo/mod-a/metadata.json", `{"source": "example/mod-a", "name": 5}`)
	write(t, fs, "/repo/mod-b/metadata.json", `{"source": 42}`)
	write(t, fs, "/repo/mod-c/metadata.json", `{"source": "example/mod-c"}`)

	var s skipped
	descs, err := New(fs, WithStrict(false), WithSkipFunc(s.record)).DiscoverAll("/repo")
	if err != nil {
		t.Fatalf("DiscoverAll: %v", err)
	}
	if diff := cmp.Diff([]string{"mod-a", "mod-b", "mod-c"}, ids(descs)); diff != "" {
		t.Errorf("modules mismatch (-want +got):\n%s", diff)
	}
	if len(s.ids) != 0 {
		t.Errorf("skipped = %v, want none", s.ids)
	}
	if descs[0].Name != "Mod-a" || descs[0].Source != "example/mod-a" {
		t.Errorf("mod-a = %q/%q, want default name and its source", descs[0].Name, descs[0].Source)
	}
	if descs[1].Source != "" {
		t.Errorf("mod-b Source = %q, want empty", descs[1].Source)
	}

	s = skipped{}
	descs, err = New(fs, WithStrict(true), WithSkipFunc(s.record)).DiscoverAll("/repo")
	if err != nil {
		t.Fatalf("DiscoverAll: %v", err)
	}
	if diff := cmp.Diff([]string{"mod-c"}, ids(descs)); diff != "" {
		t.Errorf("strict modules mismatch (-want +got):\n%s", diff)
	}
	if !errors.Is(s.errs["mod-b"], ErrSchemaViolation) {
		t.Errorf("mod-b skip reason = %v, want ErrSchemaViolation", s.errs["mod-b"])
	}
}

func TestDiscoverAll_StrictSchema(t *testing.T) {
	fs := afero.NewMemMapFs()
	write(t, fs, "/repo/mail/metadata.json", `{"docs": {"homepage": "https://example.org"}}`)

	descs, err := New(fs).DiscoverAll("/repo")
	if err != nil {
		t.Fatalf("DiscoverAll: %v", err)
	}
	if len(descs) != 1 {
		t.Fatalf("non-strict: got %d modules, want 1", len(descs))
	}

	var s skipped
	descs, err = New(fs, WithStrict(true), WithSkipFunc(s.record)).DiscoverAll("/repo")
	if err != nil {
		t.Fatalf("DiscoverAll: %v", err)
	}
	if len(descs) != 0 {
		t.Errorf("strict: got %d modules, want 0", len(descs))
	}
	if !errors.Is(s.errs["mail"], ErrSchemaViolation) {
		t.Errorf("skip reason = %v, want ErrSchemaViolation", s.errs["mail"])
	}
}

func TestDiscover_RootErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	write(t, fs, "/file", "x")

	if _, err := New(fs).Discover("/missing"); err == nil {
		t.Error("expected error for missing root")
	}
	if _, err := New(fs).Discover("/file"); !errors.Is(err, ErrRootNotDir) {
		t.Errorf("err = %v, want ErrRootNotDir", err)
	}
}

func TestDiscover_Lazy(t *testing.T) {
	fs := afero.NewMemMapFs()
	write(t, fs, "/repo/a/metadata.json", `{}`)
	write(t, fs, "/repo/b/metadata.json", `{}`)
	write(t, fs, "/repo/c/metadata.json", `{}`)

	seq, err := New(fs).Discover("/repo")
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	var got []string
	for d := range seq {
		got = append(got, d.ID)
		if len(got) == 2 {
			break
		}
	}
	if diff := cmp.Diff([]string{"a", "b"}, got); diff != "" {
		t.Errorf("early stop mismatch (-want +got):\n%s", diff)
	}
}

func TestDiscover_ResolvesAssets(t *testing.T) {
	fs := afero.NewMemMapFs()
	write(t, fs, "/repo/mail/metadata.json", `{"source": "ghcr.io/example/mail"}`)
	write(t, fs, "/repo/mail/logo.png", "png")
	write(t, fs, "/repo/mail/screenshots/a.png", "png")

	descs, err := New(fs, WithAssets(assets.NewResolver(fs, "https://raw.example.org"))).DiscoverAll("/repo")
	if err != nil {
		t.Fatalf("DiscoverAll: %v", err)
	}
	d := descs[0]
	if d.Logo == nil || *d.Logo != "https://raw.example.org/mail/logo.png" {
		t.Errorf("Logo = %v", d.Logo)
	}
	if diff := cmp.Diff([]string{"https://raw.example.org/mail/screenshots/a.png"}, d.Screenshots); diff != "" {
		t.Errorf("Screenshots mismatch (-want +got):\n%s", diff)
	}
}

func TestDiscover_CustomTemplate(t *testing.T) {
	fs := afero.NewMemMapFs()
	write(t, fs, "/repo/mail/metadata.json", `{}`)

	tmpl, err := metadata.ParseTemplate([]byte("categories: [internal]\n"))
	if err != nil {
		t.Fatal(err)
	}
	descs, err := New(fs, WithTemplate(tmpl)).DiscoverAll("/repo")
	if err != nil {
		t.Fatalf("DiscoverAll: %v", err)
	}
	if diff := cmp.Diff([]string{"internal"}, descs[0].Categories); diff != "" {
		t.Errorf("Categories mismatch (-want +got):\n%s", diff)
	}
}

func TestOnSkip_ReturnsCopy(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := fs.MkdirAll("/repo/mod-a", 0o755); err != nil {
		t.Fatal(err)
	}

	var first, second skipped
	d := New(fs, WithSkipFunc(first.record))
	if _, err := d.OnSkip(second.record).DiscoverAll("/repo"); err != nil {
		t.Fatal(err)
	}
	if len(first.ids) != 0 || len(second.ids) != 1 {
		t.Errorf("skips = %v / %v, want none / [mod-a]", first.ids, second.ids)
	}
}
